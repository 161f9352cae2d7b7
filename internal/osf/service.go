package osf

import (
	"context"
	"io"
	"net/http"
	"strings"
	"time"

	"log/slog"

	"github.com/psych-ds/psychds-r-sub001/internal/config"
	"github.com/psych-ds/psychds-r-sub001/internal/logging"
	"github.com/psych-ds/psychds-r-sub001/internal/services"
)

// FileResult reports one uploaded file.
type FileResult struct {
	Path        string `json:"path"`
	Bytes       int64  `json:"bytes"`
	DownloadURL string `json:"downloadUrl,omitempty"`
}

// UploadResult reports a completed dataset upload.
type UploadResult struct {
	Project    string       `json:"project"`
	Files      []FileResult `json:"files"`
	TotalBytes int64        `json:"totalBytes"`
}

// Service defines the OSF operations used by publishing.
type Service interface {
	Verify(ctx context.Context) error
	EnsureUploadTarget(ctx context.Context, project string) error
	UploadFile(ctx context.Context, project, relPath string, r io.Reader, size int64) (*FileResult, error)
	UploadDataset(ctx context.Context, project, root string, paths []string) (*UploadResult, error)
}

// Option adjusts service construction.
type Option func(*httpService)

// WithProgressWriter enables terminal upload progress on the given writer.
// Pass nil (or omit) for silent uploads.
func WithProgressWriter(w io.Writer) Option {
	return func(s *httpService) {
		s.progress = w
	}
}

// NewService builds an OSF service from the configured token. When no token
// is set, a noop implementation is returned.
func NewService(cfg *config.Config, logger *slog.Logger, opts ...Option) Service {
	return NewServiceWithToken(cfg, logger, cfg.OSF.Token, opts...)
}

// NewServiceWithToken builds an OSF service with an explicit token, letting
// callers override the configured one per publish.
func NewServiceWithToken(cfg *config.Config, logger *slog.Logger, token string, opts ...Option) Service {
	token = strings.TrimSpace(token)
	if token == "" {
		return noopService{}
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	timeout := time.Duration(cfg.OSF.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	svc := &httpService{
		apiBase:   strings.TrimRight(strings.TrimSpace(cfg.OSF.APIBaseURL), "/"),
		filesBase: strings.TrimRight(strings.TrimSpace(cfg.OSF.FilesBaseURL), "/"),
		token:     token,
		client:    &http.Client{Timeout: timeout},
		logger:    logger.With(logging.String("component", "osf")),
		folders:   make(map[string]string),
	}
	for _, opt := range opts {
		opt(svc)
	}
	return svc
}

const notConfiguredMessage = "OSF token not configured; set osf.token in config.toml or PSYCHDS_OSF_TOKEN"

type noopService struct{}

func (noopService) Verify(context.Context) error {
	return services.Wrap(services.ErrConfiguration, "osf", "verify token", notConfiguredMessage, nil)
}

func (noopService) EnsureUploadTarget(context.Context, string) error {
	return services.Wrap(services.ErrConfiguration, "osf", "resolve project", notConfiguredMessage, nil)
}

func (noopService) UploadFile(context.Context, string, string, io.Reader, int64) (*FileResult, error) {
	return nil, services.Wrap(services.ErrConfiguration, "osf", "upload file", notConfiguredMessage, nil)
}

func (noopService) UploadDataset(context.Context, string, string, []string) (*UploadResult, error) {
	return nil, services.Wrap(services.ErrConfiguration, "osf", "upload dataset", notConfiguredMessage, nil)
}
