package osf

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"log/slog"

	"github.com/schollz/progressbar/v3"

	"github.com/psych-ds/psychds-r-sub001/internal/logging"
	"github.com/psych-ds/psychds-r-sub001/internal/services"
	"github.com/psych-ds/psychds-r-sub001/internal/textutil"
)

type httpService struct {
	apiBase   string
	filesBase string
	token     string
	client    *http.Client
	logger    *slog.Logger
	progress  io.Writer

	mu      sync.Mutex
	folders map[string]string // project + ":" + relDir -> waterbutler path
}

type wbAttributes struct {
	Name string `json:"name"`
	Path string `json:"path"`
	Kind string `json:"kind"`
	Size int64  `json:"size"`
}

type wbLinks struct {
	Download string `json:"download"`
	Upload   string `json:"upload"`
}

type wbItem struct {
	Attributes wbAttributes `json:"attributes"`
	Links      wbLinks      `json:"links"`
}

type wbEntity struct {
	Data wbItem `json:"data"`
}

type wbListing struct {
	Data []wbItem `json:"data"`
}

func (s *httpService) Verify(ctx context.Context) error {
	resp, err := s.do(ctx, http.MethodGet, s.apiBase+"/users/me/", nil, 0)
	if err != nil {
		return services.Wrap(services.ErrExternalTool, "osf", "verify token", "Could not reach the OSF API", err)
	}
	defer drain(resp)

	switch resp.StatusCode {
	case http.StatusOK:
		return nil
	case http.StatusUnauthorized, http.StatusForbidden:
		return services.Wrap(services.ErrConfiguration, "osf", "verify token", "OSF rejected the token; generate a new personal access token", nil)
	default:
		return services.Wrap(services.ErrExternalTool, "osf", "verify token", fmt.Sprintf("OSF API returned %d", resp.StatusCode), nil)
	}
}

func (s *httpService) EnsureUploadTarget(ctx context.Context, project string) error {
	project = strings.TrimSpace(project)
	if project == "" {
		return services.Wrap(services.ErrValidation, "osf", "resolve project", "No project id provided", nil)
	}
	resp, err := s.do(ctx, http.MethodGet, s.apiBase+"/nodes/"+url.PathEscape(project)+"/", nil, 0)
	if err != nil {
		return services.Wrap(services.ErrExternalTool, "osf", "resolve project", "Could not reach the OSF API", err)
	}
	defer drain(resp)

	switch resp.StatusCode {
	case http.StatusOK:
		return nil
	case http.StatusUnauthorized, http.StatusForbidden:
		return services.Wrap(services.ErrConfiguration, "osf", "resolve project", "OSF rejected the token; generate a new personal access token", nil)
	case http.StatusNotFound, http.StatusGone:
		return services.Wrap(
			services.ErrValidation,
			"osf",
			"resolve project",
			fmt.Sprintf("Project %s was not found or the token cannot access it", project),
			nil,
		)
	default:
		return services.Wrap(services.ErrExternalTool, "osf", "resolve project", fmt.Sprintf("OSF API returned %d", resp.StatusCode), nil)
	}
}

func (s *httpService) UploadFile(ctx context.Context, project, relPath string, r io.Reader, size int64) (*FileResult, error) {
	project = strings.TrimSpace(project)
	if project == "" {
		return nil, services.Wrap(services.ErrValidation, "osf", "upload file", "No project id provided", nil)
	}
	rel := path.Clean(filepath.ToSlash(relPath))
	if rel == "." || rel == "/" || strings.HasPrefix(rel, "..") {
		return nil, services.Wrap(services.ErrValidation, "osf", "upload file", fmt.Sprintf("Unusable dataset path %q", relPath), nil)
	}
	base := path.Base(rel)

	folderPath, err := s.ensureFolder(ctx, project, path.Dir(rel))
	if err != nil {
		return nil, err
	}

	// One listing up front so a name conflict becomes an update instead of
	// a rejected create. The request body can only be consumed once.
	existing, err := s.findEntry(ctx, project, folderPath, base, "file")
	if err != nil {
		return nil, err
	}

	target := s.waterURL(project, folderPath) + "?kind=file&name=" + url.QueryEscape(base)
	if existing != nil {
		target = s.waterURL(project, existing.Attributes.Path) + "?kind=file"
	}
	s.logger.Debug("upload target resolved",
		logging.String("path", rel),
		logging.String("mode", textutil.Ternary(existing != nil, "update", "create")))

	resp, err := s.do(ctx, http.MethodPut, target, r, size)
	if err != nil {
		return nil, services.Wrap(services.ErrExternalTool, "osf", "upload file", fmt.Sprintf("Upload of %s failed", rel), err)
	}
	defer drain(resp)

	if resp.StatusCode != http.StatusCreated && resp.StatusCode != http.StatusOK {
		return nil, s.storageError("upload file", fmt.Sprintf("Upload of %s", rel), resp)
	}

	var entity wbEntity
	if err := json.NewDecoder(resp.Body).Decode(&entity); err != nil {
		return nil, services.Wrap(services.ErrExternalTool, "osf", "upload file", fmt.Sprintf("Unreadable storage response for %s", rel), err)
	}
	bytes := entity.Data.Attributes.Size
	if bytes == 0 {
		bytes = size
	}
	return &FileResult{Path: rel, Bytes: bytes, DownloadURL: entity.Data.Links.Download}, nil
}

func (s *httpService) UploadDataset(ctx context.Context, project, root string, paths []string) (*UploadResult, error) {
	project = strings.TrimSpace(project)
	if project == "" {
		return nil, services.Wrap(services.ErrValidation, "osf", "upload dataset", "No project id provided", nil)
	}
	if err := s.EnsureUploadTarget(ctx, project); err != nil {
		return nil, err
	}

	sorted := append([]string(nil), paths...)
	sort.Strings(sorted)

	var total int64
	sizes := make(map[string]int64, len(sorted))
	for _, rel := range sorted {
		info, err := os.Stat(filepath.Join(root, filepath.FromSlash(rel)))
		if err != nil {
			return nil, services.Wrap(services.ErrValidation, "osf", "upload dataset", fmt.Sprintf("Dataset file %s is missing", rel), err)
		}
		sizes[rel] = info.Size()
		total += info.Size()
	}

	var bar *progressbar.ProgressBar
	if s.progress != nil {
		bar = progressbar.NewOptions64(total,
			progressbar.OptionSetDescription("Uploading"),
			progressbar.OptionSetWriter(s.progress),
			progressbar.OptionShowBytes(true),
			progressbar.OptionClearOnFinish(),
		)
	}

	result := &UploadResult{Project: project}
	for _, rel := range sorted {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		f, err := os.Open(filepath.Join(root, filepath.FromSlash(rel)))
		if err != nil {
			return nil, services.Wrap(services.ErrValidation, "osf", "upload dataset", fmt.Sprintf("Dataset file %s is unreadable", rel), err)
		}
		var body io.Reader = f
		if bar != nil {
			body = io.TeeReader(f, bar)
		}
		fileResult, err := s.UploadFile(ctx, project, rel, body, sizes[rel])
		f.Close()
		if err != nil {
			return nil, err
		}
		result.Files = append(result.Files, *fileResult)
		result.TotalBytes += fileResult.Bytes
		s.logger.Info("file uploaded",
			logging.String("project", project),
			logging.String("path", rel),
			logging.Int64("bytes", fileResult.Bytes))
	}
	if bar != nil {
		_ = bar.Finish()
	}
	return result, nil
}

// ensureFolder creates (or resolves) the waterbutler folder for relDir and
// returns its storage path. Results are cached per project.
func (s *httpService) ensureFolder(ctx context.Context, project, relDir string) (string, error) {
	relDir = path.Clean(relDir)
	if relDir == "." || relDir == "/" || relDir == "" {
		return "/", nil
	}
	key := project + ":" + relDir

	s.mu.Lock()
	cached, ok := s.folders[key]
	s.mu.Unlock()
	if ok {
		return cached, nil
	}

	parent, err := s.ensureFolder(ctx, project, path.Dir(relDir))
	if err != nil {
		return "", err
	}
	name := path.Base(relDir)

	createURL := s.waterURL(project, parent) + "?kind=folder&name=" + url.QueryEscape(name)
	resp, err := s.do(ctx, http.MethodPut, createURL, nil, 0)
	if err != nil {
		return "", services.Wrap(services.ErrExternalTool, "osf", "create folder", fmt.Sprintf("Could not create folder %s", relDir), err)
	}
	defer drain(resp)

	var folderPath string
	switch resp.StatusCode {
	case http.StatusCreated, http.StatusOK:
		var entity wbEntity
		if err := json.NewDecoder(resp.Body).Decode(&entity); err != nil {
			return "", services.Wrap(services.ErrExternalTool, "osf", "create folder", fmt.Sprintf("Unreadable storage response for %s", relDir), err)
		}
		folderPath = entity.Data.Attributes.Path
	case http.StatusConflict:
		existing, err := s.findEntry(ctx, project, parent, name, "folder")
		if err != nil {
			return "", err
		}
		if existing == nil {
			return "", services.Wrap(services.ErrExternalTool, "osf", "create folder", fmt.Sprintf("Folder %s conflicts but is not listed", relDir), nil)
		}
		folderPath = existing.Attributes.Path
	default:
		return "", s.storageError("create folder", fmt.Sprintf("Folder %s", relDir), resp)
	}

	s.mu.Lock()
	s.folders[key] = folderPath
	s.mu.Unlock()
	return folderPath, nil
}

// findEntry lists a waterbutler folder and returns the entry matching name
// and kind, or nil when absent.
func (s *httpService) findEntry(ctx context.Context, project, folderPath, name, kind string) (*wbItem, error) {
	resp, err := s.do(ctx, http.MethodGet, s.waterURL(project, folderPath), nil, 0)
	if err != nil {
		return nil, services.Wrap(services.ErrExternalTool, "osf", "list folder", "Could not list project storage", err)
	}
	defer drain(resp)

	if resp.StatusCode != http.StatusOK {
		return nil, s.storageError("list folder", "Storage listing", resp)
	}
	var listing wbListing
	if err := json.NewDecoder(resp.Body).Decode(&listing); err != nil {
		return nil, services.Wrap(services.ErrExternalTool, "osf", "list folder", "Unreadable storage listing", err)
	}
	for i := range listing.Data {
		item := &listing.Data[i]
		if item.Attributes.Name == name && item.Attributes.Kind == kind {
			return item, nil
		}
	}
	return nil, nil
}

func (s *httpService) waterURL(project, wbPath string) string {
	if wbPath == "" {
		wbPath = "/"
	}
	return s.filesBase + "/resources/" + url.PathEscape(project) + "/providers/osfstorage" + wbPath
}

func (s *httpService) do(ctx context.Context, method, target string, body io.Reader, size int64) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Authorization", "Bearer "+s.token)
	req.Header.Set("User-Agent", "psychds-go/0.1.0")
	if body != nil && size > 0 {
		req.ContentLength = size
	}
	return s.client.Do(req)
}

func (s *httpService) storageError(operation, subject string, resp *http.Response) error {
	body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
	detail := strings.TrimSpace(string(body))
	if detail != "" {
		return services.Wrap(services.ErrExternalTool, "osf", operation, fmt.Sprintf("%s failed: storage returned %d: %s", subject, resp.StatusCode, detail), nil)
	}
	return services.Wrap(services.ErrExternalTool, "osf", operation, fmt.Sprintf("%s failed: storage returned %d", subject, resp.StatusCode), nil)
}

func drain(resp *http.Response) {
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
	resp.Body.Close()
}
