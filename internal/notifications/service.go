package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/psych-ds/psychds-r-sub001/internal/config"
)

const userAgent = "psychds-go/0.1.0"

// Service defines the notification surface exposed to wizard components.
type Service interface {
	WizardStarted(ctx context.Context, url string) error
	ValidationCompleted(ctx context.Context, name string, valid bool, failed []string) error
	PublishCompleted(ctx context.Context, name, project string, files int) error
	PublishFailed(ctx context.Context, name, errText string) error
	TestNotification(ctx context.Context) error
}

// NewService builds a notification service backed by ntfy when configured.
// When no ntfy topic is configured, a noop implementation is returned.
func NewService(cfg *config.Config) Service {
	topic := strings.TrimSpace(cfg.Notifications.NtfyTopic)
	if topic == "" {
		return noopService{}
	}

	base := strings.TrimRight(strings.TrimSpace(cfg.Notifications.NtfyBaseURL), "/")
	if base == "" {
		base = "https://ntfy.sh"
	}
	timeout := time.Duration(cfg.Notifications.RequestTimeout) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	return &ntfyService{
		endpoint:   base + "/" + topic,
		client:     &http.Client{Timeout: timeout},
		validation: cfg.Notifications.Validation,
		publish:    cfg.Notifications.Publish,
		errors:     cfg.Notifications.Errors,
	}
}

type payload struct {
	title    string
	message  string
	tags     []string
	priority string
}

type ntfyService struct {
	endpoint   string
	client     *http.Client
	validation bool
	publish    bool
	errors     bool
}

func (n *ntfyService) WizardStarted(ctx context.Context, url string) error {
	url = strings.TrimSpace(url)
	data := payload{
		title:   "Psych-DS - Wizard Ready",
		message: fmt.Sprintf("Wizard running at %s", url),
		tags:    []string{"psychds", "wizard", "started"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) ValidationCompleted(ctx context.Context, name string, valid bool, failed []string) error {
	if !n.validation {
		return nil
	}
	name = strings.TrimSpace(name)
	if valid {
		data := payload{
			title:   "Psych-DS - Dataset Valid",
			message: fmt.Sprintf("✅ Dataset valid: %s", name),
			tags:    []string{"psychds", "validation", "passed"},
		}
		return n.send(ctx, data)
	}
	detail := strings.Join(failed, ", ")
	if detail == "" {
		detail = "see wizard for details"
	}
	data := payload{
		title:    "Psych-DS - Validation Failed",
		message:  fmt.Sprintf("Validation failed for %s: %s", name, detail),
		tags:     []string{"psychds", "validation", "failed"},
		priority: "high",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) PublishCompleted(ctx context.Context, name, project string, files int) error {
	if !n.publish {
		return nil
	}
	data := payload{
		title:    "Psych-DS - Published",
		message:  fmt.Sprintf("📤 Published %s to project %s (%d file(s))", strings.TrimSpace(name), strings.TrimSpace(project), files),
		tags:     []string{"psychds", "publish", "completed"},
		priority: "high",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) PublishFailed(ctx context.Context, name, errText string) error {
	if !n.errors {
		return nil
	}
	errText = strings.TrimSpace(errText)
	if errText == "" {
		errText = "unknown"
	}
	data := payload{
		title:    "Psych-DS - Publish Failed",
		message:  fmt.Sprintf("❌ Publish failed for %s: %s", strings.TrimSpace(name), errText),
		tags:     []string{"psychds", "publish", "error"},
		priority: "high",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) TestNotification(ctx context.Context) error {
	data := payload{
		title:    "Psych-DS - Test",
		message:  "🧪 Notification system test",
		tags:     []string{"psychds", "test"},
		priority: "low",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) send(ctx context.Context, data payload) error {
	if n == nil || n.client == nil {
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, strings.NewReader(data.message))
	if err != nil {
		return fmt.Errorf("build ntfy request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	if data.title != "" {
		req.Header.Set("Title", data.title)
	}
	if len(data.tags) > 0 {
		req.Header.Set("Tags", strings.Join(data.tags, ","))
	}
	if data.priority != "" && data.priority != "default" {
		req.Header.Set("Priority", data.priority)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send ntfy notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("ntfy returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

type noopService struct{}

func (noopService) WizardStarted(context.Context, string) error                       { return nil }
func (noopService) ValidationCompleted(context.Context, string, bool, []string) error { return nil }
func (noopService) PublishCompleted(context.Context, string, string, int) error       { return nil }
func (noopService) PublishFailed(context.Context, string, string) error               { return nil }
func (noopService) TestNotification(context.Context) error                            { return nil }
