package notifications

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"pagesmith/internal/config"
)

const userAgent = "pagesmith/0.1"

// RunCounts are the figures reported when a run finishes.
type RunCounts struct {
	Processed int
	Skipped   int
	Failed    int
	Duration  time.Duration
}

// Service defines the notification surface used by the CLI.
type Service interface {
	NotifyRunStarted(ctx context.Context, images int) error
	NotifyRunCompleted(ctx context.Context, counts RunCounts) error
	NotifyError(ctx context.Context, err error, context string) error
	TestNotification(ctx context.Context) error
}

// NewService builds a notification service backed by ntfy when configured.
// When no ntfy topic is configured, a noop implementation is returned.
func NewService(cfg *config.Config) Service {
	topic := strings.TrimSpace(cfg.Notifications.NtfyTopic)
	if topic == "" {
		return noopService{}
	}

	timeout := cfg.NotifyTimeout()
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &ntfyService{
		endpoint: topic,
		client:   &http.Client{Timeout: timeout},
	}
}

type payload struct {
	title    string
	message  string
	tags     []string
	priority string
}

type ntfyService struct {
	endpoint string
	client   *http.Client
}

func (n *ntfyService) NotifyRunStarted(ctx context.Context, images int) error {
	data := payload{
		title:   "pagesmith - Run Started",
		message: fmt.Sprintf("Processing %d source image(s)", images),
		tags:    []string{"pagesmith", "run", "started"},
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyRunCompleted(ctx context.Context, counts RunCounts) error {
	duration := counts.Duration.Round(time.Second)
	if duration < 0 {
		duration = 0
	}

	data := payload{
		title: "pagesmith - Run Complete",
		message: fmt.Sprintf("%d published, %d skipped in %s",
			counts.Processed, counts.Skipped, duration),
		tags: []string{"pagesmith", "run", "completed"},
	}
	if counts.Failed > 0 {
		data.title = "pagesmith - Run Complete (with errors)"
		data.message = fmt.Sprintf("%d published, %d skipped, %d failed in %s",
			counts.Processed, counts.Skipped, counts.Failed, duration)
		data.tags = []string{"pagesmith", "run", "warning"}
	}
	return n.send(ctx, data)
}

func (n *ntfyService) NotifyError(ctx context.Context, err error, contextLabel string) error {
	var builder strings.Builder
	builder.WriteString("Error")
	if contextLabel = strings.TrimSpace(contextLabel); contextLabel != "" {
		builder.WriteString(" during ")
		builder.WriteString(contextLabel)
	}
	builder.WriteString(": ")
	if err != nil {
		builder.WriteString(strings.TrimSpace(err.Error()))
	} else {
		builder.WriteString("unknown")
	}

	data := payload{
		title:    "pagesmith - Error",
		message:  builder.String(),
		tags:     []string{"pagesmith", "error", "alert"},
		priority: "high",
	}
	return n.send(ctx, data)
}

func (n *ntfyService) TestNotification(ctx context.Context) error {
	data := payload{
		title:    "pagesmith - Test",
		message:  "Notification system test",
		tags:     []string{"pagesmith", "test"},
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

func (noopService) NotifyRunStarted(context.Context, int) error         { return nil }
func (noopService) NotifyRunCompleted(context.Context, RunCounts) error { return nil }
func (noopService) NotifyError(context.Context, error, string) error    { return nil }
func (noopService) TestNotification(context.Context) error              { return nil }
