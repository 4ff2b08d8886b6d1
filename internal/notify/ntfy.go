package notify

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"jobscout/internal/model"
)

// Ensure NtfyNotifier implements both notifier interfaces.
var (
	_ model.Notifier       = (*NtfyNotifier)(nil)
	_ model.StatusNotifier = (*NtfyNotifier)(nil)
)

// messageGap spaces consecutive pushes so ntfy does not rate-limit a burst.
const messageGap = 500 * time.Millisecond

// NtfyNotifier sends push notifications through an ntfy server topic.
type NtfyNotifier struct {
	server     string
	topic      string
	digest     bool
	httpClient *http.Client
	logger     *slog.Logger
}

// NewNtfyNotifier returns a notifier that posts to server/topic. With digest
// set, a run's postings are batched into a single message.
func NewNtfyNotifier(server, topic string, digest bool, httpClient *http.Client, logger *slog.Logger) *NtfyNotifier {
	return &NtfyNotifier{
		server:     strings.TrimRight(server, "/"),
		topic:      topic,
		digest:     digest,
		httpClient: httpClient,
		logger:     logger,
	}
}

// Notify pushes each posting as a separate message, or one digest message
// when digest mode is on. Returns an error only if ALL messages fail;
// individual failures are logged.
func (n *NtfyNotifier) Notify(ctx context.Context, postings []model.Posting) error {
	if len(postings) == 0 {
		return nil
	}

	if n.digest {
		if err := n.sendMessage(ctx, digestTitle(len(postings)), digestBody(postings), "", "briefcase"); err != nil {
			return fmt.Errorf("send digest: %w", err)
		}
		n.logger.Info("ntfy digest sent", "postings", len(postings))
		return nil
	}

	failures := 0
	for i, p := range postings {
		if i > 0 {
			select {
			case <-time.After(messageGap):
			case <-ctx.Done():
				return ctx.Err()
			}
		}

		if err := n.sendMessage(ctx, "New job posting found", postingBody(p), p.URL, "briefcase"); err != nil {
			n.logger.Error("ntfy notification failed", "title", p.Title, "url", p.URL, "error", err)
			failures++
			continue
		}
		n.logger.Info("ntfy message sent", "title", p.Title, "source", p.Source)
	}

	if failures == len(postings) {
		return fmt.Errorf("all %d ntfy notifications failed", failures)
	}
	n.logger.Info("ntfy notifications complete", "sent", len(postings)-failures, "failed", failures)
	return nil
}

// NotifyStatus pushes a run status message, used when a run finds nothing new.
func (n *NtfyNotifier) NotifyStatus(ctx context.Context, message string) error {
	if err := n.sendMessage(ctx, "Job search complete", message, "", "search,x"); err != nil {
		return fmt.Errorf("send status: %w", err)
	}
	n.logger.Info("ntfy status sent")
	return nil
}

func (n *NtfyNotifier) sendMessage(ctx context.Context, title, body, click, tags string) error {
	resp, err := n.post(ctx, title, body, click, tags)
	if err != nil {
		return fmt.Errorf("post to ntfy: %w", err)
	}
	resp.Body.Close()

	if resp.StatusCode == http.StatusTooManyRequests {
		retryAfter := resp.Header.Get("Retry-After")
		secs, _ := strconv.Atoi(retryAfter)
		if secs <= 0 {
			secs = 1
		}
		n.logger.Warn("ntfy rate limited, retrying", "retry_after_secs", secs)
		select {
		case <-time.After(time.Duration(secs) * time.Second):
		case <-ctx.Done():
			return ctx.Err()
		}

		resp2, err := n.post(ctx, title, body, click, tags)
		if err != nil {
			return fmt.Errorf("post to ntfy (retry): %w", err)
		}
		resp2.Body.Close()

		if resp2.StatusCode != http.StatusOK {
			return fmt.Errorf("ntfy returned %d on retry", resp2.StatusCode)
		}
		return nil
	}

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("ntfy returned %d", resp.StatusCode)
	}
	return nil
}

func (n *NtfyNotifier) post(ctx context.Context, title, body, click, tags string) (*http.Response, error) {
	url := n.server + "/" + n.topic
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, strings.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Title", title)
	req.Header.Set("Tags", tags)
	if click != "" {
		req.Header.Set("Click", click)
	}
	return n.httpClient.Do(req)
}

// postingBody is the message text for one posting: its title plus the model
// summary when one was attached.
func postingBody(p model.Posting) string {
	body := p.Title
	if p.Company != "" {
		body += " (" + p.Company + ")"
	}
	if p.Enrichment != nil && p.Enrichment.Summary != "" {
		body += "\n" + p.Enrichment.Summary
	}
	return body
}

func digestTitle(count int) string {
	if count == 1 {
		return "1 new job posting"
	}
	return fmt.Sprintf("%d new job postings", count)
}

func digestBody(postings []model.Posting) string {
	lines := make([]string, 0, len(postings))
	for _, p := range postings {
		line := p.Title
		if p.Company != "" {
			line += " (" + p.Company + ")"
		}
		line += "\n" + p.URL
		lines = append(lines, line)
	}
	return strings.Join(lines, "\n\n")
}

// SendTestMessage sends a dummy posting to verify the integration works.
func SendTestMessage(ctx context.Context, n model.Notifier) error {
	return n.Notify(ctx, []model.Posting{{
		Source:     "test",
		Title:      "Test notification: integration verified",
		Company:    "Jobscout",
		URL:        "https://ntfy.sh",
		Discovered: time.Now(),
	}})
}
