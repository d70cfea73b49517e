// Package notify delivers run summaries to a webhook chat channel.
// Delivery is fire-and-forget: a failed notification is logged and
// never aborts or fails a batch.
package notify

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog/log"

	"github.com/yishe-labs/relay/pkg/models"
)

// Notifier sends one text message per run. A nil Notifier or an empty
// webhook URL disables notification entirely.
type Notifier struct {
	http *resty.Client
	url  string
}

func New(client *resty.Client, webhookURL string) *Notifier {
	return &Notifier{http: client, url: webhookURL}
}

type textMessage struct {
	MsgType string `json:"msg_type"`
	Content struct {
		Text string `json:"text"`
	} `json:"content"`
}

// Send posts a plain text message. Errors are logged, never returned.
func (n *Notifier) Send(ctx context.Context, text string) {
	if n == nil || n.url == "" {
		log.Debug().Msg("webhook not configured, skipping notification")
		return
	}

	var msg textMessage
	msg.MsgType = "text"
	msg.Content.Text = text

	resp, err := n.http.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(msg).
		Post(n.url)
	if err != nil {
		log.Warn().Err(err).Msg("webhook notification failed")
		return
	}
	if resp.StatusCode() >= 400 {
		log.Warn().Int("status", resp.StatusCode()).Msg("webhook notification rejected")
	}
}

// SendSummary formats and sends the run summary message.
func (n *Notifier) SendSummary(ctx context.Context, summary models.RunSummary) {
	var b strings.Builder
	fmt.Fprintf(&b, "Relay run finished: %s\n\n", summary.Source)
	fmt.Fprintf(&b, "Processed: %d items\n", summary.Total())
	fmt.Fprintf(&b, "Uploaded: %d\n", summary.Succeeded)
	fmt.Fprintf(&b, "Failed: %d\n", summary.Failed)
	fmt.Fprintf(&b, "Skipped: %d\n", summary.Skipped)
	fmt.Fprintf(&b, "Duration: %s", summary.Duration.Round(time.Second))
	n.Send(ctx, b.String())
}

// SendFailure reports a run that aborted before completing the source.
func (n *Notifier) SendFailure(ctx context.Context, source string, reason string, summary models.RunSummary) {
	var b strings.Builder
	fmt.Fprintf(&b, "Relay run failed: %s\n\n", source)
	fmt.Fprintf(&b, "Reason: %s\n", reason)
	fmt.Fprintf(&b, "Processed before abort: %d (uploaded %d, failed %d)",
		summary.Total(), summary.Succeeded, summary.Failed)
	n.Send(ctx, b.String())
}
