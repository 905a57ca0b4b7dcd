package observability

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/valter-silva-au/todo/internal/core"
	"go.uber.org/zap"
)

// AlertNotifier sends alert summaries to an external channel.
type AlertNotifier interface {
	NotifyAlerts(alerts []Alert) error
}

// SlackNotifier posts to a Slack incoming webhook. It sends alert summaries
// and, as a core.Notifier, forwards error notices. Success notices are not
// sent.
type SlackNotifier struct {
	webhookURL string
	client     *http.Client
	logger     *zap.Logger
}

// NewSlackNotifier creates a SlackNotifier for webhookURL. logger may be nil.
func NewSlackNotifier(webhookURL string, logger *zap.Logger) *SlackNotifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SlackNotifier{
		webhookURL: webhookURL,
		client:     &http.Client{Timeout: 10 * time.Second},
		logger:     logger.Named("slack"),
	}
}

type slackMessage struct {
	Blocks []slackBlock `json:"blocks"`
}

type slackBlock struct {
	Type string     `json:"type"`
	Text *slackText `json:"text,omitempty"`
}

type slackText struct {
	Type string `json:"type"`
	Text string `json:"text"`
}

// NotifyAlerts returns nil without a request when alerts is empty.
func (s *SlackNotifier) NotifyAlerts(alerts []Alert) error {
	if len(alerts) == 0 {
		return nil
	}
	return s.post(buildAlertMessage(alerts))
}

func (s *SlackNotifier) Notify(message string, kind core.NotificationKind) {
	if kind != core.NotifyError {
		return
	}
	msg := slackMessage{Blocks: []slackBlock{{
		Type: "section",
		Text: &slackText{Type: "mrkdwn", Text: "\U0001f534 *todo*: " + message},
	}}}
	if err := s.post(msg); err != nil {
		s.logger.Warn("sending notice to slack failed", zap.String("message", message), zap.Error(err))
	}
}

func (s *SlackNotifier) post(msg slackMessage) error {
	body, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshaling slack message: %w", err)
	}

	resp, err := s.client.Post(s.webhookURL, "application/json", bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("posting to slack webhook: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("slack webhook returned status %d", resp.StatusCode)
	}
	return nil
}

func buildAlertMessage(alerts []Alert) slackMessage {
	blocks := []slackBlock{{
		Type: "header",
		Text: &slackText{Type: "plain_text", Text: "todo Alert Summary"},
	}}

	for i, alert := range alerts {
		if i > 0 {
			blocks = append(blocks, slackBlock{Type: "divider"})
		}
		text := fmt.Sprintf("%s *[%s]* %s\n_%s_",
			severityEmoji(alert.Severity),
			strings.ToUpper(string(alert.Severity)),
			alert.Message,
			alert.TriggeredAt.Format("2006-01-02 15:04 UTC"),
		)
		blocks = append(blocks, slackBlock{
			Type: "section",
			Text: &slackText{Type: "mrkdwn", Text: text},
		})
	}
	return slackMessage{Blocks: blocks}
}

func severityEmoji(severity AlertSeverity) string {
	switch severity {
	case SeverityHigh:
		return "\U0001f534"
	case SeverityMedium:
		return "\U0001f7e1"
	case SeverityLow:
		return "\U0001f535"
	default:
		return "❓"
	}
}

var (
	successNoticeStyle = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("42"))
	errorNoticeStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("196"))
)

// ConsoleNotifier prints notices to a writer, one per line.
type ConsoleNotifier struct {
	mu sync.Mutex
	w  io.Writer
}

func NewConsoleNotifier(w io.Writer) *ConsoleNotifier {
	return &ConsoleNotifier{w: w}
}

// SetOutput redirects later notices to w and returns the previous writer.
func (c *ConsoleNotifier) SetOutput(w io.Writer) io.Writer {
	c.mu.Lock()
	defer c.mu.Unlock()
	prev := c.w
	c.w = w
	return prev
}

func (c *ConsoleNotifier) Notify(message string, kind core.NotificationKind) {
	c.mu.Lock()
	defer c.mu.Unlock()
	_, _ = fmt.Fprintln(c.w, RenderNotice(message, kind))
}

// RenderNotice styles a notice for terminal display.
func RenderNotice(message string, kind core.NotificationKind) string {
	if kind == core.NotifyError {
		return errorNoticeStyle.Render("✗ " + message)
	}
	return successNoticeStyle.Render("✓ " + message)
}

// MultiNotifier fans a notice out to every notifier in order.
type MultiNotifier []core.Notifier

func (m MultiNotifier) Notify(message string, kind core.NotificationKind) {
	for _, n := range m {
		if n != nil {
			n.Notify(message, kind)
		}
	}
}

// RecordingNotifier keeps the most recent notice. The board uses it to show
// the outcome of the last action.
type RecordingNotifier struct {
	mu      sync.Mutex
	message string
	kind    core.NotificationKind
}

func (r *RecordingNotifier) Notify(message string, kind core.NotificationKind) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.message, r.kind = message, kind
}

// Last returns and clears the most recent notice.
func (r *RecordingNotifier) Last() (string, core.NotificationKind, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.message == "" {
		return "", "", false
	}
	msg, kind := r.message, r.kind
	r.message, r.kind = "", ""
	return msg, kind, true
}
