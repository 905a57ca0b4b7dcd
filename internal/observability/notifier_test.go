package observability

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/valter-silva-au/todo/internal/core"
)

// captureServer records the body of every request it receives.
type captureServer struct {
	*httptest.Server
	mu     sync.Mutex
	bodies []string
}

func newCaptureServer(t *testing.T, status int) *captureServer {
	t.Helper()
	cs := &captureServer{}
	cs.Server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		cs.mu.Lock()
		cs.bodies = append(cs.bodies, string(body))
		cs.mu.Unlock()
		w.WriteHeader(status)
	}))
	t.Cleanup(cs.Close)
	return cs
}

func (cs *captureServer) requests() []string {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	return append([]string(nil), cs.bodies...)
}

func TestSlackNotifier_NoAlerts(t *testing.T) {
	srv := newCaptureServer(t, http.StatusOK)
	n := NewSlackNotifier(srv.URL, nil)

	if err := n.NotifyAlerts(nil); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if err := n.NotifyAlerts([]Alert{}); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}
	if len(srv.requests()) != 0 {
		t.Fatal("expected no HTTP request for empty alerts")
	}
}

func TestSlackNotifier_SendsAlerts(t *testing.T) {
	srv := newCaptureServer(t, http.StatusOK)
	n := NewSlackNotifier(srv.URL, nil)

	alerts := []Alert{
		{ID: "overdue-a", Condition: ConditionOverdue, Severity: SeverityHigh, Message: `"Buy milk" is overdue`, TriggeredAt: time.Date(2026, 1, 15, 10, 30, 0, 0, time.UTC)},
		{ID: "stale-b", Condition: ConditionStaleInProgress, Severity: SeverityLow, Message: `"Call bank" is stale`, TriggeredAt: time.Date(2026, 1, 15, 10, 30, 0, 0, time.UTC)},
	}
	if err := n.NotifyAlerts(alerts); err != nil {
		t.Fatalf("expected no error, got %v", err)
	}

	reqs := srv.requests()
	if len(reqs) != 1 {
		t.Fatalf("expected 1 request, got %d", len(reqs))
	}

	var msg slackMessage
	if err := json.Unmarshal([]byte(reqs[0]), &msg); err != nil {
		t.Fatalf("unmarshaling request body: %v", err)
	}

	// header + section + divider + section
	wantTypes := []string{"header", "section", "divider", "section"}
	if len(msg.Blocks) != len(wantTypes) {
		t.Fatalf("expected %d blocks, got %d", len(wantTypes), len(msg.Blocks))
	}
	for i, typ := range wantTypes {
		if msg.Blocks[i].Type != typ {
			t.Errorf("block %d type = %s, want %s", i, msg.Blocks[i].Type, typ)
		}
	}
	if msg.Blocks[0].Text.Text != "todo Alert Summary" {
		t.Errorf("header = %q", msg.Blocks[0].Text.Text)
	}
	if !strings.Contains(msg.Blocks[1].Text.Text, "\U0001f534 *[HIGH]*") {
		t.Errorf("section 1 = %q", msg.Blocks[1].Text.Text)
	}
	if !strings.Contains(msg.Blocks[3].Text.Text, "\U0001f535 *[LOW]*") {
		t.Errorf("section 2 = %q", msg.Blocks[3].Text.Text)
	}
	if !strings.Contains(reqs[0], "2026-01-15 10:30 UTC") {
		t.Error("expected body to contain triggered time")
	}
}

func TestSlackNotifier_ServerError(t *testing.T) {
	srv := newCaptureServer(t, http.StatusInternalServerError)
	n := NewSlackNotifier(srv.URL, nil)

	err := n.NotifyAlerts([]Alert{{ID: "x", Severity: SeverityHigh, Message: "x", TriggeredAt: time.Now().UTC()}})
	if err == nil {
		t.Fatal("expected error for 500 response, got nil")
	}
	if !strings.Contains(err.Error(), "500") {
		t.Errorf("expected error to contain status code 500, got: %s", err.Error())
	}
}

func TestSlackNotifier_ForwardsOnlyErrorNotices(t *testing.T) {
	srv := newCaptureServer(t, http.StatusOK)
	n := NewSlackNotifier(srv.URL, nil)

	n.Notify(core.MsgTaskAdded, core.NotifySuccess)
	n.Notify(core.MsgSaveFailed, core.NotifyError)

	reqs := srv.requests()
	if len(reqs) != 1 {
		t.Fatalf("expected 1 request, got %d", len(reqs))
	}
	if !strings.Contains(reqs[0], core.MsgSaveFailed) {
		t.Errorf("request body %q does not contain the notice", reqs[0])
	}
}

func TestSlackNotifier_NoticeFailureIsSwallowed(t *testing.T) {
	srv := newCaptureServer(t, http.StatusBadGateway)
	n := NewSlackNotifier(srv.URL, nil)

	// Must not panic or block.
	n.Notify(core.MsgSaveFailed, core.NotifyError)
	if len(srv.requests()) != 1 {
		t.Fatal("expected the notice to be attempted once")
	}
}

func TestConsoleNotifier(t *testing.T) {
	var buf bytes.Buffer
	n := NewConsoleNotifier(&buf)

	n.Notify(core.MsgTaskAdded, core.NotifySuccess)
	n.Notify(core.MsgSaveFailed, core.NotifyError)

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 2 {
		t.Fatalf("expected 2 lines, got %q", buf.String())
	}
	if !strings.Contains(lines[0], "✓ "+core.MsgTaskAdded) {
		t.Errorf("line 1 = %q", lines[0])
	}
	if !strings.Contains(lines[1], "✗ "+core.MsgSaveFailed) {
		t.Errorf("line 2 = %q", lines[1])
	}
}

func TestMultiNotifier_FansOut(t *testing.T) {
	a, b := &RecordingNotifier{}, &RecordingNotifier{}
	MultiNotifier{a, nil, b}.Notify("hello", core.NotifySuccess)

	for i, r := range []*RecordingNotifier{a, b} {
		msg, kind, ok := r.Last()
		if !ok || msg != "hello" || kind != core.NotifySuccess {
			t.Errorf("notifier %d got (%q, %q, %v)", i, msg, kind, ok)
		}
	}
}

func TestRecordingNotifier_LastClears(t *testing.T) {
	r := &RecordingNotifier{}
	if _, _, ok := r.Last(); ok {
		t.Fatal("expected no notice")
	}
	r.Notify("first", core.NotifySuccess)
	r.Notify("second", core.NotifyError)

	msg, kind, ok := r.Last()
	if !ok || msg != "second" || kind != core.NotifyError {
		t.Errorf("Last() = (%q, %q, %v)", msg, kind, ok)
	}
	if _, _, ok := r.Last(); ok {
		t.Error("Last() should clear the notice")
	}
}
