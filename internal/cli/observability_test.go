package cli

import (
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/valter-silva-au/todo/internal/observability"
	"github.com/valter-silva-au/todo/pkg/models"
)

type metricsMock struct {
	calculateFn func(since time.Time) (*observability.Metrics, error)
}

func (m *metricsMock) Calculate(since time.Time) (*observability.Metrics, error) {
	return m.calculateFn(since)
}

type alertsMock struct {
	evaluateFn func() ([]observability.Alert, error)
}

func (m *alertsMock) Evaluate() ([]observability.Alert, error) {
	return m.evaluateFn()
}

type alertNotifierMock struct {
	sent []observability.Alert
	err  error
}

func (m *alertNotifierMock) NotifyAlerts(alerts []observability.Alert) error {
	m.sent = append(m.sent, alerts...)
	return m.err
}

func withObservability(t *testing.T, mc observability.MetricsCalculator, ae observability.AlertEngine, an observability.AlertNotifier) {
	t.Helper()
	origMC, origAE, origAN := MetricsCalc, AlertEngine, AlertNotifier
	MetricsCalc, AlertEngine, AlertNotifier = mc, ae, an
	t.Cleanup(func() {
		MetricsCalc, AlertEngine, AlertNotifier = origMC, origAE, origAN
		metricsJSON, metricsSince, alertsNotify = false, "7d", false
	})
}

func TestMetricsCmd_NilCalculator(t *testing.T) {
	withObservability(t, nil, nil, nil)

	_, err := runCmd(t, metricsCmd)
	if err == nil || !strings.Contains(err.Error(), "not initialized") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestMetricsCmd_Table(t *testing.T) {
	store := useTestStore(t)
	mustAdd(t, store, "Buy milk", testNow.Add(time.Hour))

	var gotSince time.Time
	withObservability(t, &metricsMock{calculateFn: func(since time.Time) (*observability.Metrics, error) {
		gotSince = since
		return &observability.Metrics{
			TasksCreated: 3, TasksCompleted: 1, EventCount: 5,
			Transitions: map[string]int{"Completed": 1},
		}, nil
	}}, nil, nil)
	metricsSince = "30d"

	out, err := runCmd(t, metricsCmd)
	if err != nil {
		t.Fatalf("metrics: %v", err)
	}
	if want := testNow.AddDate(0, 0, -30); !gotSince.Equal(want) {
		t.Errorf("since = %v, want %v", gotSince, want)
	}
	for _, want := range []string{"Tasks created:", "3", "Status transitions:", "Tasks by status now:", "Created:"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestMetricsCmd_JSON(t *testing.T) {
	useTestStore(t)
	withObservability(t, &metricsMock{calculateFn: func(time.Time) (*observability.Metrics, error) {
		return &observability.Metrics{TasksDeleted: 2, Transitions: map[string]int{}}, nil
	}}, nil, nil)
	metricsJSON = true

	out, err := runCmd(t, metricsCmd)
	if err != nil {
		t.Fatalf("metrics: %v", err)
	}
	var m observability.Metrics
	if err := json.Unmarshal([]byte(out), &m); err != nil {
		t.Fatalf("decoding %q: %v", out, err)
	}
	if m.TasksDeleted != 2 || len(m.CurrentByStatus) != len(models.AllStatuses) {
		t.Errorf("metrics = %+v", m)
	}
}

func TestMetricsCmd_BadSince(t *testing.T) {
	withObservability(t, &metricsMock{calculateFn: func(time.Time) (*observability.Metrics, error) {
		t.Fatal("Calculate should not be called")
		return nil, nil
	}}, nil, nil)
	metricsSince = "2w"

	if _, err := runCmd(t, metricsCmd); err == nil || !strings.Contains(err.Error(), "--since") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestAlertsCmd_NilEngine(t *testing.T) {
	withObservability(t, nil, nil, nil)

	_, err := runCmd(t, alertsCmd)
	if err == nil || !strings.Contains(err.Error(), "not initialized") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestAlertsCmd_NoAlerts(t *testing.T) {
	useTestStore(t)
	withObservability(t, nil, &alertsMock{evaluateFn: func() ([]observability.Alert, error) {
		return nil, nil
	}}, nil)

	out, err := runCmd(t, alertsCmd)
	if err != nil {
		t.Fatalf("alerts: %v", err)
	}
	if !strings.Contains(out, "No active alerts.") {
		t.Errorf("unexpected output %q", out)
	}
}

func TestAlertsCmd_WithAlertsAndNotify(t *testing.T) {
	useTestStore(t)
	alerts := []observability.Alert{{
		ID:          "overdue-abc",
		Condition:   observability.ConditionOverdue,
		Severity:    observability.SeverityHigh,
		Message:     `task "Buy milk" is overdue`,
		TaskID:      "abc",
		TriggeredAt: testNow,
	}}
	notifier := &alertNotifierMock{}
	withObservability(t, nil, &alertsMock{evaluateFn: func() ([]observability.Alert, error) {
		return alerts, nil
	}}, notifier)
	alertsNotify = true

	out, err := runCmd(t, alertsCmd)
	if err != nil {
		t.Fatalf("alerts: %v", err)
	}
	for _, want := range []string{"1 active alert(s)", "[HIGH]", "Buy milk", "Sent 1 alert(s)."} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	if len(notifier.sent) != 1 {
		t.Errorf("notifier got %d alerts, want 1", len(notifier.sent))
	}
}

func TestAlertsCmd_NotifyWithoutNotifier(t *testing.T) {
	useTestStore(t)
	withObservability(t, nil, &alertsMock{evaluateFn: func() ([]observability.Alert, error) {
		return []observability.Alert{{Severity: observability.SeverityLow, Message: "stale"}}, nil
	}}, nil)
	alertsNotify = true

	if _, err := runCmd(t, alertsCmd); err == nil || !strings.Contains(err.Error(), "no alert notifier") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestAlertsCmd_EvaluateError(t *testing.T) {
	useTestStore(t)
	withObservability(t, nil, &alertsMock{evaluateFn: func() ([]observability.Alert, error) {
		return nil, errors.New("event log unreadable")
	}}, nil)

	if _, err := runCmd(t, alertsCmd); err == nil || !strings.Contains(err.Error(), "event log unreadable") {
		t.Fatalf("unexpected error: %v", err)
	}
}
