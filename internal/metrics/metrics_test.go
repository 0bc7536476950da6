package metrics

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
)

// findMetric は指定名・ラベルのメトリクスを返す。
func findMetric(t *testing.T, reg *prometheus.Registry, name string, labels map[string]string) *dto.Metric {
	t.Helper()
	families, err := reg.Gather()
	if err != nil {
		t.Fatalf("failed to gather metrics: %v", err)
	}
	for _, mf := range families {
		if mf.GetName() != name {
			continue
		}
		for _, m := range mf.GetMetric() {
			if labelsMatch(m, labels) {
				return m
			}
		}
	}
	return nil
}

func labelsMatch(m *dto.Metric, labels map[string]string) bool {
	matched := 0
	for _, lp := range m.GetLabel() {
		if v, ok := labels[lp.GetName()]; ok && v == lp.GetValue() {
			matched++
		}
	}
	return matched == len(labels)
}

// TestNewCollector_ReturnsNonNil はCollectorが正常に生成されることを検証する。
func TestNewCollector_ReturnsNonNil(t *testing.T) {
	if c := NewCollector(prometheus.NewRegistry()); c == nil {
		t.Fatal("expected non-nil Collector")
	}
}

// TestRecordAccountEvent_LabelsByOutcome はアカウント操作が結果別に集計されることを検証する。
func TestRecordAccountEvent_LabelsByOutcome(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordAccountEvent("login", "ok")
	c.RecordAccountEvent("login", "ok")
	c.RecordAccountEvent("login", "WRONG_CREDENTIAL")

	ok := findMetric(t, reg, "linkgate_account_events_total", map[string]string{"event": "login", "outcome": "ok"})
	if ok == nil || ok.GetCounter().GetValue() != 2 {
		t.Errorf("expected login/ok = 2, got %v", ok)
	}
	ng := findMetric(t, reg, "linkgate_account_events_total", map[string]string{"event": "login", "outcome": "WRONG_CREDENTIAL"})
	if ng == nil || ng.GetCounter().GetValue() != 1 {
		t.Errorf("expected login/WRONG_CREDENTIAL = 1, got %v", ng)
	}
}

// TestRecordLinkEvent_IncrementsCounter は短縮URL操作カウンタが増加することを検証する。
func TestRecordLinkEvent_IncrementsCounter(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordLinkEvent("shorten", "CODE_TAKEN")

	m := findMetric(t, reg, "linkgate_link_events_total", map[string]string{"event": "shorten", "outcome": "CODE_TAKEN"})
	if m == nil || m.GetCounter().GetValue() != 1 {
		t.Errorf("expected shorten/CODE_TAKEN = 1, got %v", m)
	}
}

// TestRecordAuditWrite_Result は監査ログ書き込みの成否ラベルを検証する。
func TestRecordAuditWrite_Result(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordAuditWrite("LOGIN", true)
	c.RecordAuditWrite("LOGIN", false)

	if m := findMetric(t, reg, "linkgate_audit_writes_total", map[string]string{"action": "LOGIN", "result": "ok"}); m == nil {
		t.Error("expected LOGIN/ok metric")
	}
	if m := findMetric(t, reg, "linkgate_audit_writes_total", map[string]string{"action": "LOGIN", "result": "error"}); m == nil {
		t.Error("expected LOGIN/error metric")
	}
}

// TestRecordTokensReaped_Adds は回収トークン数が加算されることを検証する。
func TestRecordTokensReaped_Adds(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordTokensReaped(3)
	c.RecordTokensReaped(4)

	m := findMetric(t, reg, "linkgate_action_tokens_reaped_total", nil)
	if m == nil || m.GetCounter().GetValue() != 7 {
		t.Errorf("expected 7 reaped tokens, got %v", m)
	}
}

// TestRecordHTTPStatus_ByStatusCode はステータスコード別に集計されることを検証する。
func TestRecordHTTPStatus_ByStatusCode(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordHTTPStatus(302)
	c.RecordHTTPStatus(404)
	c.RecordHTTPStatus(404)

	m := findMetric(t, reg, "linkgate_http_status_total", map[string]string{"status_code": "404"})
	if m == nil || m.GetCounter().GetValue() != 2 {
		t.Errorf("expected 404 = 2, got %v", m)
	}
}

// TestRecordRequestLatency_Observes はヒストグラムに観測値が記録されることを検証する。
func TestRecordRequestLatency_Observes(t *testing.T) {
	reg := prometheus.NewRegistry()
	c := NewCollector(reg)

	c.RecordRequestLatency(150 * time.Millisecond)

	m := findMetric(t, reg, "linkgate_http_request_duration_seconds", nil)
	if m == nil || m.GetHistogram().GetSampleCount() != 1 {
		t.Errorf("expected 1 sample, got %v", m)
	}
}

// TestNop_DoesNotPanic はNopが安全に呼び出せることを検証する。
func TestNop_DoesNotPanic(t *testing.T) {
	var c MetricsCollector = Nop{}
	c.RecordAccountEvent("register", "ok")
	c.RecordLinkEvent("resolve", "ok")
	c.RecordAuditWrite("SHOW", true)
	c.RecordTokensReaped(1)
	c.RecordHTTPStatus(200)
	c.RecordRequestLatency(time.Millisecond)
}
