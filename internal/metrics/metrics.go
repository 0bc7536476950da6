// Package metrics はPrometheusメトリクスの収集と公開を提供する。
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// MetricsCollector はメトリクス収集のインターフェース。
// サービス層、ミドルウェア、ワーカーから利用する。
type MetricsCollector interface {
	// RecordAccountEvent はアカウント操作（register, login等）の結果を記録する。
	// outcomeは"ok"またはエラーコード。
	RecordAccountEvent(event, outcome string)
	// RecordLinkEvent は短縮URL操作（shorten, resolve等）の結果を記録する。
	RecordLinkEvent(event, outcome string)
	// RecordAuditWrite は監査ログ書き込みの成否を記録する。
	RecordAuditWrite(action string, ok bool)
	// RecordTokensReaped は回収した期限切れトークン数を記録する。
	RecordTokensReaped(count int64)
	// RecordHTTPStatus はHTTPレスポンスのステータスコードを記録する。
	RecordHTTPStatus(statusCode int)
	// RecordRequestLatency はHTTPリクエストの処理時間を記録する。
	RecordRequestLatency(duration time.Duration)
}

// Collector はPrometheusメトリクスを収集する実装。
type Collector struct {
	accountEvents  *prometheus.CounterVec
	linkEvents     *prometheus.CounterVec
	auditWrites    *prometheus.CounterVec
	tokensReaped   prometheus.Counter
	httpStatus     *prometheus.CounterVec
	requestLatency prometheus.Histogram
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		accountEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "linkgate_account_events_total",
			Help: "アカウント操作の結果別件数",
		}, []string{"event", "outcome"}),
		linkEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "linkgate_link_events_total",
			Help: "短縮URL操作の結果別件数",
		}, []string{"event", "outcome"}),
		auditWrites: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "linkgate_audit_writes_total",
			Help: "監査ログ書き込みのアクション・成否別件数",
		}, []string{"action", "result"}),
		tokensReaped: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "linkgate_action_tokens_reaped_total",
			Help: "回収された期限切れアクショントークンの合計数",
		}),
		httpStatus: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "linkgate_http_status_total",
			Help: "HTTPステータスコード別のレスポンス数",
		}, []string{"status_code"}),
		requestLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "linkgate_http_request_duration_seconds",
			Help:    "HTTPリクエストの処理時間（秒）",
			Buckets: prometheus.DefBuckets,
		}),
	}

	reg.MustRegister(
		c.accountEvents,
		c.linkEvents,
		c.auditWrites,
		c.tokensReaped,
		c.httpStatus,
		c.requestLatency,
	)

	return c
}

// RecordAccountEvent はアカウント操作の結果を記録する。
func (c *Collector) RecordAccountEvent(event, outcome string) {
	c.accountEvents.WithLabelValues(event, outcome).Inc()
}

// RecordLinkEvent は短縮URL操作の結果を記録する。
func (c *Collector) RecordLinkEvent(event, outcome string) {
	c.linkEvents.WithLabelValues(event, outcome).Inc()
}

// RecordAuditWrite は監査ログ書き込みの成否を記録する。
func (c *Collector) RecordAuditWrite(action string, ok bool) {
	result := "ok"
	if !ok {
		result = "error"
	}
	c.auditWrites.WithLabelValues(action, result).Inc()
}

// RecordTokensReaped は回収したトークン数を記録する。
func (c *Collector) RecordTokensReaped(count int64) {
	c.tokensReaped.Add(float64(count))
}

// RecordHTTPStatus はHTTPステータスコードを記録する。
func (c *Collector) RecordHTTPStatus(statusCode int) {
	c.httpStatus.WithLabelValues(strconv.Itoa(statusCode)).Inc()
}

// RecordRequestLatency はリクエスト処理時間を記録する。
func (c *Collector) RecordRequestLatency(duration time.Duration) {
	c.requestLatency.Observe(duration.Seconds())
}

// Nop は何も記録しないMetricsCollector。メトリクス未設定時とテストで使う。
type Nop struct{}

func (Nop) RecordAccountEvent(string, string)  {}
func (Nop) RecordLinkEvent(string, string)     {}
func (Nop) RecordAuditWrite(string, bool)      {}
func (Nop) RecordTokensReaped(int64)           {}
func (Nop) RecordHTTPStatus(int)               {}
func (Nop) RecordRequestLatency(time.Duration) {}

var (
	_ MetricsCollector = (*Collector)(nil)
	_ MetricsCollector = Nop{}
)

// Handler はPrometheusスクレイプ用のHTTPハンドラーを返す。
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// SetupMetricsRoute はワーカープロセス用に/metricsと/healthを提供するHTTPハンドラーを返す。
// /healthはプロセスの生存のみを返し、healthcheckサブコマンドから参照される。
func SetupMetricsRoute(gatherer prometheus.Gatherer) http.Handler {
	mux := http.NewServeMux()
	mux.Handle("GET /metrics", Handler(gatherer))
	mux.HandleFunc("GET /health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"status":"ok"}`))
	})
	return mux
}
