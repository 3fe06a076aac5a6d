// Package metrics はPrometheusメトリクスの収集と公開を提供する。
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// ログイン結果のラベル値
const (
	LoginSuccess       = "success"
	LoginClientError   = "client_error"
	LoginUpstreamError = "upstream_error"
	LoginStoreError    = "store_error"
)

// ProviderUnknown は未登録プロバイダーへのリクエストを集計するラベル値。
// URLのパスをそのままラベルにするとシリーズが際限なく増えるため固定値にまとめる。
const ProviderUnknown = "unknown"

// セッション解決結果のラベル値
const (
	ResolveNoCookie    = "no_cookie"
	ResolveNotFound    = "not_found"
	ResolveExpired     = "expired"
	ResolveUnknownUser = "unknown_user"
	ResolveValid       = "valid"
	ResolveError       = "error"
)

// MetricsCollector はメトリクス収集のインターフェース。
// 認証サービスとセッション層から利用する。
type MetricsCollector interface {
	RecordLogin(provider, result string)
	RecordProviderLatency(provider string, duration time.Duration)
	RecordSessionResolve(result string)
	RecordLogout(tokenFound bool)
	RecordHTTPStatus(statusCode int)
}

// Collector はPrometheusメトリクスを収集する実装。
type Collector struct {
	logins          *prometheus.CounterVec
	providerLatency *prometheus.HistogramVec
	resolves        *prometheus.CounterVec
	logouts         *prometheus.CounterVec
	httpStatus      *prometheus.CounterVec
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		logins: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "sessionbridge_login_total",
			Help: "プロバイダー・結果別のログイン試行数",
		}, []string{"provider", "result"}),
		providerLatency: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "sessionbridge_provider_latency_seconds",
			Help:    "IdPとのトークン交換・プロフィール取得のレイテンシ（秒）",
			Buckets: prometheus.DefBuckets,
		}, []string{"provider"}),
		resolves: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "sessionbridge_session_resolve_total",
			Help: "結果別のセッション解決数",
		}, []string{"result"}),
		logouts: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "sessionbridge_logout_total",
			Help: "ログアウト数（トークンの有無別）",
		}, []string{"token_found"}),
		httpStatus: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "sessionbridge_http_status_total",
			Help: "HTTPステータスコード別のレスポンス数",
		}, []string{"status_code"}),
	}

	reg.MustRegister(
		c.logins,
		c.providerLatency,
		c.resolves,
		c.logouts,
		c.httpStatus,
	)

	return c
}

// RecordLogin はログイン結果を記録する。
func (c *Collector) RecordLogin(provider, result string) {
	c.logins.WithLabelValues(provider, result).Inc()
}

// RecordProviderLatency はIdPとの通信時間を記録する。
func (c *Collector) RecordProviderLatency(provider string, duration time.Duration) {
	c.providerLatency.WithLabelValues(provider).Observe(duration.Seconds())
}

// RecordSessionResolve はセッション解決結果を記録する。
func (c *Collector) RecordSessionResolve(result string) {
	c.resolves.WithLabelValues(result).Inc()
}

// RecordLogout はログアウトを記録する。
func (c *Collector) RecordLogout(tokenFound bool) {
	c.logouts.WithLabelValues(strconv.FormatBool(tokenFound)).Inc()
}

// RecordHTTPStatus はHTTPステータスコードを記録する。
func (c *Collector) RecordHTTPStatus(statusCode int) {
	c.httpStatus.WithLabelValues(strconv.Itoa(statusCode)).Inc()
}

// NopCollector は何も記録しないMetricsCollector。
// メトリクスを使わない構成とテストで使用する。
type NopCollector struct{}

func (NopCollector) RecordLogin(string, string)                   {}
func (NopCollector) RecordProviderLatency(string, time.Duration) {}
func (NopCollector) RecordSessionResolve(string)                  {}
func (NopCollector) RecordLogout(bool)                            {}
func (NopCollector) RecordHTTPStatus(int)                         {}

// Handler はPrometheusスクレイプ用のHTTPハンドラーを返す。
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}

// compile-time interface checks
var _ MetricsCollector = (*Collector)(nil)
var _ MetricsCollector = NopCollector{}
