// Package metrics はPrometheusメトリクスの収集と公開を提供する。
package metrics

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Collector はPrometheusメトリクスを収集する実装。
type Collector struct {
	remoteCalls     *prometheus.CounterVec
	remoteLatency   prometheus.Histogram
	accountsCreated prometheus.Counter
	withdrawals     prometheus.Counter
}

// NewCollector は新しいCollectorを生成し、指定されたレジストリにメトリクスを登録する。
func NewCollector(reg prometheus.Registerer) *Collector {
	c := &Collector{
		remoteCalls: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "validator_node_remote_calls_total",
			Help: "サービスノード呼び出しの操作・結果別の合計数",
		}, []string{"operation", "outcome"}),
		remoteLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "validator_node_remote_latency_seconds",
			Help:    "サービスノード呼び出しのレイテンシ（秒）",
			Buckets: prometheus.DefBuckets,
		}),
		accountsCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "validator_node_accounts_created_total",
			Help: "作成されたアカウントの合計数",
		}),
		withdrawals: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "validator_node_withdrawals_total",
			Help: "成功した出金の合計数",
		}),
	}

	reg.MustRegister(
		c.remoteCalls,
		c.remoteLatency,
		c.accountsCreated,
		c.withdrawals,
	)

	return c
}

// RecordServiceNodeCall はサービスノード呼び出しの結果とレイテンシを記録する。
func (c *Collector) RecordServiceNodeCall(operation string, outcome string, duration time.Duration) {
	c.remoteCalls.WithLabelValues(operation, outcome).Inc()
	c.remoteLatency.Observe(duration.Seconds())
}

// RecordAccountCreated はアカウント作成を記録する。
func (c *Collector) RecordAccountCreated() {
	c.accountsCreated.Inc()
}

// RecordWithdrawal は成功した出金を記録する。
func (c *Collector) RecordWithdrawal() {
	c.withdrawals.Inc()
}

// Handler はPrometheusスクレイプ用のHTTPハンドラーを返す。
func Handler(gatherer prometheus.Gatherer) http.Handler {
	return promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{})
}
