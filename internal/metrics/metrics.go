package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// 问答与入库流水线的Prometheus指标
var (
	QueriesTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hr_queries_total",
			Help: "Total number of answered questions",
		},
		[]string{"status"}, // ok, degraded, no_results, error
	)

	QueryDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "hr_query_duration_seconds",
			Help:    "End to end duration of question answering",
			Buckets: prometheus.DefBuckets,
		},
	)

	ModelCallsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "hr_model_calls_total",
			Help: "Total number of embedding and chat model calls",
		},
		[]string{"type", "status"}, // type: embedding, chat
	)

	DocumentsIndexedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "hr_documents_indexed_total",
			Help: "Total number of policy documents indexed",
		},
	)

	ChunksIndexedTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "hr_chunks_indexed_total",
			Help: "Total number of chunks written to the vector index",
		},
	)
)

// Handler 返回Prometheus指标的HTTP处理器
func Handler() http.Handler {
	return promhttp.Handler()
}
