package teemap

import (
	"github.com/annel0/teemap/internal/mapitem"
	"github.com/prometheus/client_golang/prometheus"
)

// Причины мягкой деградации при загрузке.
const (
	degradedTeleMissing      = "tele_missing"
	degradedSpeedupMissing   = "speedup_missing"
	degradedQuadCount        = "quad_count"
	degradedUnsupportedLayer = "unsupported_layer"
	degradedLayerRange       = "layer_range"
)

// Metrics инкапсулирует Prometheus-метрики загрузчика карт.
type Metrics struct {
	itemsDecoded *prometheus.CounterVec
	decodeErrors *prometheus.CounterVec
	degraded     *prometheus.CounterVec
	blockBytes   *prometheus.CounterVec
	cacheHits    prometheus.Counter
	loads        prometheus.Counter
	loadSeconds  prometheus.Histogram
}

// NewMetrics создаёт метрики и регистрирует их в reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		itemsDecoded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "teemap",
			Name:      "items_decoded_total",
			Help:      "Количество успешно декодированных элементов по типам.",
		}, []string{"kind"}),
		decodeErrors: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "teemap",
			Name:      "decode_errors_total",
			Help:      "Количество элементов, которые не удалось декодировать.",
		}, []string{"kind"}),
		degraded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "teemap",
			Name:      "degraded_total",
			Help:      "Случаи, когда необязательные данные отсутствовали и были пропущены.",
		}, []string{"reason"}),
		blockBytes: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "teemap",
			Name:      "block_bytes_total",
			Help:      "Байты прочитанных блоков данных до и после распаковки.",
		}, []string{"stage"}),
		cacheHits: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "teemap",
			Name:      "block_cache_hits_total",
			Help:      "Блоки, взятые из кеша без распаковки.",
		}),
		loads: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "teemap",
			Name:      "loads_total",
			Help:      "Количество завершённых загрузок карт.",
		}),
		loadSeconds: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: "teemap",
			Name:      "load_duration_seconds",
			Help:      "Длительность полного прохода декодирования карты.",
			Buckets:   prometheus.ExponentialBuckets(0.001, 2, 12),
		}),
	}

	reg.MustRegister(m.itemsDecoded, m.decodeErrors, m.degraded, m.blockBytes, m.cacheHits, m.loads, m.loadSeconds)
	return m
}

func (m *Metrics) decoded(kind mapitem.Kind) {
	if m == nil {
		return
	}
	m.itemsDecoded.WithLabelValues(kind.String()).Inc()
}

func (m *Metrics) failed(kind mapitem.Kind) {
	if m == nil {
		return
	}
	m.decodeErrors.WithLabelValues(kind.String()).Inc()
}

func (m *Metrics) degrade(reason string) {
	if m == nil {
		return
	}
	m.degraded.WithLabelValues(reason).Inc()
}

func (m *Metrics) finish(stats mapitem.ResolverStats, seconds float64) {
	if m == nil {
		return
	}
	m.blockBytes.WithLabelValues("compressed").Add(float64(stats.CompressedBytes))
	m.blockBytes.WithLabelValues("decompressed").Add(float64(stats.DecompressedBytes))
	m.cacheHits.Add(float64(stats.CacheHits))
	m.loads.Inc()
	m.loadSeconds.Observe(seconds)
}
