package metrics

import (
	"time"

	"github.com/goodnatureofminers/blockinsight7000-txcodec/internal/codecerr"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	codecDecodeTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "blockinsight7000",
		Subsystem: "txcodec",
		Name:      "decode_total",
		Help:      "Count of transaction decode attempts.",
	}, []string{"network", "envelope", "status"})

	codecDecodeDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "blockinsight7000",
		Subsystem: "txcodec",
		Name:      "decode_duration_seconds",
		Help:      "Duration of decoding a single transaction.",
		Buckets:   prometheus.ExponentialBuckets(0.000001, 4, 10), // 1µs..262ms
	}, []string{"network", "envelope", "status"})

	codecDecodeBytes = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "blockinsight7000",
		Subsystem: "txcodec",
		Name:      "decode_bytes",
		Help:      "Size of decoded raw transactions.",
		Buckets:   prometheus.ExponentialBuckets(64, 2, 14), // 64B..512KiB
	}, []string{"network", "envelope"})

	codecBatchTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Namespace: "blockinsight7000",
		Subsystem: "txcodec",
		Name:      "batch_total",
		Help:      "Count of inspected batches.",
	}, []string{"network", "status"})

	codecBatchSize = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: "blockinsight7000",
		Subsystem: "txcodec",
		Name:      "batch_size",
		Help:      "Number of transactions per inspected batch.",
		Buckets:   prometheus.ExponentialBuckets(1, 2, 12), // 1..2048
	}, []string{"network"})
)

// Envelope label values.
const (
	EnvelopeLegacy    = "legacy"
	EnvelopeSidechain = "sidechain"
)

// Codec records decode outcomes for one network.
type Codec struct {
	network string
}

func NewCodec(network string) *Codec {
	if network == "" {
		network = "unknown"
	}
	return &Codec{network: network}
}

// ObserveDecode records one decode of size raw bytes.
func (m *Codec) ObserveDecode(envelope string, size int, err error, started time.Time) {
	status := decodeStatus(err)
	codecDecodeTotal.WithLabelValues(m.network, envelope, status).Inc()
	codecDecodeDuration.WithLabelValues(m.network, envelope, status).Observe(time.Since(started).Seconds())
	codecDecodeBytes.WithLabelValues(m.network, envelope).Observe(float64(size))
}

// ObserveBatch records one batch of count transactions.
func (m *Codec) ObserveBatch(count int, err error) {
	codecBatchTotal.WithLabelValues(m.network, status(err)).Inc()
	codecBatchSize.WithLabelValues(m.network).Observe(float64(count))
}

// decodeStatus splits failures by codec error kind.
func decodeStatus(err error) string {
	if err == nil {
		return "success"
	}
	kind, _ := codecerr.KindOf(err)
	switch kind {
	case codecerr.KindFormat:
		return "format"
	case codecerr.KindContract:
		return "contract"
	case codecerr.KindNoMatch:
		return "no_match"
	default:
		return "error"
	}
}

func status(err error) string {
	if err != nil {
		return "error"
	}
	return "success"
}
