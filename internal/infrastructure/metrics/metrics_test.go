package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestGetDefaultMetrics_Singleton(t *testing.T) {
	assert.Same(t, GetDefaultMetrics(), GetDefaultMetrics())
	assert.Same(t, DefaultMetrics, GetDefaultMetrics())
}

func TestMetrics_RecordResolution(t *testing.T) {
	before := testutil.ToFloat64(DefaultMetrics.ResolutionsTotal.WithLabelValues("ok"))

	DefaultMetrics.RecordResolution("ok", 3, 1.2)
	DefaultMetrics.RecordResolution("", 0, 0.1)

	assert.Equal(t, before+1, testutil.ToFloat64(DefaultMetrics.ResolutionsTotal.WithLabelValues("ok")))
}

func TestMetrics_RecordDelivery(t *testing.T) {
	before := testutil.ToFloat64(DefaultMetrics.DeliveredBytes)

	DefaultMetrics.RecordDelivery(1024, 3.5)
	// Negative sizes must not move the counter backwards
	DefaultMetrics.RecordDelivery(-1, 1)

	assert.Equal(t, before+1024, testutil.ToFloat64(DefaultMetrics.DeliveredBytes))
}

func TestMetrics_RecordDeliveryError(t *testing.T) {
	before := testutil.ToFloat64(DefaultMetrics.DeliveriesTotal.WithLabelValues("unknown"))

	DefaultMetrics.RecordDeliveryError("download-failed")
	DefaultMetrics.RecordDeliveryError("")

	assert.Equal(t, before+1, testutil.ToFloat64(DefaultMetrics.DeliveriesTotal.WithLabelValues("unknown")))
}

func TestMetrics_ActiveDownloads(t *testing.T) {
	before := testutil.ToFloat64(DefaultMetrics.ActiveDownloads)

	DefaultMetrics.DownloadStarted()
	assert.Equal(t, before+1, testutil.ToFloat64(DefaultMetrics.ActiveDownloads))

	DefaultMetrics.DownloadFinished()
	assert.Equal(t, before, testutil.ToFloat64(DefaultMetrics.ActiveDownloads))
}

func TestMetrics_Counters(t *testing.T) {
	DefaultMetrics.RecordSessionExpired()
	DefaultMetrics.RecordRateLimited()
	DefaultMetrics.RecordKafkaMessage()
	DefaultMetrics.RecordKafkaError("")
	DefaultMetrics.RecordKafkaError("timeout")
}
