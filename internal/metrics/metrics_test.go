package metrics

import (
	"errors"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordSyncedCountsPerTable(t *testing.T) {
	c := New()
	c.RecordSynced("shop", "ORDERS")
	c.RecordSynced("shop", "ORDERS")
	c.RecordSynced("shop", "ITEMS")

	assert.Equal(t, 2.0, testutil.ToFloat64(c.records.WithLabelValues("shop", "ORDERS")))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.records.WithLabelValues("shop", "ITEMS")))
}

func TestObserveSyncLabelsStatus(t *testing.T) {
	c := New()
	c.ObserveSync("shop", "ORDERS", nil, time.Second)
	c.ObserveSync("shop", "ORDERS", errors.New("boom"), time.Second)
	c.RunFinished(nil)

	assert.Equal(t, 2, testutil.CollectAndCount(c.duration))
	assert.Equal(t, 1.0, testutil.ToFloat64(c.runs.WithLabelValues(StatusSucceeded)))
}

func TestNilCollectorIsNoop(t *testing.T) {
	var c *Collector
	assert.NotPanics(t, func() {
		c.RecordSynced("db", "t")
		c.ObserveSync("db", "t", nil, time.Millisecond)
		c.RunFinished(nil)
	})
}

func TestHandlerExposesMetrics(t *testing.T) {
	c := New()
	c.RecordSynced("shop", "ORDERS")

	rec := httptest.NewRecorder()
	c.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	require.Equal(t, 200, rec.Code)
	assert.Contains(t, rec.Body.String(), `tap_firebird_sync_records_total{database="shop",table="ORDERS"} 1`)
}
