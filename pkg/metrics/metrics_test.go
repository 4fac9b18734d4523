package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCollectorRecords(t *testing.T) {
	m := New("intake")
	reg := prometheus.NewRegistry()
	require.NoError(t, m.Register(reg))

	c := NewDefaultMetricsCollector(m)
	c.RecordAdmission("admitted", "")
	c.RecordAdmission("rejected", "below_minimum_notional")
	c.RecordAdmission("rejected", "below_minimum_notional")
	c.RecordPublish("new_order", true)
	c.RecordPublish("cancel_order", false)
	c.RecordHTTPRequest("POST", "/api/v1/orders", 201, 0.01)
	c.RecordRuleLookup("ok", 0.002)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.AdmissionsTotal.WithLabelValues("admitted", "")))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.AdmissionsTotal.WithLabelValues("rejected", "below_minimum_notional")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.EventsPublishedTotal.WithLabelValues("new_order", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.EventsPublishedTotal.WithLabelValues("cancel_order", "failed")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.HTTPRequestsTotal.WithLabelValues("POST", "/api/v1/orders", "201")))
}

func TestRegisterTwiceFails(t *testing.T) {
	m := New("intake")
	reg := prometheus.NewRegistry()
	require.NoError(t, m.Register(reg))
	assert.Error(t, m.Register(reg))
}
