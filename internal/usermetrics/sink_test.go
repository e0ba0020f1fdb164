package usermetrics

import (
	"sync/atomic"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func gatherFamily(t *testing.T, reg *prometheus.Registry, name string) *dto.MetricFamily {
	t.Helper()
	families, err := reg.Gather()
	require.NoError(t, err)
	for _, mf := range families {
		if mf.GetName() == name {
			return mf
		}
	}
	return nil
}

func TestPromSinkCounterRegisterOrGet(t *testing.T) {
	reg := prometheus.NewRegistry()
	sink := NewPromSink(reg)

	tags := Tags{"company.name": "Acme Corporation", "country.name": "United States"}
	c1 := sink.Counter("users.created.total", "Total number of users created", tags)
	c2 := sink.Counter("users.created.total", "Total number of users created", tags)

	c1.Inc()
	c2.Inc()

	// Both handles must resolve to the same underlying series.
	assert.Equal(t, float64(2), testutil.ToFloat64(c1.(prometheus.Counter)))

	mf := gatherFamily(t, reg, "users_created_total")
	require.NotNil(t, mf, "dotted name must be sanitized for exposition")
	require.Len(t, mf.GetMetric(), 1)

	labels := map[string]string{}
	for _, lp := range mf.GetMetric()[0].GetLabel() {
		labels[lp.GetName()] = lp.GetValue()
	}
	assert.Equal(t, "Acme Corporation", labels["company_name"])
	assert.Equal(t, "United States", labels["country_name"])
}

func TestPromSinkGaugeReadsCellAtScrape(t *testing.T) {
	reg := prometheus.NewRegistry()
	sink := NewPromSink(reg)

	var cell atomic.Int64
	tags := Tags{"country.name": "Canada"}
	sink.Gauge("users.count.by.country", "Number of users in country", tags, func() float64 {
		return float64(cell.Load())
	})

	cell.Store(3)
	mf := gatherFamily(t, reg, "users_count_by_country")
	require.NotNil(t, mf)
	require.Len(t, mf.GetMetric(), 1)
	assert.Equal(t, float64(3), mf.GetMetric()[0].GetGauge().GetValue())

	// The binding is by reference: a later mutation shows up on the next
	// scrape without re-registration.
	cell.Store(7)
	mf = gatherFamily(t, reg, "users_count_by_country")
	assert.Equal(t, float64(7), mf.GetMetric()[0].GetGauge().GetValue())
}

func TestPromSinkGaugeDuplicateRegistrationCollapses(t *testing.T) {
	reg := prometheus.NewRegistry()
	sink := NewPromSink(reg)

	var cell atomic.Int64
	tags := Tags{"country.name": "Germany"}
	value := func() float64 { return float64(cell.Load()) }

	sink.Gauge("users.count.by.country", "Number of users in country", tags, value)
	sink.Gauge("users.count.by.country", "Number of users in country", tags, value)

	mf := gatherFamily(t, reg, "users_count_by_country")
	require.NotNil(t, mf)
	assert.Len(t, mf.GetMetric(), 1, "duplicate registration must collapse to one series")
}

func TestPromSinkDistinctTagsAreDistinctSeries(t *testing.T) {
	reg := prometheus.NewRegistry()
	sink := NewPromSink(reg)

	c1 := sink.Counter("users.deleted.total", "Total number of users deleted",
		Tags{"company.name": "Acme Corporation", "country.name": "United States"})
	c2 := sink.Counter("users.deleted.total", "Total number of users deleted",
		Tags{"company.name": "Tech Innovations Inc", "country.name": "Canada"})

	c1.Inc()
	c1.Inc()
	c2.Inc()

	mf := gatherFamily(t, reg, "users_deleted_total")
	require.NotNil(t, mf)
	assert.Len(t, mf.GetMetric(), 2)
}
