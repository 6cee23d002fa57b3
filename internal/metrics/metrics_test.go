package metrics

import (
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFavoritesCountsByResult(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewFavorites(reg)

	m.Toggle("add", nil)
	m.Toggle("add", nil)
	m.Toggle("remove", errors.New("boom"))
	m.List("resolve", nil)
	m.Request("GET", "/api/v1/me/favorites", "200", 20*time.Millisecond)

	assert.Equal(t, 2.0, testutil.ToFloat64(m.toggles.WithLabelValues("add", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.toggles.WithLabelValues("remove", "error")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.listRequests.WithLabelValues("resolve", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.requestCount.WithLabelValues("GET", "/api/v1/me/favorites", "200")))

	count, err := testutil.GatherAndCount(reg, "storefront_http_request_duration_seconds")
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestNilFavoritesIsNoop(t *testing.T) {
	var m *Favorites

	assert.NotPanics(t, func() {
		m.Toggle("first", nil)
		m.List("load_more", errors.New("boom"))
		m.Request("POST", "/x", "500", time.Second)
	})
}
