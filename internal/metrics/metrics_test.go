package metrics

import (
	"io"
	"net/http/httptest"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInstancesAreIndependent(t *testing.T) {
	a, b := New(), New()
	a.RentRecordsCreated.Add(3)

	assert.Equal(t, 3.0, testutil.ToFloat64(a.RentRecordsCreated))
	assert.Equal(t, 0.0, testutil.ToFloat64(b.RentRecordsCreated))
}

func TestHandlerExposesDomainCounters(t *testing.T) {
	m := New()
	m.ElectricityToggles.WithLabelValues("denied").Inc()

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest("GET", "/metrics", nil))

	body, err := io.ReadAll(rec.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `rental_electricity_toggles_total{outcome="denied"} 1`)
}
