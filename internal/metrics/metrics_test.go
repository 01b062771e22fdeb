package metrics

import (
	"net/http"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
)

func TestRegisterIsIdempotent(t *testing.T) {
	assert.NotPanics(t, func() {
		Register()
		Register()
	})
}

func TestObserveHTTP(t *testing.T) {
	before := testutil.ToFloat64(httpRequests.WithLabelValues("/api/v1/reminders", "200"))

	ObserveHTTP("/api/v1/reminders", http.StatusOK, 15*time.Millisecond)

	after := testutil.ToFloat64(httpRequests.WithLabelValues("/api/v1/reminders", "200"))
	assert.Equal(t, before+1, after)
}

func TestCounters(t *testing.T) {
	IncRecordWrite("meal", "created")
	IncBackup("ok")

	assert.GreaterOrEqual(t, testutil.ToFloat64(recordWrites.WithLabelValues("meal", "created")), 1.0)
	assert.GreaterOrEqual(t, testutil.ToFloat64(backups.WithLabelValues("ok")), 1.0)
}
