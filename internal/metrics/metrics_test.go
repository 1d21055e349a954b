package metrics

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"options-income/internal/models"
	"options-income/internal/resilience"
)

func TestRecorderCounts(t *testing.T) {
	r := New()

	r.ObserveFetch("quote", 10*time.Millisecond, nil)
	r.ObserveFetch("quote", 12*time.Millisecond, errors.New("timeout"))
	r.ObserveFetch("chain", 30*time.Millisecond, nil)
	r.RecordCandidate(models.StrategyCashSecuredPut)
	r.RecordCandidate(models.StrategyCashSecuredPut)
	r.RecordRegime(&models.MarketRegime{TrendScore: 42.5})
	r.RecordRun(models.RunCompleted, 7, 3*time.Second, time.Unix(1700000000, 0))
	r.RecordRun(models.RunFailed, 0, time.Second, time.Unix(1700000100, 0))

	assert.Equal(t, 1.0, testutil.ToFloat64(r.fetchesTotal.WithLabelValues("quote", "ok")))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.fetchesTotal.WithLabelValues("quote", "error")))
	assert.Equal(t, 2.0, testutil.ToFloat64(r.candidates.WithLabelValues("cash_secured_put")))
	assert.Equal(t, 42.5, testutil.ToFloat64(r.regimeScore))
	assert.Equal(t, 1.0, testutil.ToFloat64(r.runsTotal.WithLabelValues("FAILED")))
	// Failed runs leave the last-success gauges alone.
	assert.Equal(t, 7.0, testutil.ToFloat64(r.packetsRanked))
	assert.Equal(t, 1700000000.0, testutil.ToFloat64(r.lastRunSuccess))
}

func TestRecordBreakers(t *testing.T) {
	r := New()
	r.RecordBreakers([]resilience.CircuitBreakerStats{
		{Name: "chain", State: resilience.CircuitOpen, TotalFailures: 5},
		{Name: "quote", State: resilience.CircuitClosed, TotalFailures: 1},
	})

	assert.Equal(t, 2.0, testutil.ToFloat64(r.breakerState.WithLabelValues("chain")))
	assert.Equal(t, 0.0, testutil.ToFloat64(r.breakerState.WithLabelValues("quote")))
	assert.Equal(t, 5.0, testutil.ToFloat64(r.breakerFails.WithLabelValues("chain")))
}

func TestNilRecorderIsNoop(t *testing.T) {
	var r *Recorder
	assert.NotPanics(t, func() {
		r.ObserveFetch("quote", time.Millisecond, nil)
		r.RecordCandidate(models.StrategyCoveredCall)
		r.RecordRegime(&models.MarketRegime{})
		r.RecordRun(models.RunCompleted, 1, time.Second, time.Now())
		r.RecordBreakers([]resilience.CircuitBreakerStats{{Name: "quote"}})
	})
}

func TestWriteTextfile(t *testing.T) {
	r := New()
	r.RecordRun(models.RunCompleted, 3, time.Second, time.Unix(1700000000, 0))

	path := filepath.Join(t.TempDir(), "optincome.prom")
	require.NoError(t, r.WriteTextfile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `optincome_runs_total{status="COMPLETED"} 1`)
	assert.Contains(t, string(data), "optincome_packets_ranked 3")
}
