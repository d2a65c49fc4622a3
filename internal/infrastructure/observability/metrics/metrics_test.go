package metrics

import (
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_RegistersCollectors(t *testing.T) {
	reg := prometheus.NewRegistry()
	m, err := New(reg)
	require.NoError(t, err)

	m.ImagesTranscoded.Inc()
	m.JobRuns.WithLabelValues("ingest").Add(2)

	assert.Equal(t, 1.0, testutil.ToFloat64(m.ImagesTranscoded))
	assert.Equal(t, 2.0, testutil.ToFloat64(m.JobRuns.WithLabelValues("ingest")))

	families, err := reg.Gather()
	require.NoError(t, err)
	names := make([]string, 0, len(families))
	for _, f := range families {
		names = append(names, f.GetName())
	}
	assert.Contains(t, names, "cmi_charts_images_transcoded_total")
	assert.Contains(t, names, "cmi_charts_job_runs_total")
}

func TestNew_DuplicateRegistrationFails(t *testing.T) {
	reg := prometheus.NewRegistry()
	_, err := New(reg)
	require.NoError(t, err)

	_, err = New(reg)
	require.Error(t, err)
}

func TestNewForTesting_Independent(t *testing.T) {
	a := NewForTesting()
	b := NewForTesting()

	a.RunsSwept.Inc()
	assert.Equal(t, 1.0, testutil.ToFloat64(a.RunsSwept))
	assert.Equal(t, 0.0, testutil.ToFloat64(b.RunsSwept))
}
