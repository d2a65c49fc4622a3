package services

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/AtRiskMedia/cmi-charts/internal/domain/entities/forecast"
)

// writeFixture writes data to root/rel, creating parent directories.
func writeFixture(t *testing.T, root, rel string, data []byte) {
	t.Helper()
	path := filepath.Join(root, rel)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, data, 0644))
}

// writeRecordFixture stores a converted record under root/run/webp.
func writeRecordFixture(t *testing.T, root, run, stem string, images ...forecast.Image) *forecast.Record {
	t.Helper()
	d, ok := forecast.DialectFor(stem)
	require.True(t, ok, stem)
	if images == nil {
		images = []forecast.Image{}
	}
	rec := &forecast.Record{
		NomeModello:   "bo08",
		Etichetta:     stem,
		DataEmissione: "2024-01-15T01:00:00.000000+00:00",
		Pubblico:      d.Public(),
		Tipo:          "meteo",
		Percorso:      run,
		Immagini:      images,
	}
	data, err := rec.Marshal()
	require.NoError(t, err)
	writeFixture(t, root, filepath.Join(run, "webp", stem+".json"), data)
	return rec
}

func mapImage(values map[string]string) forecast.Image {
	return forecast.NewImage(forecast.Map.Fields(), values)
}

func sectionImage(values map[string]string) forecast.Image {
	return forecast.NewImage(forecast.Section.Fields(), values)
}
