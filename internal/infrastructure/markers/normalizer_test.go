package markers

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AtRiskMedia/cmi-charts/internal/domain/entities/forecast"
	"github.com/AtRiskMedia/cmi-charts/internal/infrastructure/observability/logging"
)

const mapXML = `<?xml version="1.0" encoding="UTF-8"?>
<markers>
  <marker var="t2m" title="Temperatura a 2m" like="bo08_t2m" offset="0" label="T2M"/>
  <group>
    <marker var="wind" title="Vento" like="bo08_wind"/>
  </group>
  <marker var="rain" title="Precipitazione" like="bo08_rain" offset="3" label="R"/>
</markers>`

const sectionXML = `<?xml version="1.0" encoding="UTF-8"?>
<sections>
  <marker file="sez_roma.png" lat="41.9" lon="12.5" name="Roma" nick="RM"/>
</sections>`

func readRecord(t *testing.T, path string) *forecast.Record {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	rec, err := forecast.DecodeRecord(f)
	require.NoError(t, err)
	return rec
}

func runDir(t *testing.T) string {
	t.Helper()
	dir := filepath.Join(t.TempDir(), "2024011500")
	require.NoError(t, os.MkdirAll(dir, 0755))
	return dir
}

func TestNormalize_MapRecord(t *testing.T) {
	dir := runDir(t)
	src := filepath.Join(dir, "map_bo08_italia.xml")
	require.NoError(t, os.WriteFile(src, []byte(mapXML), 0644))
	modified := time.Date(2024, 1, 15, 3, 4, 5, 0, time.UTC)
	require.NoError(t, os.Chtimes(src, modified, modified))

	report, err := NewNormalizer(true, logging.NewDiscardLogger()).Normalize(dir, forecast.Map)
	require.NoError(t, err)
	assert.Equal(t, Report{Normalized: 1, Removed: 1}, report)
	assert.NoFileExists(t, src)

	rec := readRecord(t, filepath.Join(dir, "webp", "map_bo08_italia.json"))
	assert.Equal(t, "bo08", rec.NomeModello)
	assert.Equal(t, "map_bo08_italia", rec.Etichetta)
	assert.Equal(t, "2024-01-15T03:04:05.000000+00:00", rec.DataEmissione)
	assert.True(t, rec.Pubblico)
	assert.Equal(t, "meteo", rec.Tipo)
	assert.Equal(t, "2024011500", rec.Percorso)
	require.Len(t, rec.Immagini, 3)

	wind := rec.Immagini[1]
	assert.Equal(t, "bo08_wind", wind.Value("like"))
	_, ok := wind.Get("offset")
	assert.False(t, ok)
	assert.Equal(t, []string{"var", "title", "like", "offset", "label"}, keys(wind))
}

func TestNormalize_SectionRecordIsPrivate(t *testing.T) {
	dir := runDir(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "section_ww3ita.xml"), []byte(sectionXML), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "map_ww3ita.xml"), []byte(mapXML), 0644))

	report, err := NewNormalizer(false, logging.NewDiscardLogger()).Normalize(dir, forecast.Section)
	require.NoError(t, err)
	assert.Equal(t, Report{Normalized: 1}, report)

	rec := readRecord(t, filepath.Join(dir, "webp", "section_ww3ita.json"))
	assert.False(t, rec.Pubblico)
	assert.Equal(t, "marino", rec.Tipo)
	require.Len(t, rec.Immagini, 1)
	assert.Equal(t, []string{"file", "lat", "lon", "name", "nick"}, keys(rec.Immagini[0]))

	assert.FileExists(t, filepath.Join(dir, "section_ww3ita.xml"))
	assert.NoFileExists(t, filepath.Join(dir, "webp", "map_ww3ita.json"))
}

func TestNormalize_MalformedFileIsSkipped(t *testing.T) {
	dir := runDir(t)
	bad := filepath.Join(dir, "map_bo08_bad.xml")
	require.NoError(t, os.WriteFile(bad, []byte(`<markers><marker var="x"`), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "map_bo08_good.xml"), []byte(mapXML), 0644))

	report, err := NewNormalizer(true, logging.NewDiscardLogger()).Normalize(dir, forecast.Map)
	require.NoError(t, err)
	assert.Equal(t, Report{Normalized: 1, Removed: 1, Failed: 1}, report)

	assert.FileExists(t, bad)
	assert.NoFileExists(t, filepath.Join(dir, "webp", "map_bo08_bad.json"))
	assert.FileExists(t, filepath.Join(dir, "webp", "map_bo08_good.json"))
}

func TestNormalize_NoModelPart(t *testing.T) {
	dir := runDir(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "map_.xml"), []byte(mapXML), 0644))

	report, err := NewNormalizer(true, logging.NewDiscardLogger()).Normalize(dir, forecast.Map)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Failed)
}

func TestParse_Latin1(t *testing.T) {
	doc := "<?xml version=\"1.0\" encoding=\"ISO-8859-1\"?>\n<m><marker file=\"a.png\" name=\"Citt\xe0\"/></m>"

	images, err := Parse(strings.NewReader(doc), forecast.Section)
	require.NoError(t, err)
	require.Len(t, images, 1)
	assert.Equal(t, "Città", images[0].Value("name"))
}

func TestParse_NoMarkers(t *testing.T) {
	images, err := Parse(strings.NewReader("<markers/>"), forecast.Map)
	require.NoError(t, err)
	assert.NotNil(t, images)
	assert.Empty(t, images)
}

func keys(img forecast.Image) []string {
	out := make([]string, len(img))
	for i, a := range img {
		out[i] = a.Key
	}
	return out
}
