// Package forecast defines the marker records, image entries and dialects
// shared by ingestion and the read side.
package forecast

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"
)

// EmissionLayout formats dataEmissione like an ISO-8601 timestamp with
// microseconds and an explicit +00:00 offset.
const EmissionLayout = "2006-01-02T15:04:05.000000-07:00"

// ErrMissingModelName is returned when a marker file stem has no model part.
var ErrMissingModelName = errors.New("marker file name has no model part")

// Record is the JSON document produced for one marker file.
type Record struct {
	NomeModello   string  `json:"nomeModello"`
	Etichetta     string  `json:"etichetta"`
	DataEmissione string  `json:"dataEmissione"`
	Pubblico      bool    `json:"pubblico"`
	Tipo          string  `json:"tipo"`
	Percorso      string  `json:"percorso"`
	Immagini      []Image `json:"immagini"`
}

var modelTypes = map[string]string{
	"bo08":     "meteo",
	"molita15": "meteo",
	"ww3ita":   "marino",
	"ww3MED":   "marino",
}

// ModelType returns "meteo", "marino" or "" for an unknown model.
func ModelType(model string) string {
	return modelTypes[model]
}

// NewRecord builds the record for the marker file stem found in run.
func NewRecord(d Dialect, stem, run string, modified time.Time, images []Image) (*Record, error) {
	parts := strings.Split(stem, "_")
	if len(parts) < 2 || parts[1] == "" {
		return nil, fmt.Errorf("%w: %s", ErrMissingModelName, stem)
	}
	if images == nil {
		images = []Image{}
	}
	return &Record{
		NomeModello:   parts[1],
		Etichetta:     stem,
		DataEmissione: FormatEmission(modified),
		Pubblico:      d.Public(),
		Tipo:          ModelType(parts[1]),
		Percorso:      run,
		Immagini:      images,
	}, nil
}

// FormatEmission renders t in UTC using EmissionLayout.
func FormatEmission(t time.Time) string {
	return t.UTC().Format(EmissionLayout)
}

// Tags returns the model name and type shown next to every listing entry.
func (r *Record) Tags() []string {
	return []string{r.NomeModello, r.Tipo}
}

// Encode writes the record as 4-space indented JSON.
func (r *Record) Encode(w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "    ")
	enc.SetEscapeHTML(false)
	return enc.Encode(r)
}

// Marshal returns the indented JSON form of the record.
func (r *Record) Marshal() ([]byte, error) {
	var buf bytes.Buffer
	if err := r.Encode(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// DecodeRecord reads one record.
func DecodeRecord(r io.Reader) (*Record, error) {
	var rec Record
	if err := json.NewDecoder(r).Decode(&rec); err != nil {
		return nil, err
	}
	return &rec, nil
}
