// Package markers converts XML marker files into JSON marker records.
package markers

import (
	"encoding/xml"
	"errors"
	"fmt"
	"io"

	"golang.org/x/net/html/charset"

	"github.com/AtRiskMedia/cmi-charts/internal/domain/entities/forecast"
)

const markerElement = "marker"

// Parse reads every <marker> element of r, at any depth, keeping the
// attributes named by d. Documents in a declared non UTF-8 charset are
// decoded first.
func Parse(r io.Reader, d forecast.Dialect) ([]forecast.Image, error) {
	dec := xml.NewDecoder(r)
	dec.CharsetReader = charset.NewReaderLabel

	fields := d.Fields()
	images := []forecast.Image{}
	for {
		tok, err := dec.Token()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("malformed %s markers: %w", d.Name(), err)
		}
		start, ok := tok.(xml.StartElement)
		if !ok || start.Name.Local != markerElement {
			continue
		}
		values := make(map[string]string, len(start.Attr))
		for _, attr := range start.Attr {
			values[attr.Name.Local] = attr.Value
		}
		images = append(images, forecast.NewImage(fields, values))
	}
	return images, nil
}
