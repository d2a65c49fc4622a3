package forecast

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDialectFor(t *testing.T) {
	tests := map[string]struct {
		name     string
		want     Dialect
		wantFind bool
	}{
		"map file":     {name: "map_bo08.xml", want: Map, wantFind: true},
		"section stem": {name: "section_ww3ita", want: Section, wantFind: true},
		"unknown":      {name: "grid_bo08.xml"},
	}

	for name, tc := range tests {
		t.Run(name, func(t *testing.T) {
			d, ok := DialectFor(tc.name)
			assert.Equal(t, tc.wantFind, ok)
			assert.Equal(t, tc.want, d)
		})
	}
}

func TestMapDialect(t *testing.T) {
	img := NewImage(Map.Fields(), map[string]string{"title": "Vento", "like": "bo08_wind"})

	assert.Equal(t, "Bo08 Italia", Map.Title("map_bo08_italia"))
	assert.Equal(t, "Vento", Map.Label(img))
	assert.Equal(t, "bo08_wind", Map.Variable(img))
	assert.Equal(t, "thumb_bo08_wind", Map.ThumbPrefix(img))
	assert.Equal(t, "bo08_wind", Map.ImagePrefix("bo08_wind"))
	assert.True(t, Map.Public())
}

func TestSectionDialect(t *testing.T) {
	img := NewImage(Section.Fields(), map[string]string{"file": "sez_roma.png", "name": "Roma"})

	assert.Equal(t, "Section Ww3Med", Section.Title("section_ww3MED"))
	assert.Equal(t, "Roma", Section.Label(img))
	assert.Equal(t, "sez_roma.png", Section.Variable(img))
	assert.Equal(t, "thumb_sez_roma", Section.ThumbPrefix(img))
	assert.Equal(t, "sez_roma", Section.ImagePrefix("sez_roma.png"))
	assert.False(t, Section.Public())
}

func TestThumbPrefix_EmptyVariable(t *testing.T) {
	assert.Equal(t, "", Map.ThumbPrefix(NewImage(Map.Fields(), map[string]string{"title": "Vento"})))
	assert.Equal(t, "", Section.ThumbPrefix(NewImage(Section.Fields(), map[string]string{"name": "Roma"})))
}
