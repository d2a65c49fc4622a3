package forecast

import (
	"path"
	"strings"
)

// Dialect describes one marker file schema.
type Dialect interface {
	// Name is "map" or "section".
	Name() string
	// Prefix is the file name prefix selecting the dialect.
	Prefix() string
	// Public reports the default visibility of records of this dialect.
	Public() bool
	// Fields lists the marker attributes kept in each image entry.
	Fields() []string
	// Title derives the model title from a record label.
	Title(etichetta string) string
	// Label is the display title of one image entry.
	Label(img Image) string
	// Variable is the value identifying an image entry in URLs.
	Variable(img Image) string
	// ImagePrefix is the WebP file name prefix for a variable.
	ImagePrefix(variable string) string
	// ThumbPrefix is the thumbnail file name prefix for an image entry.
	ThumbPrefix(img Image) string
}

var (
	// Map markers are public weather maps.
	Map Dialect = mapDialect{}
	// Section markers are private vertical sections.
	Section Dialect = sectionDialect{}
)

// Dialects lists every known dialect.
func Dialects() []Dialect {
	return []Dialect{Map, Section}
}

// DialectFor picks the dialect of a file name or stem by prefix.
func DialectFor(name string) (Dialect, bool) {
	for _, d := range Dialects() {
		if strings.HasPrefix(name, d.Prefix()) {
			return d, true
		}
	}
	return nil, false
}

type mapDialect struct{}

func (mapDialect) Name() string     { return "map" }
func (mapDialect) Prefix() string   { return "map_" }
func (mapDialect) Public() bool     { return true }
func (mapDialect) Fields() []string { return []string{"var", "title", "like", "offset", "label"} }

// Title drops the leading "map" part of the label.
func (mapDialect) Title(etichetta string) string {
	parts := strings.Split(etichetta, "_")
	return TitleWords(parts[1:])
}

func (mapDialect) Label(img Image) string      { return img.Value("title") }
func (mapDialect) Variable(img Image) string   { return img.Value("like") }
func (mapDialect) ImagePrefix(v string) string { return v }

// ThumbPrefix is empty when the entry names no variable.
func (d mapDialect) ThumbPrefix(img Image) string {
	return thumbPrefix(d.Variable(img))
}

type sectionDialect struct{}

func (sectionDialect) Name() string     { return "section" }
func (sectionDialect) Prefix() string   { return "section_" }
func (sectionDialect) Public() bool     { return false }
func (sectionDialect) Fields() []string { return []string{"file", "lat", "lon", "name", "nick"} }

func (sectionDialect) Title(etichetta string) string {
	return TitleWords(strings.Split(etichetta, "_"))
}

func (sectionDialect) Label(img Image) string    { return img.Value("name") }
func (sectionDialect) Variable(img Image) string { return img.Value("file") }

// ImagePrefix strips the file extension from the section file name.
func (sectionDialect) ImagePrefix(v string) string {
	return strings.TrimSuffix(v, path.Ext(v))
}

func (d sectionDialect) ThumbPrefix(img Image) string {
	return thumbPrefix(d.ImagePrefix(d.Variable(img)))
}

func thumbPrefix(stem string) string {
	if stem == "" {
		return ""
	}
	return "thumb_" + stem
}
