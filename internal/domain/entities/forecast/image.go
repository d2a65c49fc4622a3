package forecast

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Attr is one marker attribute. A nil Value encodes as JSON null.
type Attr struct {
	Key   string
	Value *string
}

// Image is one chart variant described by a marker element. Attributes keep
// the order they were declared in so the JSON form is stable.
type Image []Attr

// NewImage builds an image from the attribute names of a dialect, looking
// each one up in values.
func NewImage(fields []string, values map[string]string) Image {
	img := make(Image, 0, len(fields))
	for _, key := range fields {
		var value *string
		if v, ok := values[key]; ok {
			value = &v
		}
		img = append(img, Attr{Key: key, Value: value})
	}
	return img
}

// Get returns the value of key, or "" and false when it is missing or null.
func (img Image) Get(key string) (string, bool) {
	for _, a := range img {
		if a.Key == key {
			if a.Value == nil {
				return "", false
			}
			return *a.Value, true
		}
	}
	return "", false
}

// Value returns the value of key or "".
func (img Image) Value(key string) string {
	v, _ := img.Get(key)
	return v
}

// HasValue reports whether any attribute of the image equals value.
func (img Image) HasValue(value string) bool {
	for _, a := range img {
		if a.Value != nil && *a.Value == value {
			return true
		}
	}
	return false
}

// MarshalJSON writes the attributes as an object in declaration order.
func (img Image) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, a := range img {
		if i > 0 {
			buf.WriteByte(',')
		}
		if err := writeString(&buf, a.Key); err != nil {
			return nil, err
		}
		buf.WriteByte(':')
		if a.Value == nil {
			buf.WriteString("null")
			continue
		}
		if err := writeString(&buf, *a.Value); err != nil {
			return nil, err
		}
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

// UnmarshalJSON reads an object keeping key order. Non-string scalars are
// kept in their literal JSON form.
func (img *Image) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("image entry must be an object, got %v", tok)
	}

	out := Image{}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		key, ok := tok.(string)
		if !ok {
			return fmt.Errorf("unexpected key token %v", tok)
		}

		var raw json.RawMessage
		if err := dec.Decode(&raw); err != nil {
			return fmt.Errorf("failed to decode %q: %w", key, err)
		}
		attr := Attr{Key: key}
		switch {
		case bytes.Equal(raw, []byte("null")):
		case len(raw) > 0 && raw[0] == '"':
			var s string
			if err := json.Unmarshal(raw, &s); err != nil {
				return fmt.Errorf("failed to decode %q: %w", key, err)
			}
			attr.Value = &s
		default:
			s := string(raw)
			attr.Value = &s
		}
		out = append(out, attr)
	}
	if _, err := dec.Token(); err != nil {
		return err
	}
	*img = out
	return nil
}

func writeString(buf *bytes.Buffer, s string) error {
	enc := json.NewEncoder(buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(s); err != nil {
		return err
	}
	// Encode terminates every value with a newline.
	buf.Truncate(buf.Len() - 1)
	return nil
}
