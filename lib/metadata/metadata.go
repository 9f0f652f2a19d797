package metadata

import (
	"bytes"
	"encoding/json"
	"fmt"
)

type FieldType string

const (
	TypeText   FieldType = "text"
	TypeUrl    FieldType = "url"
	TypeNumber FieldType = "number"
	TypeSelect FieldType = "select"
)

// FieldValue is either a single string or, for multi-value selects, a list.
// a non-nil List marks the value as a list.
type FieldValue struct {
	Text string
	List []string
}

func Text(v string) FieldValue {
	return FieldValue{Text: v}
}

func List(v ...string) FieldValue {
	if v == nil {
		v = []string{}
	}
	return FieldValue{List: v}
}

func (v FieldValue) IsList() bool {
	return v.List != nil
}

func (v FieldValue) MarshalJSON() ([]byte, error) {
	if v.List != nil {
		return json.Marshal(v.List)
	}
	return json.Marshal(v.Text)
}

func (v *FieldValue) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) > 0 && data[0] == '[' {
		list := []string{}
		err := json.Unmarshal(data, &list)
		if err != nil {
			return err
		}
		*v = FieldValue{List: list}
		return nil
	}
	var text string
	err := json.Unmarshal(data, &text)
	if err != nil {
		return err
	}
	*v = FieldValue{Text: text}
	return nil
}

type Field struct {
	Value            FieldValue `json:"value"`
	Type             FieldType  `json:"type"`
	Unit             string     `json:"unit,omitempty"`
	Units            []string   `json:"units,omitempty"`
	Options          []string   `json:"options,omitempty"`
	AllowMultiValues bool       `json:"allow_multi_values,omitempty"`
}

type NamedField struct {
	Name  string
	Field Field
}

// Fields keeps extra fields in the order of the columns they came from,
// it encodes to (and decodes from) a JSON object.
type Fields []NamedField

func (f Fields) Get(name string) (Field, bool) {
	for _, nf := range f {
		if nf.Name == name {
			return nf.Field, true
		}
	}
	return Field{}, false
}

func (f Fields) Names() []string {
	names := make([]string, len(f))
	for i, nf := range f {
		names[i] = nf.Name
	}
	return names
}

func (f Fields) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, nf := range f {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(nf.Name)
		if err != nil {
			return nil, err
		}
		value, err := json.Marshal(nf.Field)
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(value)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func (f *Fields) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if tok == nil {
		*f = nil
		return nil
	}
	if delim, ok := tok.(json.Delim); !ok || delim != '{' {
		return fmt.Errorf("extra_fields: expected object, got %v", tok)
	}

	out := Fields{}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		name, ok := tok.(string)
		if !ok {
			return fmt.Errorf("extra_fields: expected key, got %v", tok)
		}
		var field Field
		err = dec.Decode(&field)
		if err != nil {
			return fmt.Errorf("extra_fields.%s: %w", name, err)
		}
		out = out.set(name, field)
	}
	_, err = dec.Token()
	if err != nil {
		return err
	}

	*f = out
	return nil
}

func (f Fields) set(name string, field Field) Fields {
	for i, nf := range f {
		if nf.Name == name {
			f[i].Field = field
			return f
		}
	}
	return append(f, NamedField{Name: name, Field: field})
}

// Document is the metadata attached to an experiment or resource.
type Document struct {
	ExtraFields Fields `json:"extra_fields"`
}

// Encode returns the document as the JSON string the API expects in the
// "metadata" attribute.
func (d Document) Encode() (string, error) {
	if d.ExtraFields == nil {
		d.ExtraFields = Fields{}
	}
	out, err := json.Marshal(d)
	if err != nil {
		return "", fmt.Errorf("encode metadata: %w", err)
	}
	return string(out), nil
}

func Decode(data string) (Document, error) {
	var doc Document
	err := json.Unmarshal([]byte(data), &doc)
	if err != nil {
		return Document{}, fmt.Errorf("decode metadata: %w", err)
	}
	return doc, nil
}
