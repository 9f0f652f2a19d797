package metadata

import (
	"encoding/json"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"
)

func TestDocumentRoundTrip(t *testing.T) {
	doc := MapRow(antibodyRow())

	encoded, err := doc.Encode()
	require.NoError(t, err)

	decoded, err := Decode(encoded)
	require.NoError(t, err)

	diff := cmp.Diff(doc, decoded)
	if diff != "" {
		t.Fatal(diff)
	}
}

func TestDocumentEncoding(t *testing.T) {
	doc := Document{ExtraFields: Fields{
		{Name: "b", Field: Field{Value: Text("1"), Type: TypeNumber}},
		{Name: "a", Field: Field{Value: List("Mouse", "Human"), Type: TypeSelect, AllowMultiValues: true, Options: []string{"Mouse", "Human"}}},
	}}

	encoded, err := doc.Encode()
	require.NoError(t, err)
	require.Equal(
		t,
		`{"extra_fields":{"b":{"value":"1","type":"number"},"a":{"value":["Mouse","Human"],"type":"select","options":["Mouse","Human"],"allow_multi_values":true}}}`,
		encoded,
	)

	// generic decoding sees the same structure
	var generic map[string]map[string]map[string]any
	require.NoError(t, json.Unmarshal([]byte(encoded), &generic))
	require.Equal(t, []any{"Mouse", "Human"}, generic["extra_fields"]["a"]["value"])
	require.Equal(t, true, generic["extra_fields"]["a"]["allow_multi_values"])

	empty, err := Document{}.Encode()
	require.NoError(t, err)
	require.Equal(t, `{"extra_fields":{}}`, empty)
}

func TestDecodeKeepsOrder(t *testing.T) {
	doc, err := Decode(`{"extra_fields": {"z": {"value": "1", "type": "text"}, "m": {"value": [], "type": "select", "allow_multi_values": true}, "a": {"value": "x", "type": "url"}}}`)
	require.NoError(t, err)
	require.Equal(t, []string{"z", "m", "a"}, doc.ExtraFields.Names())

	m, ok := doc.ExtraFields.Get("m")
	require.True(t, ok)
	require.True(t, m.Value.IsList())
	require.Empty(t, m.Value.List)

	_, err = Decode(`{"extra_fields": []}`)
	require.Error(t, err)
}
