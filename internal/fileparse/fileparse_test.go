package fileparse

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jmylchreest/apiforge/internal/models"
)

func TestDecompressRoundTripGzip(t *testing.T) {
	orig := []byte("hello, world")
	compressed, err := Compress(orig, models.DecompressionGzip)
	require.NoError(t, err)
	out, err := Decompress(compressed, models.DecompressionGzip)
	require.NoError(t, err)
	assert.Equal(t, orig, out)
}

func TestDecompressRoundTripDeflate(t *testing.T) {
	orig := []byte("the quick brown fox")
	compressed, err := Compress(orig, models.DecompressionDeflate)
	require.NoError(t, err)
	out, err := Decompress(compressed, models.DecompressionDeflate)
	require.NoError(t, err)
	assert.Equal(t, orig, out)
}

func TestDecompressRoundTripZip(t *testing.T) {
	orig := []byte("id,name\n1,Alice\n2,Bob")
	compressed, err := Compress(orig, models.DecompressionZip)
	require.NoError(t, err)
	out, err := Decompress(compressed, models.DecompressionZip)
	require.NoError(t, err)
	assert.Equal(t, orig, out)
}

func TestDecompressNoneIsIdentity(t *testing.T) {
	orig := []byte("raw bytes")
	out, err := Decompress(orig, models.DecompressionNone)
	require.NoError(t, err)
	assert.Equal(t, orig, out)
}

func TestDecompressAutoSniffsGzip(t *testing.T) {
	orig := []byte("sniffed content")
	compressed, err := Compress(orig, models.DecompressionGzip)
	require.NoError(t, err)
	out, err := Decompress(compressed, models.DecompressionAuto)
	require.NoError(t, err)
	assert.Equal(t, orig, out)
}

func TestParseJSONRoundTrip(t *testing.T) {
	v, err := Parse([]byte(`{"a":1,"b":[1,2,3]}`), models.FileTypeJSON)
	require.NoError(t, err)
	m := v.(map[string]any)
	b := m["b"].([]any)
	require.Len(t, b, 3)
	assert.Equal(t, "2", b[1].(json.Number).String())
}

func TestParseCSVHeaderRow(t *testing.T) {
	v, err := Parse([]byte("id,name\n1,Alice\n2,Bob"), models.FileTypeCSV)
	require.NoError(t, err)
	rows := v.([]any)
	require.Len(t, rows, 2)
	assert.Equal(t, "Alice", rows[0].(map[string]any)["name"])
	assert.Equal(t, "2", rows[1].(map[string]any)["id"])
}

func TestParseXMLAttributesAndText(t *testing.T) {
	v, err := Parse([]byte(`<user id="7"><name>Alice</name></user>`), models.FileTypeXML)
	require.NoError(t, err)
	m := v.(map[string]any)
	user := m["user"].(map[string]any)
	assert.Equal(t, "7", user["@id"])
	assert.Equal(t, "Alice", user["name"])
}

func TestParseAutoDetectsJSON(t *testing.T) {
	v, err := Parse([]byte(`  [1,2,3]`), models.FileTypeAuto)
	require.NoError(t, err)
	assert.Len(t, v.([]any), 3)
}

func TestParseAutoDetectsXML(t *testing.T) {
	v, err := Parse([]byte(`<root><a>1</a></root>`), models.FileTypeAuto)
	require.NoError(t, err)
	assert.Contains(t, v.(map[string]any), "root")
}

func TestParseAutoFallsBackToCSV(t *testing.T) {
	v, err := Parse([]byte("id,name\n1,Alice"), models.FileTypeAuto)
	require.NoError(t, err)
	rows := v.([]any)
	require.Len(t, rows, 1)
}
