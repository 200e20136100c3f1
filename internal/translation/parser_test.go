package translation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseBatchResponseSplitsByDelimiter(t *testing.T) {
	response := "[1] Hola\n---SEGMENT---\n[2] Adiós\n---SEGMENT---\n[3] Gracias"

	parts, ok := parseBatchResponse(response, 3)
	require.True(t, ok)
	assert.Equal(t, []string{"Hola", "Adiós", "Gracias"}, parts)
}

func TestParseBatchResponseDelimiterIgnoresEmptyChunks(t *testing.T) {
	response := "---SEGMENT---\n[1] Hola\n---SEGMENT---\n[2] Adiós\n---SEGMENT---\n"

	parts, ok := parseBatchResponse(response, 2)
	require.True(t, ok)
	assert.Equal(t, []string{"Hola", "Adiós"}, parts)
}

func TestParseBatchResponseFallsBackToMarkers(t *testing.T) {
	// no delimiter survived, but the positional markers did
	response := "[1] Hola amigo\n[2] Hasta luego"

	parts, ok := parseBatchResponse(response, 2)
	require.True(t, ok)
	assert.Equal(t, []string{"Hola amigo", "Hasta luego"}, parts)
}

func TestParseBatchResponseMarkersKeepMultilineSegments(t *testing.T) {
	response := "[1] Primera línea\nsegunda línea\n[2] Otra parte"

	parts, ok := parseBatchResponse(response, 2)
	require.True(t, ok)
	assert.Equal(t, []string{"Primera línea\nsegunda línea", "Otra parte"}, parts)
}

func TestParseBatchResponseFallsBackToParagraphs(t *testing.T) {
	// neither delimiter nor markers, just blank-line separated paragraphs
	response := "Hola amigo\n\nHasta luego\n\nGracias"

	parts, ok := parseBatchResponse(response, 3)
	require.True(t, ok)
	assert.Equal(t, []string{"Hola amigo", "Hasta luego", "Gracias"}, parts)
}

func TestParseBatchResponseRejectsWrongSegmentCount(t *testing.T) {
	response := "Hola amigo\n\nHasta luego"

	_, ok := parseBatchResponse(response, 3)
	assert.False(t, ok)
}

func TestParseBatchResponseRejectsMergedSegments(t *testing.T) {
	// the backend merged two segments into one paragraph
	response := "[1] Hola\n---SEGMENT---\n[2] Adiós Gracias"

	_, ok := parseBatchResponse(response, 3)
	assert.False(t, ok)
}

func TestStripCodeFence(t *testing.T) {
	assert.Equal(t, `{"a":"b"}`, stripCodeFence("```json\n{\"a\":\"b\"}\n```"))
	assert.Equal(t, `{"a":"b"}`, stripCodeFence("```\n{\"a\":\"b\"}\n```"))
	assert.Equal(t, `{"a":"b"}`, stripCodeFence(`{"a":"b"}`))
	assert.Equal(t, "", stripCodeFence("```json\n```"))
}
