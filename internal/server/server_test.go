package server

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"smartdevice-controller/internal/core"
	"smartdevice-controller/internal/modes"
	"smartdevice-controller/internal/protocol"
)

func TestStatePayload(t *testing.T) {
	state := core.State{
		Power:  true,
		Mode:   "alternating",
		Colors: []protocol.Color{{R: 255}, {B: 255}},
		Options: modes.Options{
			Speed:     protocol.SpeedFast,
			Direction: protocol.Backward,
			Size:      4,
			Moving:    true,
		},
	}

	p := StatePayload(state)
	assert.Equal(t, true, p["power"])
	assert.Equal(t, "alternating", p["mode"])
	assert.Equal(t, []string{"255,0,0", "0,0,255"}, p["colors"])
	assert.Equal(t, []string{"#FF0000", "#0000FF"}, p["hex"])
	assert.Equal(t, 3, p["speed"])
	assert.Equal(t, 1, p["direction"])
	assert.Equal(t, 4, p["size"])
	assert.Equal(t, true, p["moving"])
}

func TestCatalogPayloadMirrorsCatalog(t *testing.T) {
	entries := catalogPayload()
	require.Len(t, entries, len(modes.Catalog))
	assert.Equal(t, "off", entries[0]["name"])

	alt, err := modes.Lookup("alternating")
	require.NoError(t, err)
	for _, entry := range entries {
		if entry["name"] == "alternating" {
			assert.Equal(t, alt.Doc, entry["doc"])
			assert.Equal(t, alt.MinColors, entry["min_colors"])
			return
		}
	}
	t.Fatal("alternating missing from catalog payload")
}

func TestNewMessageCarriesTypedKind(t *testing.T) {
	msg := NewMessage(MsgPatternStatus, map[string]string{"running": ""})
	assert.Equal(t, MsgPatternStatus, msg.Type)

	// The kind goes over the wire as its plain string name; the raw
	// inbound bytes never leak into the JSON.
	data, err := json.Marshal(msg)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"type":"pattern_status"`)
	assert.NotContains(t, string(data), "Raw")
}
