package atomsim

import (
	"encoding/binary"
	"encoding/json"
	"testing"

	"github.com/lucasb-eyer/go-colorful"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/spatial/r2"
)

func TestFrameLayout(t *testing.T) {
	items := []RenderItem{
		{ID: 9, Position: r2.Vec{X: 1.25, Y: -3.5}, Color: colorful.Color{R: 1, G: 0, B: 0.5}, Radius: 0.2},
		{ID: 10, Position: r2.Vec{X: 100, Y: 200}, Color: colorful.Color{R: 0, G: 1, B: 0}, Radius: 0.5},
	}
	data, err := EncodeFrame(42, 1.5, items)
	require.NoError(t, err)

	// Header: magic, step, time, count. Items: id, x, y, radius, rgb, pad.
	assert.Len(t, data, 24+2*24)
	assert.Equal(t, uint32(FrameMagic), binary.LittleEndian.Uint32(data[0:4]))
	assert.Equal(t, uint64(42), binary.LittleEndian.Uint64(data[4:12]))
	assert.Equal(t, uint32(2), binary.LittleEndian.Uint32(data[20:24]))
	assert.Equal(t, uint64(9), binary.LittleEndian.Uint64(data[24:32]))
	assert.Equal(t, []byte{255, 0, 128}, data[44:47])
}

func TestDecodeFrame(t *testing.T) {
	items := []RenderItem{
		{ID: 1, Position: r2.Vec{X: 0.5, Y: 0.25}, Color: colorful.Color{R: 1, G: 1, B: 1}, Radius: 0.1},
	}
	data, err := EncodeFrame(7, 0.112, items)
	require.NoError(t, err)

	f, err := DecodeFrame(data)
	require.NoError(t, err)
	assert.Equal(t, int64(7), f.Step)
	assert.Equal(t, 0.112, f.Time)
	require.Len(t, f.Items, 1)
	assert.Equal(t, ParticleID(1), f.Items[0].ID)
	assert.Equal(t, r2.Vec{X: 0.5, Y: 0.25}, f.Items[0].Position)
	assert.InDelta(t, 0.1, f.Items[0].Radius, 1e-6)
	assert.Equal(t, "#ffffff", f.Items[0].Color.Hex())
}

func TestDecodeFrameErrors(t *testing.T) {
	data, err := EncodeFrame(1, 0, []RenderItem{{ID: 1}})
	require.NoError(t, err)

	_, err = DecodeFrame(data[:10])
	assert.Error(t, err, "short header")

	_, err = DecodeFrame(data[:len(data)-3])
	assert.Error(t, err, "truncated body")

	bad := append([]byte(nil), data...)
	bad[0] ^= 0xff
	_, err = DecodeFrame(bad)
	assert.ErrorContains(t, err, "magic")
}

func TestRenderItemJSON(t *testing.T) {
	it := RenderItem{ID: 3, Position: r2.Vec{X: 1, Y: 2}, Color: colorful.Color{R: 1, G: 0, B: 0}, Radius: 0.3}
	data, err := json.Marshal(it)
	require.NoError(t, err)
	assert.JSONEq(t, `{"id":3,"position":{"X":1,"Y":2},"color":"#ff0000","radius":0.3}`, string(data))

	var back RenderItem
	require.NoError(t, json.Unmarshal(data, &back))
	assert.Equal(t, it.ID, back.ID)
	assert.Equal(t, "#ff0000", back.Color.Hex())
}

func TestDisplayColor(t *testing.T) {
	neutral := NewParticle(Carbon, r2.Vec{})
	assert.Equal(t, neutral.Color, displayColor(neutral))

	cation := ion(Carbon, r2.Vec{}, 2)
	anion := ion(Carbon, r2.Vec{}, -2)
	assert.NotEqual(t, neutral.Color, displayColor(cation))
	assert.NotEqual(t, displayColor(cation), displayColor(anion))

	_, _, cb := displayColor(cation).RGB255()
	_, _, ab := displayColor(anion).RGB255()
	assert.Greater(t, ab, cb, "anions are tinted toward blue")

	neutral.Degenerate = true
	assert.Equal(t, degenerateTag, displayColor(neutral))
}

func TestRenderFrameMatchesSnapshot(t *testing.T) {
	sim, err := NewSimulator(testConfig())
	require.NoError(t, err)
	_, err = sim.AddParticles([]r2.Vec{{X: 1, Y: 1}, {X: 2, Y: 2}}, []ElementKind{Hydrogen, Oxygen})
	require.NoError(t, err)
	sim.Tick()

	data, err := sim.RenderFrame()
	require.NoError(t, err)
	f, err := DecodeFrame(data)
	require.NoError(t, err)

	snap := sim.Snapshot()
	assert.Equal(t, sim.Steps(), f.Step)
	require.Len(t, f.Items, len(snap))
	for i := range snap {
		assert.Equal(t, snap[i].ID, f.Items[i].ID)
		assert.InDelta(t, snap[i].Position.X, f.Items[i].Position.X, 1e-4)
	}
}
