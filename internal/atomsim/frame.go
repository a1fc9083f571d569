package atomsim

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/lucasb-eyer/go-colorful"
	"gonum.org/v1/gonum/spatial/r2"
)

// FrameMagic opens every binary render frame.
const FrameMagic uint32 = 0x41544d31 // "ATM1"

// frameHeader and frameItem are the little-endian wire layout of a render
// frame: one header followed by Count items.
type frameHeader struct {
	Magic uint32
	Step  uint64
	Time  float64
	Count uint32
}

type frameItem struct {
	ID      uint64
	X, Y    float32
	Radius  float32
	R, G, B uint8
	_       uint8
}

// Frame is a decoded render frame.
type Frame struct {
	Step  int64
	Time  float64
	Items []RenderItem
}

// EncodeFrame packs render items into the binary frame format.
func EncodeFrame(step int64, simTime float64, items []RenderItem) ([]byte, error) {
	buf := bytes.NewBuffer(make([]byte, 0, binary.Size(frameHeader{})+len(items)*binary.Size(frameItem{})))
	hdr := frameHeader{Magic: FrameMagic, Step: uint64(step), Time: simTime, Count: uint32(len(items))}
	if err := binary.Write(buf, binary.LittleEndian, hdr); err != nil {
		return nil, fmt.Errorf("writing frame header: %w", err)
	}
	for _, it := range items {
		r, g, b := it.Color.Clamped().RGB255()
		fi := frameItem{
			ID:     uint64(it.ID),
			X:      float32(it.Position.X),
			Y:      float32(it.Position.Y),
			Radius: float32(it.Radius),
			R:      r,
			G:      g,
			B:      b,
		}
		if err := binary.Write(buf, binary.LittleEndian, fi); err != nil {
			return nil, fmt.Errorf("writing frame item %d: %w", it.ID, err)
		}
	}
	return buf.Bytes(), nil
}

// DecodeFrame is the inverse of EncodeFrame. Positions and radii come back
// at float32 precision.
func DecodeFrame(data []byte) (Frame, error) {
	reader := bytes.NewReader(data)
	var hdr frameHeader
	if err := binary.Read(reader, binary.LittleEndian, &hdr); err != nil {
		return Frame{}, fmt.Errorf("reading frame header: %w", err)
	}
	if hdr.Magic != FrameMagic {
		return Frame{}, fmt.Errorf("bad frame magic %#x", hdr.Magic)
	}
	if want := int(hdr.Count) * binary.Size(frameItem{}); reader.Len() != want {
		return Frame{}, fmt.Errorf("frame body is %d bytes, want %d", reader.Len(), want)
	}

	f := Frame{Step: int64(hdr.Step), Time: hdr.Time, Items: make([]RenderItem, 0, hdr.Count)}
	for i := uint32(0); i < hdr.Count; i++ {
		var fi frameItem
		if err := binary.Read(reader, binary.LittleEndian, &fi); err != nil {
			if err == io.EOF {
				err = io.ErrUnexpectedEOF
			}
			return Frame{}, fmt.Errorf("reading frame item %d: %w", i, err)
		}
		f.Items = append(f.Items, RenderItem{
			ID:       ParticleID(fi.ID),
			Position: r2.Vec{X: float64(fi.X), Y: float64(fi.Y)},
			Radius:   float64(fi.Radius),
			Color:    colorful.Color{R: float64(fi.R) / 255, G: float64(fi.G) / 255, B: float64(fi.B) / 255},
		})
	}
	return f, nil
}
