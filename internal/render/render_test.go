package render

import (
	"encoding/binary"
	"math"
	"testing"

	"github.com/phichain-go/phichain/internal/beat"
	"github.com/phichain-go/phichain/internal/bpm"
	"github.com/phichain-go/phichain/internal/chart"
)

func testDoc(t *testing.T) *chart.Document {
	t.Helper()
	return &chart.Document{
		Format: chart.CurrentFormat,
		BPM:    bpm.New([]bpm.Point{{Beat: beat.Zero, BPM: 120}}),
		Lines: []*chart.Line{{
			Name:  "Unnamed Line",
			Notes: []chart.Note{{Kind: chart.Tap(), Beat: beat.New(1, 0, 1), Speed: 1}},
		}},
	}
}

func decodeScene(t *testing.T, frame []byte) float64 {
	t.Helper()
	if len(frame) < frameHeaderSize {
		t.Fatalf("frame too short: %d bytes", len(frame))
	}
	return math.Float64frombits(binary.LittleEndian.Uint64(frame[:frameHeaderSize]))
}

func TestRenderRunEncodesExpectedFrameCount(t *testing.T) {
	r, err := New(testDoc(t))
	if err != nil {
		t.Fatalf("new: %v", err)
	}

	enc := &NopEncoder{}
	opts := Options{Width: 16, Height: 16, FPS: 10, From: 0, To: 1}
	if err := r.Run(opts, enc, nil, 0); err != nil {
		t.Fatalf("run: %v", err)
	}
	if enc.Frames != 10 {
		t.Fatalf("expected 10 frames at 10fps over 1s, got %d", enc.Frames)
	}
}

func TestRenderRunResumesFromCheckpoint(t *testing.T) {
	r, err := New(testDoc(t))
	if err != nil {
		t.Fatalf("new: %v", err)
	}

	enc := &NopEncoder{}
	opts := Options{Width: 4, Height: 4, FPS: 10, From: 0, To: 1}
	if err := r.Run(opts, enc, nil, 5); err != nil {
		t.Fatalf("run: %v", err)
	}
	if enc.Frames != 5 {
		t.Fatalf("expected resume from frame 5 to encode 5 remaining frames, got %d", enc.Frames)
	}
}

func TestRenderRunFrameHeaderTracksFloorPosition(t *testing.T) {
	r, err := New(testDoc(t))
	if err != nil {
		t.Fatalf("new: %v", err)
	}

	enc := &NopEncoder{}
	opts := Options{Width: 16, Height: 16, FPS: 10, From: 0, To: 1}
	if err := r.Run(opts, enc, nil, 0); err != nil {
		t.Fatalf("run: %v", err)
	}

	last := decodeScene(t, enc.LastFrame)
	if last == 0 {
		t.Fatalf("expected the resolved floor position to drive a nonzero scene value, got 0")
	}
}

func TestRenderRunFrameHeaderReflectsSpeedEvents(t *testing.T) {
	base := testDoc(t)

	doubled := testDoc(t)
	doubled.Lines[0].Events = chart.Sequence{{
		Kind:      chart.KindSpeed,
		StartBeat: beat.Zero,
		EndBeat:   beat.New(4, 0, 1),
		Value:     chart.Constant(20),
	}}

	run := func(doc *chart.Document) float64 {
		r, err := New(doc)
		if err != nil {
			t.Fatalf("new: %v", err)
		}
		enc := &NopEncoder{}
		if err := r.Run(Options{Width: 16, Height: 16, FPS: 10, From: 0, To: 1}, enc, nil, 9); err != nil {
			t.Fatalf("run: %v", err)
		}
		return decodeScene(t, enc.LastFrame)
	}

	if run(base) == run(doubled) {
		t.Fatalf("expected a faster speed event to change the encoded scene value")
	}
}

func TestRenderRunRejectsZeroFPS(t *testing.T) {
	r, err := New(testDoc(t))
	if err != nil {
		t.Fatalf("new: %v", err)
	}
	if err := r.Run(Options{Width: 4, Height: 4, FPS: 0, To: 1}, &NopEncoder{}, nil, 0); err == nil {
		t.Fatalf("expected error for zero fps")
	}
}
