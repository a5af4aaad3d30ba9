package chart

import (
	"testing"

	"github.com/phichain-go/phichain/internal/beat"
)

func TestToPrimitiveWidensConstants(t *testing.T) {
	doc := sampleDocument()
	p := ToPrimitive(doc)

	if len(p.Lines) != 1 {
		t.Fatalf("expected 1 flattened line, got %d", len(p.Lines))
	}
	for _, e := range p.Lines[0].Events {
		if !e.Value.Transition {
			t.Fatalf("primitive events must all be transitions, found constant on kind %v", e.Kind)
		}
	}
}

func TestRoundTripIdentityOnOffsetAndBPM(t *testing.T) {
	doc := sampleDocument()
	p := ToPrimitive(doc)
	back := ToPhichain(p, doc.Format)

	if back.OffsetMS != doc.OffsetMS {
		t.Fatalf("offset mismatch: got %v, want %v", back.OffsetMS, doc.OffsetMS)
	}
	if len(back.BPM.Points) != len(doc.BPM.Points) {
		t.Fatalf("bpm list length mismatch")
	}
	for i := range doc.BPM.Points {
		if !beat.Equal(back.BPM.Points[i].Beat, doc.BPM.Points[i].Beat) || back.BPM.Points[i].BPM != doc.BPM.Points[i].BPM {
			t.Fatalf("bpm point %d mismatch: got %+v, want %+v", i, back.BPM.Points[i], doc.BPM.Points[i])
		}
	}
	if len(back.Lines) != 1 || len(back.Lines[0].Notes) != 2 {
		t.Fatalf("notes did not survive the round trip: %+v", back.Lines)
	}
}

func TestCNTBakedIntoNotes(t *testing.T) {
	doc := sampleDocument()
	doc.Lines[0].CurveNoteTracks = []CNT{
		{
			From:    Note{Kind: Tap(), Beat: beat.Zero, X: -100},
			To:      Note{Kind: Tap(), Beat: beat.New(1, 0, 1), X: 100},
			Options: CNTOptions{Density: 4, Kind: Tap()},
		},
	}
	p := ToPrimitive(doc)
	if len(p.Lines[0].Notes) != 2+5 {
		t.Fatalf("expected baked CNT notes appended, got %d notes", len(p.Lines[0].Notes))
	}
}
