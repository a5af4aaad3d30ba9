package chart

import (
	"testing"

	"github.com/phichain-go/phichain/internal/beat"
	"github.com/phichain-go/phichain/internal/bpm"
	"github.com/phichain-go/phichain/internal/easing"
)

func validDoc() *Document {
	return &Document{
		Format: CurrentFormat,
		BPM:    bpm.New([]bpm.Point{{Beat: beat.Zero, BPM: 120}}),
		Lines:  []*Line{{Name: "Unnamed Line"}},
	}
}

func TestValidateRejectsEmptyBPM(t *testing.T) {
	doc := validDoc()
	doc.BPM = nil
	if err := doc.Validate(); err == nil {
		t.Fatalf("expected error for nil bpm list")
	}
}

func TestValidateRejectsInvertedEvent(t *testing.T) {
	doc := validDoc()
	doc.Lines[0].Events = Sequence{{
		Kind:      KindX,
		StartBeat: beat.New(2, 0, 1),
		EndBeat:   beat.New(1, 0, 1),
		Value:     Constant(0),
	}}
	if err := doc.Validate(); err == nil {
		t.Fatalf("expected error for end_beat before start_beat")
	}
}

func TestValidateRejectsDanglingCNTAnchor(t *testing.T) {
	doc := validDoc()
	anchor := Note{Kind: Tap(), Beat: beat.Zero, X: 0}
	other := Note{Kind: Tap(), Beat: beat.New(1, 0, 1), X: 0}
	doc.Lines[0].CurveNoteTracks = []CNT{{
		From:    anchor,
		To:      other,
		Options: CNTOptions{Density: 4, Kind: Tap(), Curve: easing.Named(easing.Linear)},
	}}
	if err := doc.Validate(); err == nil {
		t.Fatalf("expected error for cnt anchors not present in line notes")
	}
}

func TestValidateAcceptsResolvedCNTAnchors(t *testing.T) {
	doc := validDoc()
	anchor := Note{Kind: Tap(), Beat: beat.Zero, X: 0}
	other := Note{Kind: Tap(), Beat: beat.New(1, 0, 1), X: 0}
	doc.Lines[0].Notes = []Note{anchor, other}
	doc.Lines[0].CurveNoteTracks = []CNT{{
		From:    anchor,
		To:      other,
		Options: CNTOptions{Density: 4, Kind: Tap(), Curve: easing.Named(easing.Linear)},
	}}
	if err := doc.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}
