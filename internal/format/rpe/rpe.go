// Package rpe converts between the Re:PhiEdit (RPE) chart format and the
// internal/chart Primitive hub.
//
// Grounded on original_source/phichain-chart/src/format/rpe.rs: the
// RPE_EASING 30-entry lookup table, rotation value negation in both
// directions, and the bezier=1 / bezierPoints override for Easing.Custom
// all carry over exactly.
package rpe

import (
	"encoding/json"
	"fmt"
	"sort"

	"github.com/phichain-go/phichain/internal/beat"
	"github.com/phichain-go/phichain/internal/bpm"
	"github.com/phichain-go/phichain/internal/chart"
	"github.com/phichain-go/phichain/internal/easing"
)

const (
	noteTap   = 1
	noteHold  = 2
	noteFlick = 3
	noteDrag  = 4
)

// rpeEasing is RPE's own easing numbering: index 0 and 1 both mean Linear,
// and the ordering otherwise has no relation to easing.Kind's own enum.
var rpeEasing = []easing.Kind{
	easing.Linear, easing.Linear, easing.EaseOutSine, easing.EaseInSine,
	easing.EaseOutQuad, easing.EaseInQuad, easing.EaseInOutSine, easing.EaseInOutQuad,
	easing.EaseOutCubic, easing.EaseInCubic, easing.EaseOutQuart, easing.EaseInQuart,
	easing.EaseInOutCubic, easing.EaseInOutQuart, easing.EaseOutQuint, easing.EaseInQuint,
	easing.EaseOutExpo, easing.EaseInExpo, easing.EaseOutCirc, easing.EaseInCirc,
	easing.EaseOutBack, easing.EaseInBack, easing.EaseInOutCirc, easing.EaseInOutBack,
	easing.EaseOutElastic, easing.EaseInElastic, easing.EaseOutBounce, easing.EaseInBounce,
	easing.EaseInOutBounce, easing.EaseInOutElastic,
}

func easingFromID(id int) easing.Easing {
	if id < 0 || id >= len(rpeEasing) {
		return easing.Named(easing.Linear)
	}
	return easing.Named(rpeEasing[id])
}

func idFromEasing(e easing.Easing) int {
	if e.IsCustom() {
		return 1
	}
	for i, k := range rpeEasing {
		if k == e.Kind {
			return i
		}
	}
	return 1
}

// Beat is RPE's own (whole, numerator, denominator) triple.
type Beat [3]int32

func (b Beat) toBeat() beat.Beat   { return beat.New(b[0], b[1], b[2]) }
func fromBeat(b beat.Beat) Beat    { return Beat{b.Whole, b.Num, b.Den} }

// Chart is the on-disk RPE chart.
type Chart struct {
	BPMList       []BPMPoint  `json:"BPMList"`
	Meta          Meta        `json:"META"`
	JudgeLineList []JudgeLine `json:"judgeLineList"`
}

type BPMPoint struct {
	BPM       float64 `json:"bpm"`
	StartTime Beat    `json:"startTime"`
}

type Meta struct {
	RPEVersion int32  `json:"RPEVersion"`
	Background string `json:"background"`
	Charter    string `json:"charter"`
	Composer   string `json:"composer"`
	ID         string `json:"id"`
	Level      string `json:"level"`
	Name       string `json:"name"`
	Offset     int32  `json:"offset"`
	Song       string `json:"song"`
}

type JudgeLine struct {
	EventLayers []EventLayer `json:"eventLayers"`
	Notes       []Note       `json:"notes"`
}

type EventLayer struct {
	AlphaEvents  []CommonEvent `json:"alphaEvents"`
	MoveXEvents  []CommonEvent `json:"moveXEvents"`
	MoveYEvents  []CommonEvent `json:"moveYEvents"`
	RotateEvents []CommonEvent `json:"rotateEvents"`
	SpeedEvents  []SpeedEvent  `json:"speedEvents"`
}

type CommonEvent struct {
	Bezier       int32      `json:"bezier"`
	BezierPoints [4]float64 `json:"bezierPoints"`
	EasingType   int32      `json:"easingType"`
	End          float64    `json:"end"`
	EndTime      Beat       `json:"endTime"`
	Start        float64    `json:"start"`
	StartTime    Beat       `json:"startTime"`
}

type SpeedEvent struct {
	End       float64 `json:"end"`
	EndTime   Beat    `json:"endTime"`
	Start     float64 `json:"start"`
	StartTime Beat    `json:"startTime"`
}

type Note struct {
	Above       int32   `json:"above"`
	EndTime     Beat    `json:"endTime"`
	PositionX   float64 `json:"positionX"`
	Speed       float64 `json:"speed"`
	StartTime   Beat    `json:"startTime"`
	Size        float64 `json:"size"`
	VisibleTime float64 `json:"visibleTime"`
	Kind        int32   `json:"type"`
}

// Decode parses an RPE chart and lifts it into a Primitive chart.
func Decode(data []byte) (*chart.Primitive, error) {
	var rc Chart
	if err := json.Unmarshal(data, &rc); err != nil {
		return nil, fmt.Errorf("rpe: decode: %w", err)
	}

	points := make([]bpm.Point, len(rc.BPMList))
	for i, p := range rc.BPMList {
		points[i] = bpm.Point{Beat: p.StartTime.toBeat(), BPM: p.BPM}
	}
	p := &chart.Primitive{
		OffsetMS: float64(rc.Meta.Offset),
		BPM:      bpm.New(points),
	}

	for _, line := range rc.JudgeLineList {
		pl, err := decodeLine(line)
		if err != nil {
			return nil, err
		}
		p.Lines = append(p.Lines, pl)
	}
	return p, nil
}

func decodeLine(line JudgeLine) (chart.PrimitiveLine, error) {
	var events chart.Sequence
	for _, layer := range line.EventLayers {
		for _, e := range layer.MoveXEvents {
			events = append(events, commonToEvent(chart.KindX, e, 1))
		}
		for _, e := range layer.MoveYEvents {
			events = append(events, commonToEvent(chart.KindY, e, 1))
		}
		for _, e := range layer.RotateEvents {
			// RPE stores rotation negated relative to Phichain's own sign.
			events = append(events, commonToEvent(chart.KindRotation, e, -1))
		}
		for _, e := range layer.AlphaEvents {
			events = append(events, commonToEvent(chart.KindOpacity, e, 1))
		}
		for _, e := range layer.SpeedEvents {
			events = append(events, chart.Event{
				Kind:      chart.KindSpeed,
				StartBeat: e.StartTime.toBeat(),
				EndBeat:   e.EndTime.toBeat(),
				Value:     chart.Transitioning(e.Start, e.End, easing.Named(easing.Linear)),
			})
		}
	}

	var notes []chart.Note
	for _, n := range line.Notes {
		startBeat := n.StartTime.toBeat()
		endBeat := n.EndTime.toBeat()
		var kind chart.NoteKind
		switch n.Kind {
		case noteTap:
			kind = chart.Tap()
		case noteDrag:
			kind = chart.Drag()
		case noteFlick:
			kind = chart.Flick()
		case noteHold:
			kind = chart.Hold(beat.Sub(endBeat, startBeat))
		default:
			return chart.PrimitiveLine{}, fmt.Errorf("rpe: unknown note type %d", n.Kind)
		}
		notes = append(notes, chart.Note{
			Kind: kind, Above: n.Above == 1, Beat: startBeat,
			X: n.PositionX, Speed: n.Speed,
		})
	}

	return chart.PrimitiveLine{Notes: notes, Events: events}, nil
}

func commonToEvent(kind chart.Kind, e CommonEvent, sign float64) chart.Event {
	var ez easing.Easing
	if e.Bezier == 1 {
		ez = easing.NewCustom(e.BezierPoints[0], e.BezierPoints[1], e.BezierPoints[2], e.BezierPoints[3])
	} else {
		ez = easingFromID(int(e.EasingType))
	}
	return chart.Event{
		Kind:      kind,
		StartBeat: e.StartTime.toBeat(),
		EndBeat:   e.EndTime.toBeat(),
		Value:     chart.Transitioning(sign*e.Start, sign*e.End, ez),
	}
}

// Encode lowers a Primitive chart into an RPE chart. Every line's events go
// into a single event layer, matching the exporter's shape (RPE supports
// multiple layers per line for authoring convenience; this module never
// produces more than one since Primitive has no layer concept).
func Encode(p *chart.Primitive) (*Chart, error) {
	rc := &Chart{Meta: Meta{Offset: int32(p.OffsetMS)}}

	for _, point := range p.BPM.Points {
		rc.BPMList = append(rc.BPMList, BPMPoint{BPM: point.BPM, StartTime: fromBeat(point.Beat)})
	}

	for _, line := range p.Lines {
		rc.JudgeLineList = append(rc.JudgeLineList, encodeLine(line))
	}
	return rc, nil
}

func encodeLine(line chart.PrimitiveLine) JudgeLine {
	jl := JudgeLine{}

	notes := append([]chart.Note(nil), line.Notes...)
	sort.SliceStable(notes, func(i, j int) bool { return beat.Less(notes[i].Beat, notes[j].Beat) })
	for _, n := range notes {
		var kind int32
		switch n.Kind.Tag {
		case chart.NoteTap:
			kind = noteTap
		case chart.NoteDrag:
			kind = noteDrag
		case chart.NoteHold:
			kind = noteHold
		case chart.NoteFlick:
			kind = noteFlick
		}
		above := int32(2)
		if n.Above {
			above = 1
		}
		jl.Notes = append(jl.Notes, Note{
			Above: above, EndTime: fromBeat(n.EndBeat()), PositionX: n.X, Speed: n.Speed,
			StartTime: fromBeat(n.Beat), Size: 1.0, VisibleTime: 999999.0, Kind: kind,
		})
	}

	layer := EventLayer{}
	for _, e := range line.Events {
		common := eventToCommon(e)
		switch e.Kind {
		case chart.KindX:
			layer.MoveXEvents = append(layer.MoveXEvents, common)
		case chart.KindY:
			layer.MoveYEvents = append(layer.MoveYEvents, common)
		case chart.KindRotation:
			negated := common
			negated.Start, negated.End = -common.Start, -common.End
			layer.RotateEvents = append(layer.RotateEvents, negated)
		case chart.KindOpacity:
			layer.AlphaEvents = append(layer.AlphaEvents, common)
		case chart.KindSpeed:
			layer.SpeedEvents = append(layer.SpeedEvents, SpeedEvent{
				Start: e.Value.Start, End: e.Value.End,
				StartTime: fromBeat(e.StartBeat), EndTime: fromBeat(e.EndBeat),
			})
		}
	}
	jl.EventLayers = append(jl.EventLayers, layer)
	return jl
}

func eventToCommon(e chart.Event) CommonEvent {
	common := CommonEvent{
		Start: e.Value.Start, End: e.Value.End,
		StartTime: fromBeat(e.StartBeat), EndTime: fromBeat(e.EndBeat),
	}
	if e.Value.Easing.IsCustom() {
		common.Bezier = 1
		common.EasingType = 1
		common.BezierPoints = [4]float64{e.Value.Easing.X1, e.Value.Easing.Y1, e.Value.Easing.X2, e.Value.Easing.Y2}
	} else {
		common.EasingType = int32(idFromEasing(e.Value.Easing))
	}
	return common
}
