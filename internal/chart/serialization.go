package chart

import (
	"encoding/json"
	"fmt"

	"github.com/phichain-go/phichain/internal/beat"
	"github.com/phichain-go/phichain/internal/bpm"
	"github.com/phichain-go/phichain/internal/easing"
)

// CurrentFormat is the on-disk schema version this package reads and
// writes natively; older charts must pass through internal/migration first.
const CurrentFormat = 5

// Document is the on-disk JSON chart: { format, offset, bpm_list, lines }.
type Document struct {
	Format  int64
	OffsetMS float64
	BPM     *bpm.List
	Lines   []*Line
}

type wireDocument struct {
	Format   int64          `json:"format"`
	Offset   float64        `json:"offset"`
	BPMList  []wireBPMPoint `json:"bpm_list"`
	Lines    []wireLine     `json:"lines"`
}

type wireBPMPoint struct {
	Beat beat.Beat `json:"beat"`
	BPM  float64   `json:"bpm"`
	Time float64   `json:"time"`
}

type wireLine struct {
	Notes           []wireNote  `json:"notes"`
	Events          []wireEvent `json:"events"`
	Children        []wireLine  `json:"children,omitempty"`
	CurveNoteTracks []wireCNT   `json:"curve_note_tracks"`
	Name            string      `json:"name,omitempty"`
}

type wireHold struct {
	HoldBeat beat.Beat `json:"hold_beat"`
}

type wireNote struct {
	Kind  json.RawMessage `json:"kind"`
	Above bool            `json:"above"`
	Beat  beat.Beat       `json:"beat"`
	X     float64         `json:"x"`
	Speed float64         `json:"speed"`
}

type wireEvent struct {
	Kind      string          `json:"kind"`
	StartBeat beat.Beat       `json:"start_beat"`
	EndBeat   beat.Beat       `json:"end_beat"`
	Value     json.RawMessage `json:"value"`
}

type wireTransition struct {
	Start  float64       `json:"start"`
	End    float64       `json:"end"`
	Easing easing.Easing `json:"easing"`
}

type wireValueEnvelope struct {
	Transition *wireTransition `json:"transition,omitempty"`
	Constant   *float64        `json:"constant,omitempty"`
}

type wireCNT struct {
	From    json.RawMessage `json:"from"`
	To      json.RawMessage `json:"to"`
	Density uint8           `json:"density"`
	Kind    json.RawMessage `json:"kind"`
	Curve   easing.Easing   `json:"curve"`
}

var kindNames = map[Kind]string{
	KindX: "x", KindY: "y", KindRotation: "rotation",
	KindOpacity: "opacity", KindSpeed: "speed",
}

var kindByName = func() map[string]Kind {
	m := map[string]Kind{}
	for k, n := range kindNames {
		m[n] = k
	}
	return m
}()

// MarshalJSON encodes the chart document to the on-disk wire format.
func (d *Document) MarshalJSON() ([]byte, error) {
	w := wireDocument{Format: d.Format, Offset: d.OffsetMS}
	if d.BPM != nil {
		for _, p := range d.BPM.Points {
			w.BPMList = append(w.BPMList, wireBPMPoint{Beat: p.Beat, BPM: p.BPM, Time: p.Time})
		}
	}
	for _, l := range d.Lines {
		wl, err := marshalLine(l)
		if err != nil {
			return nil, err
		}
		w.Lines = append(w.Lines, wl)
	}
	return json.Marshal(w)
}

func marshalLine(l *Line) (wireLine, error) {
	wl := wireLine{Name: l.Name}
	for _, n := range l.Notes {
		wn, err := marshalNote(n)
		if err != nil {
			return wl, err
		}
		wl.Notes = append(wl.Notes, wn)
	}
	for _, e := range l.Events {
		we, err := marshalEvent(e)
		if err != nil {
			return wl, err
		}
		wl.Events = append(wl.Events, we)
	}
	for _, c := range l.Children {
		wc, err := marshalLine(c)
		if err != nil {
			return wl, err
		}
		wl.Children = append(wl.Children, wc)
	}
	for _, t := range l.CurveNoteTracks {
		wt, err := marshalCNT(t)
		if err != nil {
			return wl, err
		}
		wl.CurveNoteTracks = append(wl.CurveNoteTracks, wt)
	}
	if wl.CurveNoteTracks == nil {
		wl.CurveNoteTracks = []wireCNT{}
	}
	return wl, nil
}

func marshalNoteKind(k NoteKind) (json.RawMessage, error) {
	switch k.Tag {
	case NoteTap:
		return json.Marshal("tap")
	case NoteDrag:
		return json.Marshal("drag")
	case NoteFlick:
		return json.Marshal("flick")
	case NoteHold:
		return json.Marshal(struct {
			Hold wireHold `json:"hold"`
		}{wireHold{HoldBeat: k.HoldBeat}})
	default:
		return nil, fmt.Errorf("marshal note kind: unknown tag %d", k.Tag)
	}
}

func unmarshalNoteKind(data json.RawMessage) (NoteKind, error) {
	var name string
	if err := json.Unmarshal(data, &name); err == nil {
		switch name {
		case "tap":
			return Tap(), nil
		case "drag":
			return Drag(), nil
		case "flick":
			return Flick(), nil
		}
		return NoteKind{}, fmt.Errorf("unmarshal note kind: unknown name %q", name)
	}
	var holdEnv struct {
		Hold wireHold `json:"hold"`
	}
	if err := json.Unmarshal(data, &holdEnv); err != nil {
		return NoteKind{}, fmt.Errorf("unmarshal note kind: %w", err)
	}
	return Hold(holdEnv.Hold.HoldBeat), nil
}

func marshalNote(n Note) (wireNote, error) {
	kindJSON, err := marshalNoteKind(n.Kind)
	if err != nil {
		return wireNote{}, err
	}
	return wireNote{Kind: kindJSON, Above: n.Above, Beat: n.Beat, X: n.X, Speed: n.Speed}, nil
}

func unmarshalNote(wn wireNote) (Note, error) {
	kind, err := unmarshalNoteKind(wn.Kind)
	if err != nil {
		return Note{}, err
	}
	return Note{Kind: kind, Above: wn.Above, Beat: wn.Beat, X: wn.X, Speed: wn.Speed}, nil
}

func marshalEvent(e Event) (wireEvent, error) {
	name, ok := kindNames[e.Kind]
	if !ok {
		return wireEvent{}, fmt.Errorf("marshal event: unknown kind %d", e.Kind)
	}
	var envelope wireValueEnvelope
	if e.Value.Transition {
		envelope.Transition = &wireTransition{Start: e.Value.Start, End: e.Value.End, Easing: e.Value.Easing}
	} else {
		v := e.Value.Start
		envelope.Constant = &v
	}
	valueJSON, err := json.Marshal(envelope)
	if err != nil {
		return wireEvent{}, err
	}
	return wireEvent{Kind: name, StartBeat: e.StartBeat, EndBeat: e.EndBeat, Value: valueJSON}, nil
}

func unmarshalEvent(we wireEvent) (Event, error) {
	kind, ok := kindByName[we.Kind]
	if !ok {
		return Event{}, fmt.Errorf("unmarshal event: unknown kind %q", we.Kind)
	}
	var envelope wireValueEnvelope
	if err := json.Unmarshal(we.Value, &envelope); err != nil {
		return Event{}, fmt.Errorf("unmarshal event value: %w", err)
	}
	var value Value
	switch {
	case envelope.Transition != nil:
		value = Transitioning(envelope.Transition.Start, envelope.Transition.End, envelope.Transition.Easing)
	case envelope.Constant != nil:
		value = Constant(*envelope.Constant)
	default:
		return Event{}, fmt.Errorf("unmarshal event value: neither transition nor constant present")
	}
	return Event{Kind: kind, StartBeat: we.StartBeat, EndBeat: we.EndBeat, Value: value}, nil
}

func marshalCNT(c CNT) (wireCNT, error) {
	fromJSON, err := json.Marshal(c.From)
	if err != nil {
		return wireCNT{}, err
	}
	toJSON, err := json.Marshal(c.To)
	if err != nil {
		return wireCNT{}, err
	}
	kindJSON, err := marshalNoteKind(c.Options.Kind)
	if err != nil {
		return wireCNT{}, err
	}
	return wireCNT{From: fromJSON, To: toJSON, Density: c.Options.Density, Kind: kindJSON, Curve: c.Options.Curve}, nil
}

// UnmarshalJSON decodes a chart document from the on-disk wire format.
func (d *Document) UnmarshalJSON(data []byte) error {
	var w wireDocument
	if err := json.Unmarshal(data, &w); err != nil {
		return fmt.Errorf("decode chart document: %w", err)
	}
	d.Format = w.Format
	d.OffsetMS = w.Offset

	if len(w.BPMList) == 0 {
		return fmt.Errorf("decode chart document: %w", bpm.ErrEmpty)
	}
	points := make([]bpm.Point, len(w.BPMList))
	for i, p := range w.BPMList {
		points[i] = bpm.Point{Beat: p.Beat, BPM: p.BPM}
	}
	d.BPM = bpm.New(points)
	if err := d.BPM.Validate(); err != nil {
		return fmt.Errorf("decode chart document: %w", err)
	}

	for _, wl := range w.Lines {
		l, err := unmarshalLine(wl)
		if err != nil {
			return err
		}
		d.Lines = append(d.Lines, l)
	}
	return nil
}

func unmarshalLine(wl wireLine) (*Line, error) {
	l := &Line{Name: wl.Name}
	for _, wn := range wl.Notes {
		n, err := unmarshalNote(wn)
		if err != nil {
			return nil, err
		}
		if beat.Less(n.EndBeat(), n.Beat) {
			return nil, fmt.Errorf("decode line %q: note end beat before start beat", wl.Name)
		}
		l.Notes = append(l.Notes, n)
	}
	for _, we := range wl.Events {
		e, err := unmarshalEvent(we)
		if err != nil {
			return nil, err
		}
		if beat.Less(e.EndBeat, e.StartBeat) {
			return nil, fmt.Errorf("decode line %q: event end beat before start beat", wl.Name)
		}
		l.Events = append(l.Events, e)
	}
	for _, wc := range wl.Children {
		c, err := unmarshalLine(wc)
		if err != nil {
			return nil, err
		}
		l.Children = append(l.Children, c)
	}
	for _, wt := range wl.CurveNoteTracks {
		c, err := unmarshalCNT(wt)
		if err != nil {
			return nil, err
		}
		l.CurveNoteTracks = append(l.CurveNoteTracks, c)
	}
	return l, nil
}

func unmarshalCNT(wt wireCNT) (CNT, error) {
	var from, to wireNote
	if err := json.Unmarshal(wt.From, &from); err != nil {
		return CNT{}, fmt.Errorf("decode curve note track: %w", err)
	}
	if err := json.Unmarshal(wt.To, &to); err != nil {
		return CNT{}, fmt.Errorf("decode curve note track: %w", err)
	}
	fromNote, err := unmarshalNote(from)
	if err != nil {
		return CNT{}, err
	}
	toNote, err := unmarshalNote(to)
	if err != nil {
		return CNT{}, err
	}
	kind, err := unmarshalNoteKind(wt.Kind)
	if err != nil {
		return CNT{}, err
	}
	return CNT{
		From: fromNote,
		To:   toNote,
		Options: CNTOptions{
			Density: wt.Density,
			Kind:    kind,
			Curve:   wt.Curve,
		},
	}, nil
}
