// Package render drives a headless frame-by-frame playback of a chart,
// the way original_source/phichain-renderer/src/main.rs's Bevy render loop
// does, but with the GPU frame encode step (sprite rendering itself is a
// spec Non-goal) stubbed behind the Encoder interface. Each frame still
// folds the resolved line state and integrated floor position into the
// frame buffer's header bytes, so a render pass is driven by the actual
// chart state rather than emitting blank frames.
package render

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/phichain-go/phichain/internal/chart"
)

// frameHeaderSize is the number of leading bytes of each frame buffer that
// carry the encoded scene checksum; the rest is left blank standing in for
// the GPU sprite render that's out of scope here.
const frameHeaderSize = 8

// Encoder consumes one raw RGBA frame at a time. FFmpegEncoder pipes frames
// to an ffmpeg subprocess; NopEncoder discards them (useful for --from/--to
// dry runs and tests).
type Encoder interface {
	WriteFrame(rgba []byte) error
	Close() error
}

// Options configures a single render pass.
type Options struct {
	Width, Height int
	FPS           int
	From, To      float64 // seconds of song time
}

// Checkpoint is invoked after every frame is encoded, letting the caller
// persist progress (internal/renderqueue.CheckpointFrame) for --resume.
type Checkpoint func(frame int64) error

// Renderer owns one chart document's flattened lines and hit-sound state
// across a render pass.
type Renderer struct {
	doc     *chart.Document
	lines   []*chart.Line
	speed   [][]chart.SpeedInterval // speed[i] is lines[i]'s speed-over-time curve
	tracker *chart.Tracker
}

// New flattens the document's line tree, prepares hit-sound tracking, and
// converts each line's speed events into the wall-clock speed intervals
// the floor-position integrator consumes.
func New(doc *chart.Document) (*Renderer, error) {
	if err := doc.Validate(); err != nil {
		return nil, fmt.Errorf("render: new: %w", err)
	}

	var lines []*chart.Line
	for _, root := range doc.Lines {
		lines = append(lines, chart.Flatten(root)...)
	}

	speed := make([][]chart.SpeedInterval, len(lines))
	for i, line := range lines {
		intervals, err := speedIntervals(doc, line)
		if err != nil {
			return nil, fmt.Errorf("render: new: line %q: %w", line.Name, err)
		}
		speed[i] = intervals
	}

	return &Renderer{doc: doc, lines: lines, speed: speed, tracker: chart.NewTracker(doc.BPM)}, nil
}

// speedIntervals converts a line's speed events, in beats, into the
// wall-clock SpeedInterval curve FloorPosition integrates over.
func speedIntervals(doc *chart.Document, l *chart.Line) ([]chart.SpeedInterval, error) {
	events := l.Events.GroupByKind()[chart.KindSpeed].Sorted()

	intervals := make([]chart.SpeedInterval, 0, len(events))
	for _, e := range events {
		startTime, err := doc.BPM.TimeAt(e.StartBeat)
		if err != nil {
			return nil, err
		}
		endTime, err := doc.BPM.TimeAt(e.EndBeat)
		if err != nil {
			return nil, err
		}
		intervals = append(intervals, chart.SpeedInterval{
			StartTime:  startTime,
			EndTime:    endTime,
			StartValue: e.Value.At(0),
			EndValue:   e.Value.At(1),
		})
	}
	return intervals, nil
}

// Run drives the frame loop from opts.From to opts.To at opts.FPS. Each
// frame it resolves every flattened line's state, integrates its floor
// position from the accumulated speed curve, and advances hit-sound
// triggers; the resolved state and floor positions are folded into the
// encoded frame's header bytes (the sprite render itself stays stubbed),
// and progress is reported via checkpoint so a render can resume from the
// last completed frame.
func (r *Renderer) Run(opts Options, enc Encoder, checkpoint Checkpoint, startFrame int64) error {
	if opts.FPS <= 0 {
		return fmt.Errorf("render: run: invalid fps %d", opts.FPS)
	}
	frameSize := opts.Width * opts.Height * 4
	dt := 1.0 / float64(opts.FPS)

	totalFrames := int64((opts.To - opts.From) / dt)
	frame := startFrame

	for ; frame < totalFrames; frame++ {
		time := opts.From + float64(frame)*dt

		b, err := r.doc.BPM.BeatAt(time)
		if err != nil {
			return fmt.Errorf("render: run: frame %d: %w", frame, err)
		}

		var notes []chart.Note
		scene := 0.0
		for i, line := range r.lines {
			state := chart.Resolve(line, b)
			floor := chart.FloorPosition(r.speed[i], time)
			scene += state.X + state.Y + state.RotationDeg + state.Opacity01
			for _, n := range line.Notes {
				scene += floor*n.Speed + n.EndBeat().Value()*1e-9
			}
			notes = append(notes, line.Notes...)
		}
		if _, err := r.tracker.Advance(notes, time, false); err != nil {
			return fmt.Errorf("render: run: frame %d: %w", frame, err)
		}

		buf := make([]byte, frameSize)
		if frameSize >= frameHeaderSize {
			binary.LittleEndian.PutUint64(buf[:frameHeaderSize], math.Float64bits(scene))
		}
		if err := enc.WriteFrame(buf); err != nil {
			return fmt.Errorf("render: run: frame %d: %w", frame, err)
		}
		if checkpoint != nil {
			if err := checkpoint(frame); err != nil {
				return fmt.Errorf("render: run: frame %d: checkpoint: %w", frame, err)
			}
		}
	}

	return enc.Close()
}
