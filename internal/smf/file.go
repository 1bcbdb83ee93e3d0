package smf

import (
	"bytes"
	"fmt"
)

// Division is the MThd division field.
type Division uint16

// TicksPerQuarterNote returns the metric resolution, or 0 for SMPTE divisions.
func (d Division) TicksPerQuarterNote() uint16 {
	if d&0x8000 != 0 {
		return 0
	}
	return uint16(d)
}

// SMPTE returns frames per second and ticks per frame, or 0, 0 for metric divisions.
func (d Division) SMPTE() (fps, ticksPerFrame uint8) {
	if d&0x8000 == 0 {
		return 0, 0
	}
	return uint8(-int8(d >> 8)), uint8(d)
}

func (d Division) String() string {
	if tpq := d.TicksPerQuarterNote(); tpq != 0 || d == 0 {
		return fmt.Sprintf("%d ticks per quarter note", tpq)
	}
	fps, tpf := d.SMPTE()
	return fmt.Sprintf("%d fps, %d ticks per frame", fps, tpf)
}

// Track is the event list of one MTrk chunk.
type Track struct {
	Events []Event
}

// Add appends a message with the given delta.
func (t *Track) Add(delta uint32, msg Message) {
	t.Events = append(t.Events, Event{Delta: delta, Message: msg})
}

// Close appends the end-of-track event.
func (t *Track) Close(delta uint32) {
	t.Add(delta, EndOfTrack())
}

// Duration returns the sum of all delta times in ticks.
func (t Track) Duration() uint64 {
	var d uint64
	for _, ev := range t.Events {
		d += uint64(ev.Delta)
	}
	return d
}

// Name returns the text of the first track name meta event.
func (t Track) Name() (string, bool) {
	for _, ev := range t.Events {
		if m, ok := ev.Message.(MetaMessage); ok && m.Type == MetaTrackName {
			return string(m.Data), true
		}
	}
	return "", false
}

// Clone returns a deep copy of the track.
func (t Track) Clone() Track {
	events := make([]Event, len(t.Events))
	for i, ev := range t.Events {
		events[i] = Event{Delta: ev.Delta, Message: cloneMessage(ev.Message)}
	}
	return Track{Events: events}
}

// Validate checks that the track ends with its only end-of-track event.
func (t Track) Validate() error {
	for i, ev := range t.Events {
		m, ok := ev.Message.(MetaMessage)
		if !ok || !m.IsEndOfTrack() {
			continue
		}
		if i != len(t.Events)-1 {
			return fmt.Errorf("end of track at event %d of %d: %w", i, len(t.Events), ErrMissingEndOfTrack)
		}
		return nil
	}
	return ErrMissingEndOfTrack
}

// Chunk is an unknown chunk kept opaque.
type Chunk struct {
	Type [4]byte
	Data []byte
}

// File is a decoded Standard MIDI File.
type File struct {
	Format   uint16
	Division Division
	Tracks   []Track
	// Extra holds unknown chunks found after the last track.
	Extra []Chunk
	// RunningStatus is set if the input used running status anywhere.
	RunningStatus bool
}

// Clone returns a deep copy of the file.
func (f *File) Clone() *File {
	out := &File{
		Format:        f.Format,
		Division:      f.Division,
		Tracks:        make([]Track, len(f.Tracks)),
		RunningStatus: f.RunningStatus,
	}
	for i, t := range f.Tracks {
		out.Tracks[i] = t.Clone()
	}
	for _, c := range f.Extra {
		out.Extra = append(out.Extra, Chunk{Type: c.Type, Data: bytes.Clone(c.Data)})
	}
	return out
}

func (f *File) String() string {
	return fmt.Sprintf("format %d, %d track(s), %v", f.Format, len(f.Tracks), f.Division)
}
