package processor

import (
	"bytes"
	"fmt"

	gosmf "gitlab.com/gomidi/midi/v2/smf"

	"github.com/divVerent/midisplitter/internal/smf"
)

// verifyOutput reads an encoded output back with gomidi and compares it
// against the in-memory file it was encoded from.
func verifyOutput(data []byte, want *smf.File, target int, policy VelocityPolicy) error {
	mid, err := gosmf.ReadFrom(bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("gomidi could not read output: %w", err)
	}
	if len(mid.Tracks) != len(want.Tracks) {
		return fmt.Errorf("gomidi sees %d tracks, want %d", len(mid.Tracks), len(want.Tracks))
	}
	for i, t := range mid.Tracks {
		var duration uint64
		tracker := newNoteTracker()
		for _, ev := range t {
			duration += uint64(ev.Delta)
			tracker.Handle(ev.Message)
		}
		if d := want.Tracks[i].Duration(); duration != d {
			return fmt.Errorf("track %d: gomidi sees duration %d, want %d", i, duration, d)
		}
		if i != target && policy.Kind == Mute && tracker.started > 0 {
			return fmt.Errorf("track %d: %d notes still sound although the track is muted", i, tracker.started)
		}
		if i != target && policy.Kind != Keep {
			continue
		}
		// Unchanged tracks must leave the same notes hanging as the source.
		source := newNoteTracker()
		for _, ev := range want.Tracks[i].Events {
			source.Handle(gosmf.Message(ev.Message.Bytes()))
		}
		if tracker.Playing() != source.Playing() {
			return fmt.Errorf("track %d: gomidi sees hanging notes %v, want %v", i, tracker.Playing(), source.Playing())
		}
	}
	return nil
}
