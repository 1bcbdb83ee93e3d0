package processor

import (
	gosmf "gitlab.com/gomidi/midi/v2/smf"
)

type key struct {
	ch, note uint8
}

// noteTracker counts sounding notes in a gomidi event stream.
type noteTracker struct {
	activeNotes map[key]int
	// started is the number of notes ever started.
	started int
}

func newNoteTracker() *noteTracker {
	return &noteTracker{
		activeNotes: map[key]int{},
	}
}

// Playing reports whether any note is still sounding.
func (t *noteTracker) Playing() bool {
	return len(t.activeNotes) > 0
}

// Handle updates the tracker and reports whether msg started a note.
func (t *noteTracker) Handle(msg gosmf.Message) bool {
	var ch, note uint8
	if msg.GetNoteStart(&ch, &note, nil) {
		t.activeNotes[key{ch, note}]++
		t.started++
		return true
	}
	if msg.GetNoteEnd(&ch, &note) {
		k := key{ch, note}
		if t.activeNotes[k] > 0 {
			t.activeNotes[k]--
			if t.activeNotes[k] == 0 {
				delete(t.activeNotes, k)
			}
		}
	}
	return false
}
