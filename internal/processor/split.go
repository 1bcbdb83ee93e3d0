package processor

import (
	"fmt"

	"github.com/divVerent/midisplitter/internal/smf"
)

// Split returns one file per track of f. In output i, track i is an exact
// copy and all other tracks have policy applied to their note-on events.
// f itself is not modified.
func Split(f *smf.File, policy VelocityPolicy) ([]*smf.File, error) {
	if f.Format == 0 {
		return nil, fmt.Errorf("format 0 has no independent tracks: %w", smf.ErrNotSplittable)
	}
	out := make([]*smf.File, len(f.Tracks))
	for i := range f.Tracks {
		var err error
		out[i], err = SplitOne(f, i, policy)
		if err != nil {
			return nil, err
		}
	}
	return out, nil
}

// SplitOne builds the output file for a single target track.
func SplitOne(f *smf.File, target int, policy VelocityPolicy) (*smf.File, error) {
	if f.Format == 0 {
		return nil, fmt.Errorf("format 0 has no independent tracks: %w", smf.ErrNotSplittable)
	}
	if target < 0 || target >= len(f.Tracks) {
		return nil, fmt.Errorf("track %d of %d: %w", target, len(f.Tracks), smf.ErrValueOutOfRange)
	}
	out := f.Clone()
	for i := range out.Tracks {
		if i == target {
			continue
		}
		applyPolicy(&out.Tracks[i], policy)
	}
	return out, nil
}

// applyPolicy rewrites the velocity of every sounding note-on in t.
func applyPolicy(t *smf.Track, policy VelocityPolicy) {
	if policy.Kind == Keep {
		return
	}
	for i, ev := range t.Events {
		m, ok := ev.Message.(smf.ChannelMessage)
		if !ok || !m.IsNoteOn() {
			continue
		}
		m.Data2 = policy.Apply(m.Data2)
		t.Events[i].Message = m
	}
}
