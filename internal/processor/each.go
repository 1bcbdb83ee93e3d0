package processor

import (
	"errors"

	"github.com/divVerent/midisplitter/internal/smf"
)

// StopIteration can be returned to return without failure.
var StopIteration = errors.New("ForEachEventWithTime: StopIteration")

// ForEachEventWithTime runs the given function for each event of all tracks
// in order of absolute time. Note ends sort before other events at the same
// tick. End-of-track events are skipped.
func ForEachEventWithTime(f *smf.File, yield func(time int64, track int, msg smf.Message) error) error {
	// trackPos is the index of the NEXT event from each track.
	trackPos := make([]int, len(f.Tracks))
	// trackTime is the time of the LAST event from each track.
	trackTime := make([]int64, len(f.Tracks))
	for {
		earliestTrack := -1
		var earliestTime int64
		var earliestNoteEnd bool
		for i, t := range f.Tracks {
			p := trackPos[i]
			if p >= len(t.Events) {
				continue
			}
			time := trackTime[i] + int64(t.Events[p].Delta)
			noteEnd := isNoteEnd(t.Events[p].Message)
			if earliestTrack < 0 || time < earliestTime || (time == earliestTime && noteEnd && !earliestNoteEnd) {
				earliestTime = time
				earliestTrack = i
				earliestNoteEnd = noteEnd
			}
		}
		if earliestTrack < 0 {
			return nil
		}
		msg := f.Tracks[earliestTrack].Events[trackPos[earliestTrack]].Message
		if meta, ok := msg.(smf.MetaMessage); !ok || !meta.IsEndOfTrack() {
			err := yield(earliestTime, earliestTrack, msg)
			if errors.Is(err, StopIteration) {
				return nil
			}
			if err != nil {
				return err
			}
		}
		trackPos[earliestTrack]++
		trackTime[earliestTrack] = earliestTime
	}
}

func isNoteEnd(msg smf.Message) bool {
	m, ok := msg.(smf.ChannelMessage)
	return ok && m.IsNoteEnd()
}
