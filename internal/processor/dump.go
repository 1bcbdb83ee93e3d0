package processor

import (
	"log"

	gosmf "gitlab.com/gomidi/midi/v2/smf"

	"github.com/divVerent/midisplitter/internal/smf"
)

// Dump logs a summary of the file: its tracks and the tempo map. With
// events set, every event is logged as well.
func Dump(prefix string, f *smf.File, events bool) {
	log.Printf("%s: %v.", prefix, f)
	for i, t := range f.Tracks {
		name, _ := t.Name()
		log.Printf("%s: track %d %q: %d events, %d ticks.", prefix, i, decodeText(name), len(t.Events), t.Duration())
		if !events {
			continue
		}
		var time uint64
		for _, ev := range t.Events {
			time += uint64(ev.Delta)
			log.Printf("%s:   %d @ %d: %v", prefix, i, time, gosmf.Message(ev.Message.Bytes()))
		}
	}
	ForEachEventWithTime(f, func(time int64, track int, msg smf.Message) error {
		var bpm float64
		if gosmf.Message(msg.Bytes()).GetMetaTempo(&bpm) {
			log.Printf("%s: %d @ track %d: tempo is %f bpm.", prefix, time, track, bpm)
		}
		return nil
	})
	for _, c := range f.Extra {
		log.Printf("%s: extra chunk %q of %d bytes.", prefix, c.Type[:], len(c.Data))
	}
}
