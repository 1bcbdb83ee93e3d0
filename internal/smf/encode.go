package smf

import (
	"fmt"
	"io"
)

// RunningStatusMode selects whether the encoder omits repeated status bytes.
type RunningStatusMode int

const (
	// RunningStatusAuto compresses only if the decoded input did.
	RunningStatusAuto RunningStatusMode = iota
	RunningStatusAlways
	RunningStatusNever
)

func (m RunningStatusMode) String() string {
	switch m {
	case RunningStatusAuto:
		return "auto"
	case RunningStatusAlways:
		return "always"
	case RunningStatusNever:
		return "never"
	}
	return fmt.Sprintf("RunningStatusMode(%d)", int(m))
}

// ParseRunningStatusMode parses "auto", "always" or "never". The empty string means auto.
func ParseRunningStatusMode(s string) (RunningStatusMode, error) {
	switch s {
	case "", "auto":
		return RunningStatusAuto, nil
	case "always":
		return RunningStatusAlways, nil
	case "never":
		return RunningStatusNever, nil
	}
	return 0, fmt.Errorf("unknown running status mode %q", s)
}

func (m RunningStatusMode) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

func (m *RunningStatusMode) UnmarshalText(b []byte) error {
	v, err := ParseRunningStatusMode(string(b))
	if err != nil {
		return err
	}
	*m = v
	return nil
}

// EncodeOptions controls serialization.
type EncodeOptions struct {
	RunningStatus RunningStatusMode
}

// Encode serializes f into a Standard MIDI File.
func Encode(f *File, opts EncodeOptions) ([]byte, error) {
	if f.Format > 2 {
		return nil, fmt.Errorf("format %d: %w", f.Format, ErrValueOutOfRange)
	}
	if len(f.Tracks) > 0xFFFF {
		return nil, fmt.Errorf("%d tracks: %w", len(f.Tracks), ErrValueOutOfRange)
	}
	if f.Format == 0 && len(f.Tracks) != 1 {
		return nil, fmt.Errorf("format 0 with %d tracks: %w", len(f.Tracks), ErrValueOutOfRange)
	}
	running := opts.RunningStatus == RunningStatusAlways ||
		(opts.RunningStatus == RunningStatusAuto && f.RunningStatus)

	var w writer
	w.Write(headerChunk[:])
	w.WriteU32(headerLength)
	w.WriteU16(f.Format)
	w.WriteU16(uint16(len(f.Tracks)))
	w.WriteU16(uint16(f.Division))

	for i, t := range f.Tracks {
		body, err := encodeTrack(t, running)
		if err != nil {
			return nil, fmt.Errorf("track %d: %w", i, err)
		}
		if err := writeChunk(&w, trackChunk, body); err != nil {
			return nil, fmt.Errorf("track %d: %w", i, err)
		}
	}
	for _, c := range f.Extra {
		if err := writeChunk(&w, c.Type, c.Data); err != nil {
			return nil, fmt.Errorf("chunk %q: %w", c.Type[:], err)
		}
	}
	return w.Bytes(), nil
}

// WriteTo encodes f with default options and writes it to w.
func (f *File) WriteTo(w io.Writer) (int64, error) {
	b, err := Encode(f, EncodeOptions{})
	if err != nil {
		return 0, err
	}
	n, err := w.Write(b)
	return int64(n), err
}

func writeChunk(w *writer, typ [4]byte, body []byte) error {
	if uint64(len(body)) > 0xFFFFFFFF {
		return fmt.Errorf("chunk of %d bytes: %w", len(body), ErrValueOutOfRange)
	}
	w.Write(typ[:])
	w.WriteU32(uint32(len(body)))
	w.Write(body)
	return nil
}

// encodeTrack serializes the events of t into a track chunk body.
func encodeTrack(t Track, running bool) ([]byte, error) {
	if err := t.Validate(); err != nil {
		return nil, err
	}
	var w writer
	var status byte
	for i, ev := range t.Events {
		if err := w.WriteVLQ(ev.Delta); err != nil {
			return nil, fmt.Errorf("event %d delta: %w", i, err)
		}
		switch m := ev.Message.(type) {
		case ChannelMessage:
			if m.Status < 0x80 || m.Status >= 0xF0 || m.Data1 > 0x7F || m.Data2 > 0x7F {
				return nil, fmt.Errorf("event %d: %v: %w", i, m, ErrValueOutOfRange)
			}
			b := m.Bytes()
			if running && m.Status == status {
				b = b[1:]
			}
			status = m.Status
			w.Write(b)
		case MetaMessage:
			if m.Type > 0x7F {
				return nil, fmt.Errorf("event %d: meta type %#02x: %w", i, m.Type, ErrValueOutOfRange)
			}
			if len(m.Data) > MaxVLQ {
				return nil, fmt.Errorf("event %d: meta payload of %d bytes: %w", i, len(m.Data), ErrValueOutOfRange)
			}
			status = 0
			w.Write(m.Bytes())
		case SysExMessage:
			if m.Status != statusSysEx && m.Status != statusSysExEsc {
				return nil, fmt.Errorf("event %d: sysex status %#02x: %w", i, m.Status, ErrValueOutOfRange)
			}
			if len(m.Data) > MaxVLQ {
				return nil, fmt.Errorf("event %d: sysex payload of %d bytes: %w", i, len(m.Data), ErrValueOutOfRange)
			}
			status = 0
			w.Write(m.Bytes())
		default:
			return nil, fmt.Errorf("event %d: unsupported message %T", i, ev.Message)
		}
	}
	return w.Bytes(), nil
}
