package smf

import (
	"errors"
	"fmt"
)

var (
	headerChunk = [4]byte{'M', 'T', 'h', 'd'}
	trackChunk  = [4]byte{'M', 'T', 'r', 'k'}
)

const headerLength = 6

// ReadFormat returns the format field of the MThd chunk at the start of data
// without looking at anything after it.
func ReadFormat(data []byte) (uint16, error) {
	r := newReader(data)
	magic, err := r.ReadBytes(4)
	if err != nil {
		return 0, fmt.Errorf("chunk type: %w", err)
	}
	if string(magic) != string(headerChunk[:]) {
		return 0, fmt.Errorf("got %q: %w", magic, ErrInvalidMagic)
	}
	if _, err := r.ReadU32(); err != nil {
		return 0, fmt.Errorf("chunk length: %w", err)
	}
	return r.ReadU16()
}

// Decode parses a complete Standard MIDI File.
func Decode(data []byte) (*File, error) {
	r := newReader(data)
	fail := func(track, event, offset int, err error) error {
		return &DecodeError{Offset: offset, Track: track, Event: event, Err: err}
	}

	magic, err := r.ReadBytes(4)
	if err != nil {
		return nil, fail(-1, -1, 0, fmt.Errorf("chunk type: %w", err))
	}
	if string(magic) != string(headerChunk[:]) {
		return nil, fail(-1, -1, 0, fmt.Errorf("got %q: %w", magic, ErrInvalidMagic))
	}
	length, err := r.ReadU32()
	if err != nil {
		return nil, fail(-1, -1, 4, fmt.Errorf("chunk length: %w", err))
	}
	if length != headerLength {
		return nil, fail(-1, -1, 4, fmt.Errorf("got %d: %w", length, ErrBadHeaderLength))
	}
	body, err := r.Sub(headerLength)
	if err != nil {
		return nil, fail(-1, -1, r.Offset(), fmt.Errorf("header: %w", err))
	}
	format, _ := body.ReadU16()
	numTracks, _ := body.ReadU16()
	division, _ := body.ReadU16()
	if format > 2 {
		return nil, fail(-1, -1, 8, fmt.Errorf("format %d: %w", format, ErrValueOutOfRange))
	}
	if format == 0 && numTracks != 1 {
		return nil, fail(-1, -1, 10, fmt.Errorf("format 0 with %d tracks: %w", numTracks, ErrValueOutOfRange))
	}

	f := &File{
		Format:   format,
		Division: Division(division),
		Tracks:   make([]Track, 0, numTracks),
	}
	for i := 0; i < int(numTracks); i++ {
		start := r.Offset()
		typ, length, err := readChunkHeader(r)
		if err != nil {
			return nil, fail(i, -1, start, err)
		}
		if typ != trackChunk {
			return nil, fail(i, -1, start, fmt.Errorf("got %q: %w", typ[:], ErrUnexpectedChunkType))
		}
		body, err := r.Sub(int(length))
		if err != nil {
			return nil, fail(i, -1, r.Offset(), fmt.Errorf("track body of %d bytes: %w", length, err))
		}
		d := trackDecoder{r: body, track: i}
		t, err := d.decode()
		if err != nil {
			return nil, err
		}
		if d.usedRunningStatus {
			f.RunningStatus = true
		}
		f.Tracks = append(f.Tracks, t)
	}

	for r.Len() > 0 {
		start := r.Offset()
		typ, length, err := readChunkHeader(r)
		if err != nil {
			return nil, fail(-1, -1, start, fmt.Errorf("trailing chunk: %w", err))
		}
		if typ == trackChunk {
			return nil, fail(len(f.Tracks), -1, start, fmt.Errorf("undeclared track chunk: %w", ErrUnexpectedChunkType))
		}
		data, err := r.ReadBytes(int(length))
		if err != nil {
			return nil, fail(-1, -1, r.Offset(), fmt.Errorf("trailing chunk %q: %w", typ[:], err))
		}
		f.Extra = append(f.Extra, Chunk{Type: typ, Data: append([]byte(nil), data...)})
	}
	return f, nil
}

func readChunkHeader(r *reader) ([4]byte, uint32, error) {
	var typ [4]byte
	b, err := r.ReadBytes(4)
	if err != nil {
		return typ, 0, fmt.Errorf("chunk type: %w", err)
	}
	copy(typ[:], b)
	length, err := r.ReadU32()
	if err != nil {
		return typ, 0, fmt.Errorf("chunk length: %w", err)
	}
	if uint64(length) > uint64(maxInt) {
		return typ, 0, fmt.Errorf("chunk length %d: %w", length, ErrValueOutOfRange)
	}
	return typ, length, nil
}

const maxInt = int(^uint(0) >> 1)

// trackDecoder holds the transient state needed while decoding one MTrk body.
type trackDecoder struct {
	r     *reader
	track int
	// status is the running status, or 0 if none.
	status            byte
	usedRunningStatus bool
}

func (d *trackDecoder) decode() (Track, error) {
	var t Track
	for i := 0; ; i++ {
		if d.r.Len() == 0 {
			return Track{}, &DecodeError{Offset: d.r.Offset(), Track: d.track, Event: -1, Err: ErrMissingEndOfTrack}
		}
		start := d.r.Offset()
		ev, err := d.event()
		if errors.Is(err, ErrTruncatedInput) {
			err = fmt.Errorf("event runs past the declared chunk length: %w: %w", ErrTrackLengthMismatch, err)
		}
		if err != nil {
			return Track{}, &DecodeError{Offset: start, Track: d.track, Event: i, Err: err}
		}
		t.Events = append(t.Events, ev)
		if m, ok := ev.Message.(MetaMessage); ok && m.IsEndOfTrack() {
			break
		}
	}
	if d.r.Len() != 0 {
		return Track{}, &DecodeError{
			Offset: d.r.Offset(),
			Track:  d.track,
			Event:  -1,
			Err:    fmt.Errorf("%d bytes after end of track: %w", d.r.Len(), ErrTrackLengthMismatch),
		}
	}
	return t, nil
}

func (d *trackDecoder) event() (Event, error) {
	delta, err := d.r.ReadVLQ()
	if err != nil {
		return Event{}, fmt.Errorf("delta time: %w", err)
	}
	status, err := d.r.ReadU8()
	if err != nil {
		return Event{}, fmt.Errorf("status: %w", err)
	}

	var msg Message
	switch {
	case status < 0x80:
		if d.status == 0 {
			return Event{}, fmt.Errorf("data byte %#02x: %w", status, ErrRunningStatusWithNoPriorEvent)
		}
		d.usedRunningStatus = true
		msg, err = d.channel(d.status, &status)
	case status < 0xF0:
		d.status = status
		msg, err = d.channel(status, nil)
	case status == statusMeta:
		msg, err = d.meta()
	case status == statusSysEx || status == statusSysExEsc:
		d.status = 0
		msg, err = d.sysex(status)
	default:
		err = fmt.Errorf("status %#02x not allowed in a track: %w", status, ErrValueOutOfRange)
	}
	if err != nil {
		return Event{}, err
	}
	return Event{Delta: delta, Message: msg}, nil
}

// channel decodes the data bytes of a channel message. If first is not
// nil, it is the already consumed first data byte.
func (d *trackDecoder) channel(status byte, first *byte) (Message, error) {
	var data [2]byte
	n := channelDataLen(status)
	for i := 0; i < n; i++ {
		var b byte
		if i == 0 && first != nil {
			b = *first
		} else {
			var err error
			b, err = d.r.ReadU8()
			if err != nil {
				return nil, fmt.Errorf("channel data: %w", err)
			}
		}
		if b&0x80 != 0 {
			return nil, fmt.Errorf("data byte %#02x: %w", b, ErrValueOutOfRange)
		}
		data[i] = b
	}
	return ChannelMessage{Status: status, Data1: data[0], Data2: data[1]}, nil
}

func (d *trackDecoder) meta() (Message, error) {
	typ, err := d.r.ReadU8()
	if err != nil {
		return nil, fmt.Errorf("meta type: %w", err)
	}
	if typ&0x80 != 0 {
		return nil, fmt.Errorf("meta type %#02x: %w", typ, ErrValueOutOfRange)
	}
	data, err := d.payload()
	if err != nil {
		return nil, fmt.Errorf("meta %#02x: %w", typ, err)
	}
	if typ == MetaEndOfTrack && len(data) != 0 {
		return nil, fmt.Errorf("end of track with %d byte payload: %w", len(data), ErrValueOutOfRange)
	}
	return MetaMessage{Type: typ, Data: data}, nil
}

func (d *trackDecoder) sysex(status byte) (Message, error) {
	data, err := d.payload()
	if err != nil {
		return nil, fmt.Errorf("sysex: %w", err)
	}
	return SysExMessage{Status: status, Data: data}, nil
}

func (d *trackDecoder) payload() ([]byte, error) {
	n, err := d.r.ReadVLQ()
	if err != nil {
		return nil, fmt.Errorf("length: %w", err)
	}
	b, err := d.r.ReadBytes(int(n))
	if err != nil {
		return nil, err
	}
	return append([]byte(nil), b...), nil
}
