package smf

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func chunk(typ string, body ...byte) []byte {
	n := len(body)
	b := append([]byte(typ), byte(n>>24), byte(n>>16), byte(n>>8), byte(n))
	return append(b, body...)
}

func header(format, tracks, division uint16) []byte {
	return chunk("MThd", byte(format>>8), byte(format), byte(tracks>>8), byte(tracks), byte(division>>8), byte(division))
}

func concat(parts ...[]byte) []byte {
	var b []byte
	for _, p := range parts {
		b = append(b, p...)
	}
	return b
}

var eot = []byte{0x00, 0xFF, 0x2F, 0x00}

func twoTrackFile() []byte {
	return concat(
		header(1, 2, 96),
		chunk("MTrk", concat([]byte{0x00, 0x90, 0x3C, 0x64}, eot)...),
		chunk("MTrk", concat([]byte{0x00, 0x91, 0x40, 0x64}, eot)...),
	)
}

func TestDecodeTwoTracks(t *testing.T) {
	f, err := Decode(twoTrackFile())
	require.NoError(t, err)
	assert.Equal(t, uint16(1), f.Format)
	assert.Equal(t, Division(96), f.Division)
	assert.Equal(t, uint16(96), f.Division.TicksPerQuarterNote())
	assert.False(t, f.RunningStatus)
	require.Len(t, f.Tracks, 2)
	assert.Equal(t, []Event{
		{Delta: 0, Message: NoteOn(0, 0x3C, 100)},
		{Delta: 0, Message: EndOfTrack()},
	}, f.Tracks[0].Events)
	assert.Equal(t, []Event{
		{Delta: 0, Message: NoteOn(1, 0x40, 100)},
		{Delta: 0, Message: EndOfTrack()},
	}, f.Tracks[1].Events)
	assert.Empty(t, f.Extra)
}

func TestDecodeAllEventKinds(t *testing.T) {
	body := concat(
		[]byte{0x00, 0xFF, 0x03, 0x04, 'L', 'e', 'a', 'd'},
		[]byte{0x00, 0xFF, 0x51, 0x03, 0x07, 0xA1, 0x20},
		[]byte{0x00, 0xFF, 0x58, 0x04, 0x04, 0x02, 0x18, 0x08},
		[]byte{0x00, 0xF0, 0x05, 0x7E, 0x7F, 0x09, 0x01, 0xF7},
		[]byte{0x00, 0xC2, 0x05},
		[]byte{0x00, 0xB2, 0x07, 0x64},
		[]byte{0x00, 0xB2, 0x7B, 0x00},
		[]byte{0x81, 0x00, 0xE2, 0x00, 0x40},
		[]byte{0x00, 0xD2, 0x30},
		[]byte{0x00, 0xA2, 0x3C, 0x20},
		[]byte{0x00, 0x82, 0x3C, 0x40},
		[]byte{0x60, 0xF7, 0x02, 0x01, 0x02},
		eot,
	)
	f, err := Decode(concat(header(1, 1, 480), chunk("MTrk", body...)))
	require.NoError(t, err)
	events := f.Tracks[0].Events
	require.Len(t, events, 13)

	name, ok := f.Tracks[0].Name()
	assert.True(t, ok)
	assert.Equal(t, "Lead", name)
	assert.Equal(t, Tempo(500000), events[1].Message)
	assert.Equal(t, SysExMessage{Status: 0xF0, Data: []byte{0x7E, 0x7F, 0x09, 0x01, 0xF7}}, events[3].Message)
	assert.Equal(t, ProgramChange(2, 5), events[4].Message)
	assert.Equal(t, ControlChange(2, 7, 100), events[5].Message)

	mode := events[6].Message.(ChannelMessage)
	assert.True(t, mode.IsChannelMode())
	assert.False(t, events[5].Message.(ChannelMessage).IsChannelMode())

	assert.Equal(t, uint32(0x80), events[7].Delta)
	bend := events[7].Message.(ChannelMessage)
	assert.Equal(t, PitchBendMsg, bend.Type())
	assert.Equal(t, uint8(2), bend.Channel())

	assert.Equal(t, ChannelMessage{Status: 0xD2, Data1: 0x30}, events[8].Message)
	assert.Equal(t, PolyPressureMsg, events[9].Message.(ChannelMessage).Type())
	assert.True(t, events[10].Message.(ChannelMessage).IsNoteEnd())
	assert.Equal(t, SysExMessage{Status: 0xF7, Data: []byte{0x01, 0x02}}, events[11].Message)
	assert.Equal(t, uint64(0x80+0x60), f.Tracks[0].Duration())
}

func TestDecodeRunningStatus(t *testing.T) {
	body := concat(
		[]byte{0x00, 0x90, 0x3C, 0x64},
		[]byte{0x10, 0x3E, 0x64},
		[]byte{0x10, 0x3C, 0x00},
		[]byte{0x10, 0x3E, 0x00},
		eot,
	)
	in := concat(header(0, 1, 96), chunk("MTrk", body...))
	f, err := Decode(in)
	require.NoError(t, err)
	assert.True(t, f.RunningStatus)
	assert.Equal(t, []Event{
		{Delta: 0x00, Message: NoteOn(0, 0x3C, 100)},
		{Delta: 0x10, Message: NoteOn(0, 0x3E, 100)},
		{Delta: 0x10, Message: NoteOn(0, 0x3C, 0)},
		{Delta: 0x10, Message: NoteOn(0, 0x3E, 0)},
		{Delta: 0x00, Message: EndOfTrack()},
	}, f.Tracks[0].Events)
}

func TestDecodeRunningStatusAcrossMeta(t *testing.T) {
	body := concat(
		[]byte{0x00, 0x90, 0x3C, 0x64},
		[]byte{0x00, 0xFF, 0x01, 0x01, 'a'},
		[]byte{0x00, 0x3E, 0x64},
		eot,
	)
	f, err := Decode(concat(header(1, 1, 96), chunk("MTrk", body...)))
	require.NoError(t, err)
	assert.Equal(t, NoteOn(0, 0x3E, 100), f.Tracks[0].Events[2].Message)
}

func TestDecodeTrailingChunks(t *testing.T) {
	in := concat(twoTrackFile(), chunk("XFIH", 0x01, 0x02, 0x03))
	f, err := Decode(in)
	require.NoError(t, err)
	require.Len(t, f.Extra, 1)
	assert.Equal(t, [4]byte{'X', 'F', 'I', 'H'}, f.Extra[0].Type)
	assert.Equal(t, []byte{0x01, 0x02, 0x03}, f.Extra[0].Data)
}

func TestDecodeErrors(t *testing.T) {
	cases := []struct {
		name string
		in   []byte
		want error
	}{
		{"empty", nil, ErrTruncatedInput},
		{"short magic", []byte("MTh"), ErrTruncatedInput},
		{"invalid magic", concat(chunk("RIFF", 0, 1, 0, 1, 0, 96)), ErrInvalidMagic},
		{"bad header length", chunk("MThd", 0, 1, 0, 1, 0, 96, 0), ErrBadHeaderLength},
		{"truncated header", concat([]byte("MThd"), []byte{0, 0, 0, 6}, []byte{0, 1, 0, 1}), ErrTruncatedInput},
		{"format out of range", header(3, 1, 96), ErrValueOutOfRange},
		{"format 0 with two tracks", header(0, 2, 96), ErrValueOutOfRange},
		{"missing track chunk", header(1, 1, 96), ErrTruncatedInput},
		{"unexpected chunk type", concat(header(1, 1, 96), chunk("MTrX", eot...)), ErrUnexpectedChunkType},
		{"truncated track body", concat(header(1, 1, 96), []byte("MTrk"), []byte{0, 0, 0, 20}, eot), ErrTruncatedInput},
		{"missing end of track", concat(header(1, 1, 96), chunk("MTrk", 0x00, 0x90, 0x3C, 0x64)), ErrMissingEndOfTrack},
		{"empty track", concat(header(1, 1, 96), chunk("MTrk")), ErrMissingEndOfTrack},
		{"data after end of track", concat(header(1, 1, 96), chunk("MTrk", concat(eot, []byte{0x00, 0x90, 0x3C, 0x64})...)), ErrTrackLengthMismatch},
		{"event crosses chunk end", concat(header(1, 1, 96), chunk("MTrk", 0x00, 0x90, 0x3C)), ErrTrackLengthMismatch},
		{"meta crosses chunk end", concat(header(1, 1, 96), chunk("MTrk", concat([]byte{0x00, 0xFF, 0x01, 0x10, 'a'}, eot)...)), ErrTrackLengthMismatch},
		{"undeclared track chunk", concat(header(1, 1, 96), chunk("MTrk", eot...), chunk("MTrk", concat([]byte{0x00, 0x90, 0x3E, 0x64}, eot)...)), ErrUnexpectedChunkType},
		{"undeclared track chunk after extra chunk", concat(header(1, 1, 96), chunk("MTrk", eot...), chunk("XFIH", 0x01), chunk("MTrk", eot...)), ErrUnexpectedChunkType},
		{"running status without prior event", concat(header(1, 1, 96), chunk("MTrk", concat([]byte{0x00, 0x3C, 0x64}, eot)...)), ErrRunningStatusWithNoPriorEvent},
		{"running status after sysex", concat(header(1, 1, 96), chunk("MTrk", concat([]byte{0x00, 0x90, 0x3C, 0x64, 0x00, 0xF0, 0x01, 0xF7, 0x00, 0x3C, 0x00}, eot)...)), ErrRunningStatusWithNoPriorEvent},
		{"malformed delta", concat(header(1, 1, 96), chunk("MTrk", concat([]byte{0x81, 0x80, 0x80, 0x80, 0x00}, eot)...)), ErrMalformedVLQ},
		{"malformed meta length", concat(header(1, 1, 96), chunk("MTrk", concat([]byte{0x00, 0xFF, 0x01, 0xFF, 0xFF, 0xFF, 0xFF, 0x00}, eot)...)), ErrMalformedVLQ},
		{"data byte with high bit", concat(header(1, 1, 96), chunk("MTrk", concat([]byte{0x00, 0x90, 0x90, 0x64}, eot)...)), ErrValueOutOfRange},
		{"system common status", concat(header(1, 1, 96), chunk("MTrk", concat([]byte{0x00, 0xF2, 0x00, 0x00}, eot)...)), ErrValueOutOfRange},
		{"end of track with payload", concat(header(1, 1, 96), chunk("MTrk", 0x00, 0xFF, 0x2F, 0x01, 0x00)), ErrValueOutOfRange},
		{"partial trailing chunk", concat(twoTrackFile(), []byte("XF")), ErrTruncatedInput},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			f, err := Decode(c.in)
			assert.Nil(t, f)
			assert.ErrorIs(t, err, c.want)
		})
	}
}

func TestDecodeErrorLocation(t *testing.T) {
	in := concat(header(1, 2, 96),
		chunk("MTrk", concat([]byte{0x00, 0x90, 0x3C, 0x64}, eot)...),
		chunk("MTrk", concat([]byte{0x00, 0x3C, 0x64}, eot)...),
	)
	_, err := Decode(in)
	var decErr *DecodeError
	require.True(t, errors.As(err, &decErr))
	assert.Equal(t, 1, decErr.Track)
	assert.Equal(t, 0, decErr.Event)
	assert.Equal(t, 14+16+8, decErr.Offset)
	assert.ErrorIs(t, err, ErrRunningStatusWithNoPriorEvent)
	assert.Contains(t, err.Error(), "track 1 event 0")
}

func TestReadFormat(t *testing.T) {
	format, err := ReadFormat(concat(header(0, 2, 96), []byte("garbage")))
	require.NoError(t, err)
	assert.Equal(t, uint16(0), format)

	format, err = ReadFormat(twoTrackFile())
	require.NoError(t, err)
	assert.Equal(t, uint16(1), format)

	_, err = ReadFormat([]byte("MThd\x00\x00"))
	assert.ErrorIs(t, err, ErrTruncatedInput)
	_, err = ReadFormat(chunk("RIFF", 0, 1))
	assert.ErrorIs(t, err, ErrInvalidMagic)
}

func TestDivisionSMPTE(t *testing.T) {
	d := Division(0xE728) // -25 fps, 40 ticks per frame.
	fps, tpf := d.SMPTE()
	assert.Equal(t, uint8(25), fps)
	assert.Equal(t, uint8(40), tpf)
	assert.Equal(t, uint16(0), d.TicksPerQuarterNote())
	assert.Equal(t, "25 fps, 40 ticks per frame", d.String())
}
