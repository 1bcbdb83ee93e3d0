package smf

import (
	"errors"
	"fmt"
)

var (
	// ErrTruncatedInput is returned when fewer bytes remain than a field or chunk requires.
	ErrTruncatedInput = errors.New("truncated input")
	// ErrInvalidMagic is returned when the file does not start with an MThd chunk.
	ErrInvalidMagic = errors.New("invalid magic")
	// ErrUnexpectedChunkType is returned when a track chunk was expected but something else was found.
	ErrUnexpectedChunkType = errors.New("unexpected chunk type")
	// ErrBadHeaderLength is returned when the MThd chunk length is not 6.
	ErrBadHeaderLength = errors.New("bad header length")
	// ErrMalformedVLQ is returned when a variable-length quantity exceeds 4 bytes.
	ErrMalformedVLQ = errors.New("malformed variable-length quantity")
	// ErrValueOutOfRange is returned when a numeric field is outside its valid domain.
	ErrValueOutOfRange = errors.New("value out of range")
	// ErrRunningStatusWithNoPriorEvent is returned for a data byte where a status byte was expected.
	ErrRunningStatusWithNoPriorEvent = errors.New("running status with no prior event")
	// ErrMissingEndOfTrack is returned when a track does not end with exactly one end-of-track event.
	ErrMissingEndOfTrack = errors.New("missing end of track")
	// ErrTrackLengthMismatch is returned when a track body ends before its declared length.
	ErrTrackLengthMismatch = errors.New("track length mismatch")
	// ErrNotSplittable is returned for inputs that have no independent tracks (format 0).
	ErrNotSplittable = errors.New("not splittable")
)

// DecodeError records where in the input decoding failed.
type DecodeError struct {
	// Offset is the absolute byte offset in the input.
	Offset int
	// Track is the track index, or -1 outside of track chunks.
	Track int
	// Event is the event index within the track, or -1.
	Event int
	Err   error
}

func (e *DecodeError) Error() string {
	switch {
	case e.Track < 0:
		return fmt.Sprintf("at offset %d: %v", e.Offset, e.Err)
	case e.Event < 0:
		return fmt.Sprintf("track %d at offset %d: %v", e.Track, e.Offset, e.Err)
	default:
		return fmt.Sprintf("track %d event %d at offset %d: %v", e.Track, e.Event, e.Offset, e.Err)
	}
}

func (e *DecodeError) Unwrap() error {
	return e.Err
}
