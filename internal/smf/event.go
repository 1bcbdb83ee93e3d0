package smf

import (
	"bytes"
	"fmt"
)

// MessageType classifies channel messages by their status nibble.
type MessageType byte

const (
	NoteOffMsg         MessageType = 0x80
	NoteOnMsg          MessageType = 0x90
	PolyPressureMsg    MessageType = 0xA0
	ControlChangeMsg   MessageType = 0xB0
	ProgramChangeMsg   MessageType = 0xC0
	ChannelPressureMsg MessageType = 0xD0
	PitchBendMsg       MessageType = 0xE0
)

func (t MessageType) String() string {
	switch t {
	case NoteOffMsg:
		return "NoteOff"
	case NoteOnMsg:
		return "NoteOn"
	case PolyPressureMsg:
		return "PolyPressure"
	case ControlChangeMsg:
		return "ControlChange"
	case ProgramChangeMsg:
		return "ProgramChange"
	case ChannelPressureMsg:
		return "ChannelPressure"
	case PitchBendMsg:
		return "PitchBend"
	}
	return fmt.Sprintf("MessageType(%#02x)", byte(t))
}

// Meta event types.
const (
	MetaSequenceNumber    byte = 0x00
	MetaText              byte = 0x01
	MetaCopyright         byte = 0x02
	MetaTrackName         byte = 0x03
	MetaInstrument        byte = 0x04
	MetaLyric             byte = 0x05
	MetaMarker            byte = 0x06
	MetaCuePoint          byte = 0x07
	MetaChannelPrefix     byte = 0x20
	MetaPort              byte = 0x21
	MetaEndOfTrack        byte = 0x2F
	MetaTempo             byte = 0x51
	MetaSMPTEOffset       byte = 0x54
	MetaTimeSignature     byte = 0x58
	MetaKeySignature      byte = 0x59
	MetaSequencerSpecific byte = 0x7F
)

const (
	statusMeta     = 0xFF
	statusSysEx    = 0xF0
	statusSysExEsc = 0xF7
)

// Message is one of ChannelMessage, MetaMessage or SysExMessage.
type Message interface {
	// Bytes returns the complete wire form including the status byte.
	Bytes() []byte
	String() string
	isMessage()
}

// Event is a message with its delta time in ticks.
type Event struct {
	Delta   uint32
	Message Message
}

func (e Event) String() string {
	return fmt.Sprintf("+%d %v", e.Delta, e.Message)
}

// ChannelMessage is a channel voice or channel mode message.
type ChannelMessage struct {
	Status byte
	Data1  byte
	// Data2 is unused by program change and channel pressure.
	Data2 byte
}

func (ChannelMessage) isMessage() {}

func (m ChannelMessage) Type() MessageType {
	return MessageType(m.Status & 0xF0)
}

func (m ChannelMessage) Channel() uint8 {
	return m.Status & 0x0F
}

// DataLen returns the number of data bytes following the status byte.
func (m ChannelMessage) DataLen() int {
	return channelDataLen(m.Status)
}

func channelDataLen(status byte) int {
	switch MessageType(status & 0xF0) {
	case ProgramChangeMsg, ChannelPressureMsg:
		return 1
	}
	return 2
}

// IsChannelMode reports whether this is a control change on a reserved mode controller.
func (m ChannelMessage) IsChannelMode() bool {
	return m.Type() == ControlChangeMsg && m.Data1 >= 120
}

// IsNoteOn reports whether the message starts a note (note-on with velocity > 0).
func (m ChannelMessage) IsNoteOn() bool {
	return m.Type() == NoteOnMsg && m.Data2 > 0
}

// IsNoteEnd reports whether the message ends a note.
func (m ChannelMessage) IsNoteEnd() bool {
	return m.Type() == NoteOffMsg || (m.Type() == NoteOnMsg && m.Data2 == 0)
}

func (m ChannelMessage) Bytes() []byte {
	if m.DataLen() == 1 {
		return []byte{m.Status, m.Data1}
	}
	return []byte{m.Status, m.Data1, m.Data2}
}

func (m ChannelMessage) String() string {
	switch m.Type() {
	case NoteOnMsg, NoteOffMsg, PolyPressureMsg:
		return fmt.Sprintf("%v channel: %d key: %d velocity: %d", m.Type(), m.Channel(), m.Data1, m.Data2)
	case ControlChangeMsg:
		return fmt.Sprintf("%v channel: %d controller: %d value: %d", m.Type(), m.Channel(), m.Data1, m.Data2)
	case PitchBendMsg:
		return fmt.Sprintf("%v channel: %d value: %d", m.Type(), m.Channel(), int(m.Data2)<<7|int(m.Data1))
	}
	return fmt.Sprintf("%v channel: %d value: %d", m.Type(), m.Channel(), m.Data1)
}

// MetaMessage is an SMF meta event.
type MetaMessage struct {
	Type byte
	Data []byte
}

func (MetaMessage) isMessage() {}

func (m MetaMessage) IsEndOfTrack() bool {
	return m.Type == MetaEndOfTrack
}

// IsText reports whether the payload is one of the text kinds.
func (m MetaMessage) IsText() bool {
	return m.Type >= MetaText && m.Type <= 0x0F
}

func (m MetaMessage) Bytes() []byte {
	b := make([]byte, 0, 2+VLQLen(uint32(len(m.Data)))+len(m.Data))
	b = append(b, statusMeta, m.Type)
	b = AppendVLQ(b, uint32(len(m.Data)))
	return append(b, m.Data...)
}

func (m MetaMessage) String() string {
	if m.IsText() {
		return fmt.Sprintf("Meta %#02x %q", m.Type, m.Data)
	}
	return fmt.Sprintf("Meta %#02x % x", m.Type, m.Data)
}

// SysExMessage is a system exclusive packet. Status is 0xF0 for a
// start packet and 0xF7 for a continuation or escape packet.
type SysExMessage struct {
	Status byte
	Data   []byte
}

func (SysExMessage) isMessage() {}

func (m SysExMessage) Bytes() []byte {
	b := make([]byte, 0, 1+VLQLen(uint32(len(m.Data)))+len(m.Data))
	b = append(b, m.Status)
	b = AppendVLQ(b, uint32(len(m.Data)))
	return append(b, m.Data...)
}

func (m SysExMessage) String() string {
	return fmt.Sprintf("SysEx %#02x % x", m.Status, m.Data)
}

// NoteOn builds a note-on message.
func NoteOn(ch, key, velocity uint8) ChannelMessage {
	return ChannelMessage{Status: byte(NoteOnMsg) | ch&0x0F, Data1: key & 0x7F, Data2: velocity & 0x7F}
}

// NoteOff builds a note-off message.
func NoteOff(ch, key, velocity uint8) ChannelMessage {
	return ChannelMessage{Status: byte(NoteOffMsg) | ch&0x0F, Data1: key & 0x7F, Data2: velocity & 0x7F}
}

func ControlChange(ch, controller, value uint8) ChannelMessage {
	return ChannelMessage{Status: byte(ControlChangeMsg) | ch&0x0F, Data1: controller & 0x7F, Data2: value & 0x7F}
}

func ProgramChange(ch, program uint8) ChannelMessage {
	return ChannelMessage{Status: byte(ProgramChangeMsg) | ch&0x0F, Data1: program & 0x7F}
}

func EndOfTrack() MetaMessage {
	return MetaMessage{Type: MetaEndOfTrack}
}

func TrackName(name string) MetaMessage {
	return MetaMessage{Type: MetaTrackName, Data: []byte(name)}
}

// Tempo builds a set-tempo meta event from microseconds per quarter note.
func Tempo(usPerQuarter uint32) MetaMessage {
	return MetaMessage{Type: MetaTempo, Data: []byte{byte(usPerQuarter >> 16), byte(usPerQuarter >> 8), byte(usPerQuarter)}}
}

// cloneMessage returns a copy that shares no payload memory with m.
func cloneMessage(m Message) Message {
	switch m := m.(type) {
	case MetaMessage:
		return MetaMessage{Type: m.Type, Data: bytes.Clone(m.Data)}
	case SysExMessage:
		return SysExMessage{Status: m.Status, Data: bytes.Clone(m.Data)}
	}
	return m
}
