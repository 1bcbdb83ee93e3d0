package processor

import (
	"fmt"
	"strconv"
	"strings"
)

// PolicyKind selects how note velocities of non-selected tracks change.
type PolicyKind int

const (
	// Mute sets every sounding note-on velocity to 0.
	Mute PolicyKind = iota
	// Reduce lowers velocities by a fixed amount, stopping at 0.
	Reduce
	// Keep leaves velocities alone.
	Keep
)

// VelocityPolicy is applied to note-on events of every track except the selected one.
type VelocityPolicy struct {
	Kind PolicyKind
	// Amount is only used by Reduce.
	Amount uint8
}

// Apply returns the new velocity for a note-on with velocity > 0.
func (p VelocityPolicy) Apply(velocity uint8) uint8 {
	switch p.Kind {
	case Mute:
		return 0
	case Reduce:
		if velocity < p.Amount {
			return 0
		}
		return velocity - p.Amount
	}
	return velocity
}

func (p VelocityPolicy) String() string {
	switch p.Kind {
	case Mute:
		return "mute"
	case Reduce:
		return fmt.Sprintf("reduce:%d", p.Amount)
	case Keep:
		return "keep"
	}
	return fmt.Sprintf("PolicyKind(%d)", int(p.Kind))
}

// ParseVelocityPolicy parses "mute", "keep" or "reduce:N" with N in 0..127.
func ParseVelocityPolicy(s string) (VelocityPolicy, error) {
	s = strings.TrimSpace(s)
	switch s {
	case "", "mute":
		return VelocityPolicy{Kind: Mute}, nil
	case "keep":
		return VelocityPolicy{Kind: Keep}, nil
	}
	amount, ok := strings.CutPrefix(s, "reduce:")
	if !ok {
		return VelocityPolicy{}, fmt.Errorf("unknown velocity policy %q: want mute, keep or reduce:N", s)
	}
	n, err := strconv.ParseUint(amount, 10, 8)
	if err != nil || n > 127 {
		return VelocityPolicy{}, fmt.Errorf("invalid reduce amount %q: must be between 0 and 127", amount)
	}
	return VelocityPolicy{Kind: Reduce, Amount: uint8(n)}, nil
}

func (p VelocityPolicy) MarshalText() ([]byte, error) {
	return []byte(p.String()), nil
}

func (p *VelocityPolicy) UnmarshalText(b []byte) error {
	v, err := ParseVelocityPolicy(string(b))
	if err != nil {
		return err
	}
	*p = v
	return nil
}
