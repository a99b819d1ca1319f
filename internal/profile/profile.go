// Package profile models the ten user temperature programs.
package profile

import (
	"context"
	"errors"
	"fmt"

	tr "temp_regulator"
)

const (
	// Slots is the number of stored profiles, addressed 1..Slots.
	Slots = 10
	// MaxSteps per profile.
	MaxSteps = 10
)

var (
	ErrBadSlot      = errors.New("profile: slot out of range")
	ErrTooManySteps = errors.New("profile: too many steps")
	ErrNotFound     = errors.New("profile: not found")
)

// Step is one ramp segment.
type Step struct {
	StartC  float32 `json:"start_c" yaml:"start_c"`
	EndC    float32 `json:"end_c" yaml:"end_c"`
	Minutes float32 `json:"minutes" yaml:"minutes"`
}

// Used reports whether any field of the row is set.
func (s Step) Used() bool {
	return s.StartC != 0 || s.EndC != 0 || s.Minutes > 0
}

// Thermocouple is the per-profile sensor override.
type Thermocouple struct {
	Slope  float64 `json:"slope" yaml:"slope"`
	Offset float64 `json:"offset" yaml:"offset"`
}

type Profile struct {
	Slot         int                `json:"slot" yaml:"slot"`
	Name         string             `json:"name" yaml:"name"`
	Visible      bool               `json:"visible" yaml:"visible"`
	PID          tr.PIDCoefficients `json:"pid" yaml:"pid"`
	Thermocouple Thermocouple       `json:"thermocouple" yaml:"thermocouple"`
	Steps        []Step             `json:"steps" yaml:"steps"`
}

// Empty returns a blank profile for slot.
func Empty(slot int) Profile {
	return Profile{Slot: slot, Thermocouple: Thermocouple{Slope: 1}}
}

// Defaults is the factory set: one named placeholder, nine blanks.
func Defaults() []Profile {
	out := make([]Profile, Slots)
	for i := range out {
		out[i] = Empty(i + 1)
	}
	out[0].Name = "Test profile"
	out[0].Visible = true
	return out
}

// Validate checks slot and step bounds.
func (p Profile) Validate() error {
	if p.Slot < 1 || p.Slot > Slots {
		return fmt.Errorf("%w: %d", ErrBadSlot, p.Slot)
	}
	if len(p.Steps) > MaxSteps {
		return fmt.Errorf("%w: %d", ErrTooManySteps, len(p.Steps))
	}
	return nil
}

// StepCount counts used rows.
func (p Profile) StepCount() int {
	n := 0
	for _, s := range p.Steps {
		if s.Used() {
			n++
		}
	}
	return n
}

// Normalize forces a profile that has steps to be visible.
func (p Profile) Normalize() Profile {
	if p.StepCount() > 0 {
		p.Visible = true
	}
	return p
}

// Available is true for a named, visible profile with at least one used step.
func (p Profile) Available() bool {
	p = p.Normalize()
	return p.Visible && p.Name != "" && p.StepCount() > 0
}

// HasPID is true when any override coefficient is non-zero.
func (p Profile) HasPID() bool {
	return p.PID.Kp != 0 || p.PID.Ki != 0 || p.PID.Kd != 0
}

// Step returns row idx, or a zero row when out of range.
func (p Profile) Step(idx int) Step {
	if idx < 0 || idx >= len(p.Steps) {
		return Step{}
	}
	return p.Steps[idx]
}

// Store persists profiles by slot.
type Store interface {
	List(ctx context.Context) ([]Profile, error)
	Save(ctx context.Context, p Profile) error
	Clear(ctx context.Context, slot int) error
}

// Book is the in-memory copy indexed by slot.
type Book struct {
	slots [Slots]Profile
}

func NewBook(ps []Profile) *Book {
	b := &Book{}
	for i := range b.slots {
		b.slots[i] = Empty(i + 1)
	}
	for _, p := range ps {
		b.Put(p)
	}
	return b
}

// Put replaces the profile in p.Slot; invalid profiles are ignored.
func (b *Book) Put(p Profile) bool {
	if p.Validate() != nil {
		return false
	}
	b.slots[p.Slot-1] = p.Normalize()
	return true
}

func (b *Book) Get(slot int) (Profile, bool) {
	if slot < 1 || slot > Slots {
		return Profile{}, false
	}
	return b.slots[slot-1], true
}

// All returns a copy of every slot.
func (b *Book) All() []Profile {
	out := make([]Profile, Slots)
	copy(out, b.slots[:])
	return out
}
