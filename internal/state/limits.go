package state

import (
	"fmt"
	"sort"

	"github.com/google/uuid"
)

// LimitGroup assigns one limit amount to a named set of numbers. The name is
// the shorthand the group was created from (a literal number or a keyword
// like "apu").
type LimitGroup struct {
	ID      uuid.UUID `json:"id"`
	Name    string    `json:"name"`
	Amount  float64   `json:"amount"`
	Numbers []string  `json:"numbers"`
	// IsOpen is display state carried for frontends; no engine operation
	// toggles it, but it must survive snapshot round trips.
	IsOpen bool `json:"isOpen"`
}

// BatchOp adjusts every group amount at once.
type BatchOp string

const (
	BatchAdd      BatchOp = "add"
	BatchSubtract BatchOp = "sub"
	BatchSet      BatchOp = "set"
)

// LimitBook holds the default limit and the custom limit groups.
//
// Groups are kept newest-first: a new group is inserted at the front. The
// effective custom limit per number is computed by iterating the stored
// order and letting later entries overwrite, so among groups naming the
// same number the oldest surviving one wins.
type LimitBook struct {
	defaultLimit float64
	groups       []LimitGroup
	version      uint64
}

func NewLimitBook(defaultLimit float64) *LimitBook {
	return &LimitBook{defaultLimit: defaultLimit}
}

func (b *LimitBook) Version() uint64 {
	return b.version
}

func (b *LimitBook) DefaultLimit() float64 {
	return b.defaultLimit
}

// SetDefaultLimit replaces the default limit. Non-positive values are
// rejected as no-ops.
func (b *LimitBook) SetDefaultLimit(v float64) error {
	if v <= 0 {
		return fmt.Errorf("default limit must be > 0, got %v", v)
	}
	b.defaultLimit = v
	b.version++
	return nil
}

// Groups returns the groups newest-first. The result is a deep copy:
// UpdateGroupAmount and ApplyBatch edit amounts in place, and a returned
// view (or a queued snapshot built from one) must stay fixed afterwards.
func (b *LimitBook) Groups() []LimitGroup {
	out := make([]LimitGroup, len(b.groups))
	for i, g := range b.groups {
		g.Numbers = append([]string(nil), g.Numbers...)
		out[i] = g
	}
	return out
}

// AddGroup creates a group from an already-expanded number set and inserts
// it at the front. Numbers are deduplicated and sorted.
func (b *LimitBook) AddGroup(name string, amount float64, numbers []string) LimitGroup {
	seen := make(map[string]bool, len(numbers))
	unique := make([]string, 0, len(numbers))
	for _, n := range numbers {
		if !seen[n] {
			seen[n] = true
			unique = append(unique, n)
		}
	}
	sort.Strings(unique)

	group := LimitGroup{
		ID:      uuid.New(),
		Name:    name,
		Amount:  amount,
		Numbers: unique,
	}
	b.groups = append([]LimitGroup{group}, b.groups...)
	b.version++
	return group
}

// RemoveGroup deletes a group by id.
func (b *LimitBook) RemoveGroup(id uuid.UUID) bool {
	for i, g := range b.groups {
		if g.ID == id {
			b.groups = append(b.groups[:i], b.groups[i+1:]...)
			b.version++
			return true
		}
	}
	return false
}

// UpdateGroupAmount changes a group's limit in place.
func (b *LimitBook) UpdateGroupAmount(id uuid.UUID, amount float64) bool {
	for i := range b.groups {
		if b.groups[i].ID == id {
			b.groups[i].Amount = amount
			b.version++
			return true
		}
	}
	return false
}

// ApplyBatch adjusts every group amount. Add/subtract require a positive
// value; set additionally accepts zero. Subtract floors at zero.
func (b *LimitBook) ApplyBatch(op BatchOp, value float64) error {
	if value <= 0 && op != BatchSet {
		return fmt.Errorf("batch %s requires a positive value, got %v", op, value)
	}
	if value < 0 {
		return fmt.Errorf("batch value must be >= 0, got %v", value)
	}
	for i := range b.groups {
		switch op {
		case BatchAdd:
			b.groups[i].Amount += value
		case BatchSubtract:
			b.groups[i].Amount = max(0, b.groups[i].Amount-value)
		case BatchSet:
			b.groups[i].Amount = value
		default:
			return fmt.Errorf("unknown batch op %q", op)
		}
	}
	b.version++
	return nil
}

// ClearGroups removes every custom group.
func (b *LimitBook) ClearGroups() {
	b.groups = nil
	b.version++
}

// CustomLimits flattens the groups into a per-number limit map.
func (b *LimitBook) CustomLimits() map[string]float64 {
	m := make(map[string]float64)
	for _, g := range b.groups {
		for _, n := range g.Numbers {
			m[n] = g.Amount
		}
	}
	return m
}

// LimitFor resolves the effective limit for one number.
func (b *LimitBook) LimitFor(number string) float64 {
	if v, ok := b.CustomLimits()[number]; ok {
		return v
	}
	return b.defaultLimit
}

// Restore replaces book contents from a snapshot. Groups are copied so
// later in-place edits cannot reach back into the snapshot.
func (b *LimitBook) Restore(defaultLimit float64, groups []LimitGroup) {
	b.defaultLimit = defaultLimit
	b.groups = make([]LimitGroup, len(groups))
	for i, g := range groups {
		g.Numbers = append([]string(nil), g.Numbers...)
		b.groups[i] = g
	}
	b.version++
}
