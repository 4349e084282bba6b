package model

import (
	"errors"
	"sort"
)

// Role marks an instrument as a contestant or as the fallback.
type Role string

const (
	RoleRisky Role = "risky"
	RoleSafe  Role = "safe"
)

// Instrument is the presentation metadata for one ticker.
type Instrument struct {
	ID          string `json:"id"`
	DisplayName string `json:"display_name"`
	Role        Role   `json:"role"`
	Color       string `json:"color,omitempty"`
}

// InstrumentSet is the risky candidates plus exactly one safe instrument.
// The safe instrument never appears in Risky.
type InstrumentSet struct {
	Risky []string `json:"risky"`
	Safe  string   `json:"safe"`
}

// NewInstrumentSet deduplicates and sorts the risky ids and removes the
// safe id from them.
func NewInstrumentSet(risky []string, safe string) InstrumentSet {
	seen := make(map[string]bool, len(risky))
	out := make([]string, 0, len(risky))
	for _, id := range risky {
		if id == "" || id == safe || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	sort.Strings(out)
	return InstrumentSet{Risky: out, Safe: safe}
}

// All returns every identifier in the set, sorted.
func (s InstrumentSet) All() []string {
	out := make([]string, 0, len(s.Risky)+1)
	out = append(out, s.Risky...)
	if s.Safe != "" {
		out = append(out, s.Safe)
	}
	sort.Strings(out)
	return out
}

// Validate checks the set has at least one contestant and a safe asset.
func (s InstrumentSet) Validate() error {
	if s.Safe == "" {
		return errors.New("safe instrument is required")
	}
	if len(s.Risky) == 0 {
		return errors.New("at least one risky instrument is required")
	}
	for _, id := range s.Risky {
		if id == s.Safe {
			return errors.New("safe instrument cannot also be risky")
		}
	}
	return nil
}

// Quote is a single instrument search hit.
type Quote struct {
	Symbol   string `json:"symbol"`
	Name     string `json:"name"`
	Exchange string `json:"exchange"`
	Type     string `json:"type"`
}
