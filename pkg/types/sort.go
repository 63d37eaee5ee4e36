package types

import (
	"fmt"
	"strings"
)

// SortMode selects how a view orders tasks for display. Only SortManual
// shows the stored order; the other modes produce a derived ordering and
// never touch the store.
type SortMode string

// Sort modes.
const (
	SortManual  SortMode = "manual"
	SortDueDate SortMode = "due_date"
	SortTitle   SortMode = "title"
	SortStatus  SortMode = "status"
)

// validSortModes is the set of recognized sort mode values.
var validSortModes = map[SortMode]bool{
	SortManual:  true,
	SortDueDate: true,
	SortTitle:   true,
	SortStatus:  true,
}

// SortModes lists the recognized sort modes.
func SortModes() []SortMode {
	return []SortMode{SortManual, SortDueDate, SortTitle, SortStatus}
}

// ParseSortMode accepts the mode names case-insensitively, with "-" and "_"
// interchangeable ("due-date", "DUE_DATE"). An empty string yields
// SortManual.
func ParseSortMode(s string) (SortMode, error) {
	if s == "" {
		return SortManual, nil
	}
	m := SortMode(strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), "-", "_"))
	if !validSortModes[m] {
		return "", fmt.Errorf("%w: %q", ErrInvalidSortMode, s)
	}
	return m, nil
}

// Valid reports whether m is a recognized sort mode.
func (m SortMode) Valid() bool {
	return validSortModes[m]
}
