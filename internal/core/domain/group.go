package domain

import (
	"strings"
	"time"
)

// DefaultGroupName is the group that always exists and cannot be deleted.
const DefaultGroupName = "default"

// DefaultGroupDescription describes the default group.
const DefaultGroupDescription = "Default content group"

// DefaultGroupColor is the display colour used when none is given.
const DefaultGroupColor = "#007cba"

// Group is a named label attached to documents (many-to-many).
type Group struct {
	ID          int64
	Name        string
	Description string
	Color       string
	CreatedAt   time.Time

	// DocumentCount is populated by list operations.
	DocumentCount int
}

// IsDefault reports whether this is the protected default group.
func (g *Group) IsDefault() bool {
	return g.Name == DefaultGroupName
}

// NormaliseGroups returns names with blanks and duplicates removed,
// falling back to the default group when nothing is left.
func NormaliseGroups(names []string) []string {
	seen := make(map[string]bool, len(names))
	out := make([]string, 0, len(names))
	for _, n := range names {
		n = strings.TrimSpace(n)
		if n == "" || seen[n] {
			continue
		}
		seen[n] = true
		out = append(out, n)
	}
	if len(out) == 0 {
		return []string{DefaultGroupName}
	}
	return out
}

// MergeGroups returns the union of a and b, keeping first-seen order.
func MergeGroups(a, b []string) []string {
	merged := make([]string, 0, len(a)+len(b))
	merged = append(merged, a...)
	merged = append(merged, b...)
	return NormaliseGroups(merged)
}
