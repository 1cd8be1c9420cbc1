package debugsim

import (
	"slices"
	"time"

	"github.com/google/uuid"
)

// Issue is a simulated defect found while scanning.
type Issue struct {
	ID           string    `json:"id"`
	Name         string    `json:"name"`
	Fixed        bool      `json:"fixed"`
	DiscoveredAt time.Time `json:"discovered_at"`
	FixedAt      time.Time `json:"fixed_at,omitzero"`
}

var defaultCatalog = []string{
	"Memory leak detected in scanner module",
	"API rate limiting issue",
	"Rendering performance bottleneck",
	"Network request timeout handling",
	"Data validation error",
	"UI component lifecycle issue",
	"State management inconsistency",
	"Resource cleanup problem",
}

// DefaultCatalog returns a copy of the built-in issue archetypes, in order.
func DefaultCatalog() []string {
	return slices.Clone(defaultCatalog)
}

// newIssueID returns a time-ordered UUIDv7, falling back to a random UUID
// if the clock source fails.
func newIssueID() string {
	id, err := uuid.NewV7()
	if err != nil {
		return uuid.NewString()
	}
	return id.String()
}
