package notify

import (
	"time"

	"github.com/tartampluch/friendly-reminder/internal/engine"
)

// Digest is the periodic summary of contacts that need attention.
type Digest struct {
	engine.Dashboard
	GeneratedAt time.Time `json:"generated_at"`
}

// BuildDigest classifies contacts relative to now.
func BuildDigest(contacts []engine.Contact, now time.Time, horizon time.Duration, policy engine.LeapDayPolicy) Digest {
	return Digest{
		Dashboard:   engine.Partition(contacts, now, horizon, policy),
		GeneratedAt: now,
	}
}

// Count returns the number of entries in the digest.
func (d Digest) Count() int {
	return len(d.Overdue) + len(d.Upcoming) + len(d.Birthdays)
}

// Empty reports whether there is nothing to send.
func (d Digest) Empty() bool {
	return d.Count() == 0
}
