package recommendation

import (
	"time"

	"github.com/google/uuid"
)

// Tier identifies the traversal that produced a candidate
type Tier int

const (
	TierContacts       Tier = 1 // U's contacts not yet followed
	TierReverseContact Tier = 2 // users who have U in their contacts
	TierSecondDegree   Tier = 3 // contacts of U's contacts
)

func (t Tier) String() string {
	switch t {
	case TierContacts:
		return "1"
	case TierReverseContact:
		return "2"
	case TierSecondDegree:
		return "3"
	}
	return "unknown"
}

// Candidate is one recommended user
type Candidate struct {
	UserID uuid.UUID
	Tier   Tier
	// MutualCount is the number of U's contacts that reach the candidate.
	// Set for second-degree candidates only.
	MutualCount int
	CreatedAt   time.Time
}

// Limits caps each tier and the second-degree fan-out
type Limits struct {
	Tier1  int
	Tier2  int
	Tier3  int
	FanOut int
}

// DefaultLimits returns the standard tier caps
func DefaultLimits() Limits {
	return Limits{Tier1: 10, Tier2: 30, Tier3: 15, FanOut: 200}
}
