package contactsync

import (
	"time"

	"github.com/google/uuid"
)

// Job is one queued contact list upload
type Job struct {
	ID      uuid.UUID `json:"id"`
	OwnerID uuid.UUID `json:"owner_id"`
	// PhoneNumberHash is the owner's own number, empty when unchanged
	PhoneNumberHash string    `json:"phone_number_hash,omitempty"`
	ContactHashes   []string  `json:"contact_hashes"`
	EnqueuedAt      time.Time `json:"enqueued_at"`
	Attempts        int       `json:"attempts"`
}

// NewJob creates a job for ownerID with a deduplicated contact list
func NewJob(ownerID uuid.UUID, phoneNumberHash string, contactHashes []string) *Job {
	seen := make(map[string]struct{}, len(contactHashes))
	hashes := make([]string, 0, len(contactHashes))
	for _, h := range contactHashes {
		if _, dup := seen[h]; dup {
			continue
		}
		seen[h] = struct{}{}
		hashes = append(hashes, h)
	}

	return &Job{
		ID:              uuid.New(),
		OwnerID:         ownerID,
		PhoneNumberHash: phoneNumberHash,
		ContactHashes:   hashes,
		EnqueuedAt:      time.Now().UTC(),
	}
}
