package contactsync

import "github.com/google/uuid"

// SyncRequest is a full contact list upload. Hashes are SHA-256 hex of the
// digits of each number, see contactgraph.HashPhoneNumber.
type SyncRequest struct {
	PhoneNumberHash string   `json:"phone_number_hash" validate:"omitempty,phone_hash"`
	ContactHashes   []string `json:"contact_hashes" validate:"required,max=5000,dive,phone_hash"`
}

// SyncResponse acknowledges a contact sync
type SyncResponse struct {
	JobID  uuid.UUID `json:"job_id"`
	Status string    `json:"status"`
}

const (
	statusQueued = "queued"
	statusSynced = "synced"
)
