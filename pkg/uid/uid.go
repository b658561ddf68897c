package uid

import "github.com/google/uuid"

// New generates a new unique identifier.
func New() string {
	return uuid.New().String()
}

// Short returns an 8-character identifier fragment, used where a full UUID
// is overkill (e.g. blob file name entropy).
func Short() string {
	return uuid.New().String()[:8]
}

// IsValid checks if a string is a valid UUID.
func IsValid(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}
