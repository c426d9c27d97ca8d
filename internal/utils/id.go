package utils

import "github.com/google/uuid"

// NewID returns a fresh unique identifier, used for connection handles and
// minted guest ids.
func NewID() string {
	return uuid.New().String()
}
