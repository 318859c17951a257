package utils

import (
	"github.com/google/uuid"
)

// NewRandomID returns a new unique ID.
func NewRandomID() string {
	return uuid.New().String()
}

// IsValidID returns true if the given string is a valid ID.
func IsValidID(id string) bool {
	_, err := uuid.Parse(id)
	return err == nil
}
