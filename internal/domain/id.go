package domain

import "github.com/google/uuid"

// generateID creates a new unique identifier.
func generateID() string {
	return uuid.New().String()
}

// NewBreathID returns an identifier for a breath created outside the domain.
func NewBreathID() string {
	return generateID()
}
