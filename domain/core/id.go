package core

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
)

// ID represents a domain identifier
type ID string

// NewID creates a new unique identifier using UUID v7 for time-ordered generation
func NewID() ID {
	id, err := uuid.NewV7()
	if err != nil {
		// Fallback to v4 if v7 fails
		id = uuid.New()
	}
	return ID(id.String())
}

// String returns the string representation
func (id ID) String() string {
	return string(id)
}

// IsEmpty checks if the ID is empty
func (id ID) IsEmpty() bool {
	return id == ""
}

// ExperimentID identifies one live experiment and its engine.
type ExperimentID ID

// String returns the string representation
func (id ExperimentID) String() string { return ID(id).String() }

// ParseExperimentID parses a string into ExperimentID
func ParseExperimentID(s string) (ExperimentID, error) {
	if strings.TrimSpace(s) == "" {
		return "", fmt.Errorf("experiment ID cannot be empty")
	}
	return ExperimentID(s), nil
}
