package core

import (
	"fmt"

	"github.com/google/uuid"
)

// TaskIDGenerator defines the interface for generating unique task IDs.
type TaskIDGenerator interface {
	GenerateTaskID() (string, error)
}

// uuidTaskIDGenerator implements TaskIDGenerator with random (version 4)
// UUIDs, the same shape the mobile app stored.
type uuidTaskIDGenerator struct{}

// NewTaskIDGenerator creates a TaskIDGenerator producing random UUIDs.
func NewTaskIDGenerator() TaskIDGenerator {
	return uuidTaskIDGenerator{}
}

// GenerateTaskID returns a new random UUID string such as
// "9b2d3f0e-6a1c-4e57-8a0b-3f1c2d4e5f60".
func (uuidTaskIDGenerator) GenerateTaskID() (string, error) {
	id, err := uuid.NewRandom()
	if err != nil {
		return "", fmt.Errorf("generating task id: %w", err)
	}
	return id.String(), nil
}
