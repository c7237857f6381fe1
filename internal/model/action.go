package model

import "github.com/google/uuid"

// Action is a catalog entry describing a callable capability. The catalog is
// what macros reference; the executable side lives in the action registry.
type Action struct {
	ActionID    uuid.UUID
	Name        string
	Description string
}
