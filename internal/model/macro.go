package model

import "github.com/google/uuid"

// Macro is a user-defined preset that biases the assistant toward a set of
// required actions. RequiredActionIDs is what storage persists;
// RequiredActions carries the resolved action names for prompt rendering.
type Macro struct {
	MacroID           uuid.UUID
	UserID            uuid.UUID
	Name              string
	Prompt            string
	AllowOtherActions bool
	RequiredActionIDs []uuid.UUID
	RequiredActions   []string
}
