package models

import "github.com/google/uuid"

// ensureID assigns a random id when the caller left it unset. IDs are
// generated client-side so the same models work on postgres and sqlite.
func ensureID(id *uuid.UUID) {
	if *id == uuid.Nil {
		*id = uuid.New()
	}
}
