package models

import "github.com/google/uuid"

// File is the subset of an archived document the audit feed needs.
type File struct {
	ID    uuid.UUID `json:"id"`
	Title string    `json:"title"`
}
