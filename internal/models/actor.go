package models

import "github.com/google/uuid"

// UnknownActorName is credited to log records whose actor no longer resolves.
const UnknownActorName = "Unknown"

// Actor is an officer or admin identity as stored in its directory.
type Actor struct {
	ID        uuid.UUID `json:"id"`
	FirstName *string   `json:"first_name,omitempty"`
	LastName  *string   `json:"last_name,omitempty"`
}

// DisplayName joins first and last name with a single space; a missing part
// contributes an empty string.
func (a *Actor) DisplayName() string {
	var first, last string
	if a.FirstName != nil {
		first = *a.FirstName
	}
	if a.LastName != nil {
		last = *a.LastName
	}
	return first + " " + last
}
