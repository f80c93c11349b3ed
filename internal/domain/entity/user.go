// Package entity contains the core business objects of the project,
// each representing a unique, identifiable concept within the domain.
package entity

import "time"

// User is the persisted identity record. Email is the natural key used by
// login and profile update; ID is assigned by the store on insert.
type User struct {
	ID           string     // Store-assigned identifier, immutable once set.
	Email        string     // Unique per record, compared case-sensitively.
	FirstName    string     // Display attribute.
	LastName     string     // Display attribute.
	PasswordHash string     // Opaque salted hash, never the plaintext.
	CreatedAt    time.Time  // Set once by registration.
	UpdatedAt    *time.Time // Nil until the first profile update.
}

// UserPatch is the only mutation a stored user accepts. It has no Email or
// PasswordHash field, so an update cannot change either.
type UserPatch struct {
	FirstName *string
	LastName  *string
	UpdatedAt time.Time
}

// Apply copies the patch onto u.
func (p *UserPatch) Apply(u *User) {
	if p.FirstName != nil {
		u.FirstName = *p.FirstName
	}
	if p.LastName != nil {
		u.LastName = *p.LastName
	}
	updatedAt := p.UpdatedAt
	u.UpdatedAt = &updatedAt
}
