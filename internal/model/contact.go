package model

import "time"

// Contact models a row in the `contacts` table.  Every contact belongs to
// exactly one user (UserID) and is invisible to everyone else; repository
// queries always filter by the owner.  Birthday carries only a calendar
// date, the time part is meaningless and kept at midnight UTC.
type Contact struct {
	ID        uint64     // contacts.id
	UserID    uint64     // contacts.user_id
	Firstname string     // contacts.firstname
	Lastname  string     // contacts.lastname
	Email     string     // contacts.email
	Phone     string     // contacts.phone
	Birthday  *time.Time // contacts.birthday (nullable DATE)
	Note      string     // contacts.note
	CreatedAt time.Time  // contacts.created_at
	UpdatedAt time.Time  // contacts.updated_at
}
