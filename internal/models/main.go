// Package models defines the user record and the wire payloads shared by
// the client core and the development backend.
package models

import "encoding/json"

// Role identifies what a principal may reach in the client.
type Role string

const (
	// RoleSuperAdmin is the institute owner.
	RoleSuperAdmin Role = "SUPER_ADMIN"
	// RoleAdmin manages teachers and global notices.
	RoleAdmin Role = "ADMIN"
	// RoleTeacher runs a coaching and its students.
	RoleTeacher Role = "TEACHER"
	// RoleStudent reads attendance, fees, homework and notices.
	RoleStudent Role = "STUDENT"
)

// Roles returns every known role.
func Roles() []Role {
	return []Role{RoleSuperAdmin, RoleAdmin, RoleTeacher, RoleStudent}
}

// Valid reports whether r is one of the known roles.
func (r Role) Valid() bool {
	switch r {
	case RoleSuperAdmin, RoleAdmin, RoleTeacher, RoleStudent:
		return true
	}
	return false
}

// User is the cached representation of the authenticated principal.
type User struct {
	// ID is the backend identifier. The backend emits it as "_id".
	ID string `json:"id"`
	// Role is fixed for the lifetime of a session.
	Role Role `json:"role"`
	// Name is the display name.
	Name string `json:"name"`
	// Email is the login e-mail, empty for students logging in by id.
	Email string `json:"email,omitempty"`
	// ContactNumber is the primary phone number.
	ContactNumber string `json:"contactNumber,omitempty"`
	// WhatsappNumber is the messaging number, if different.
	WhatsappNumber string `json:"whatsappNumber,omitempty"`
	// Address is the postal address.
	Address string `json:"address,omitempty"`
	// ProfilePhoto is a URL or upload reference.
	ProfilePhoto string `json:"profilePhoto,omitempty"`
	// Qualifications is the free-form teacher qualification line.
	Qualifications string `json:"qualifications,omitempty"`
	// Subject is the teacher's primary subject.
	Subject string `json:"subject,omitempty"`
	// CoachingName is the coaching the teacher runs.
	CoachingName string `json:"coachingName,omitempty"`
	// CoachingID links teachers and students to their coaching.
	CoachingID string `json:"coachingId,omitempty"`
}

type userFields User

// UnmarshalJSON accepts both "id" and "_id".
func (u *User) UnmarshalJSON(b []byte) error {
	var aux struct {
		userFields
		BackendID string `json:"_id"`
	}
	if err := json.Unmarshal(b, &aux); err != nil {
		return err
	}
	*u = User(aux.userFields)
	if u.ID == "" {
		u.ID = aux.BackendID
	}
	return nil
}

// MarshalJSON writes the identifier under both "id" and "_id".
func (u User) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		userFields
		BackendID string `json:"_id,omitempty"`
	}{userFields(u), u.ID})
}
