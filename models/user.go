package models

import "time"

// Role distinguishes citizen reporters from volunteer responders.
const (
	RoleCitizen   = "citizen"
	RoleResponder = "responder"
)

// User is the account record. Identity is the verified phone number; the id
// is assigned at registration and never changes.
type User struct {
	ID          string `json:"id" bson:"_id"`
	PhoneNumber string `json:"phoneNumber" bson:"phoneNumber"`
	FirstName   string `json:"firstName" bson:"firstName"`
	LastName    string `json:"lastName" bson:"lastName"`
	State       string `json:"state,omitempty" bson:"state,omitempty"`
	Role        string `json:"role" bson:"role"`

	// Push token for reporter-facing status notifications.
	FCMToken string `json:"fcmToken,omitempty" bson:"fcmToken,omitempty"`

	EmergencyContacts []EmergencyContact `json:"emergencyContacts,omitempty" bson:"emergencyContacts,omitempty"`

	IsActive  bool      `json:"isActive" bson:"isActive"`
	CreatedAt time.Time `json:"createdAt" bson:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt" bson:"updatedAt"`
}

// FullName joins the name parts, tolerating missing ones.
func (u *User) FullName() string {
	switch {
	case u.FirstName == "":
		return u.LastName
	case u.LastName == "":
		return u.FirstName
	}
	return u.FirstName + " " + u.LastName
}

// Snapshot captures the profile fields a report embeds.
func (u *User) Snapshot() UserSnapshot {
	return UserSnapshot{
		FirstName:   u.FirstName,
		LastName:    u.LastName,
		FullName:    u.FullName(),
		PhoneNumber: u.PhoneNumber,
		State:       u.State,
	}
}

type UpdateProfileRequest struct {
	FirstName string `json:"firstName,omitempty"`
	LastName  string `json:"lastName,omitempty"`
	State     string `json:"state,omitempty"`
	FCMToken  string `json:"fcmToken,omitempty"`
}

type UpdateContactsRequest struct {
	EmergencyContacts []EmergencyContact `json:"emergencyContacts" validate:"required,max=5,dive"`
}
