package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Role is the platform-wide permission level. Higher values include all
// capabilities of lower ones.
type Role int

const (
	RoleGuest     Role = 0
	RoleMember    Role = 1
	RoleReferrer  Role = 2
	RoleVolunteer Role = 3
	RoleLead      Role = 4
	RoleAdmin     Role = 5
)

func (r Role) String() string {
	switch r {
	case RoleGuest:
		return "guest"
	case RoleMember:
		return "member"
	case RoleReferrer:
		return "referrer"
	case RoleVolunteer:
		return "volunteer"
	case RoleLead:
		return "lead"
	case RoleAdmin:
		return "admin"
	}
	return "unknown"
}

// Account is implemented by every persisted user variant. RoleLevel is
// the single accessor permission checks are allowed to use.
type Account interface {
	AccountID() primitive.ObjectID
	RoleLevel() Role
}

// MemberUser is a regular member (role=1), stored in "member_users".
type MemberUser struct {
	ID            primitive.ObjectID `json:"id,omitempty" bson:"_id,omitempty"`
	Email         string             `json:"email" bson:"email"`
	FirstName     string             `json:"first_name" bson:"first_name"`
	LastName      string             `json:"last_name" bson:"last_name"`
	Password      string             `json:"password,omitempty" bson:"password"`
	IsActive      bool               `json:"is_active" bson:"is_active"`
	EmailVerified bool               `json:"email_verified" bson:"email_verified"`
	Role          Role               `json:"role" bson:"role"`
	GoogleID      string             `json:"google_id,omitempty" bson:"google_id,omitempty"`
	OAuthProvider string             `json:"oauth_provider,omitempty" bson:"oauth_provider,omitempty"`
	CreatedAt     time.Time          `json:"created_at" bson:"created_at"`
	UpdatedAt     time.Time          `json:"updated_at" bson:"updated_at"`
}

func (u *MemberUser) AccountID() primitive.ObjectID { return u.ID }
func (u *MemberUser) RoleLevel() Role               { return u.Role }

// PrivilegedUser is a referrer/volunteer/lead/admin (role>=2), stored in
// "privileged_users". They log in with username + lead token instead of
// email + password.
type PrivilegedUser struct {
	ID        primitive.ObjectID `json:"id,omitempty" bson:"_id,omitempty"`
	Username  string             `json:"username" bson:"username"`
	LeadToken string             `json:"-" bson:"lead_token"`
	Role      Role               `json:"role" bson:"role"`
	IsActive  bool               `json:"is_active" bson:"is_active"`
	CreatedAt time.Time          `json:"created_at" bson:"created_at"`
}

func (u *PrivilegedUser) AccountID() primitive.ObjectID { return u.ID }
func (u *PrivilegedUser) RoleLevel() Role               { return u.Role }

type Login struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LeadLogin struct {
	Username string `json:"username"`
	Token    string `json:"token"`
}
