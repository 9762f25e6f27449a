package domain

import "time"

type Role string

const (
	RoleRecipient Role = "recipient"
	RoleDonor     Role = "donor"
	RoleAdmin     Role = "admin"
	RoleModerator Role = "moderator"
)

// IsHelper reports whether the role browses and claims other users' requests.
func (r Role) IsHelper() bool {
	return r == RoleDonor || r == RoleAdmin || r == RoleModerator
}

type UserRole struct {
	UserID    string    `json:"user_id" dynamodbav:"user_id"`
	Role      Role      `json:"role" dynamodbav:"role"`
	CreatedAt time.Time `json:"created_at" dynamodbav:"created_at"`
}

// RoleForSignUp maps the sign-up choice ("user" needs help, "helper" gives it) to a role.
func RoleForSignUp(choice string) Role {
	if choice == "helper" {
		return RoleDonor
	}
	return RoleRecipient
}

func (r Role) Valid() bool {
	switch r {
	case RoleRecipient, RoleDonor, RoleAdmin, RoleModerator:
		return true
	}
	return false
}
