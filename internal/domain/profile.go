package domain

import "time"

type Profile struct {
	UserID    string     `json:"id" dynamodbav:"user_id"`
	FullName  string     `json:"full_name" dynamodbav:"full_name"`
	Phone     *string    `json:"phone" dynamodbav:"phone,omitempty"`
	Location  *Location  `json:"location" dynamodbav:"location,omitempty"`
	CreatedAt time.Time  `json:"created_at" dynamodbav:"created_at"`
	UpdatedAt *time.Time `json:"updated_at" dynamodbav:"updated_at,omitempty"`
}

// HasLocation reports whether the profile carries a usable position.
func (p *Profile) HasLocation() bool { return p != nil && p.Location != nil && p.Location.IsSet() }
