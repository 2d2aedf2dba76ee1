package models

import (
	"time"
)

const DefaultUserRole = "user"

type User struct {
	ID           string    `json:"id" dynamodbav:"id"`
	PhoneNumber  string    `json:"phone_number" dynamodbav:"phone_number"`
	Name         string    `json:"name,omitempty" dynamodbav:"name,omitempty"`
	Role         string    `json:"role" dynamodbav:"role"`
	PasswordHash string    `json:"-" dynamodbav:"password_hash,omitempty"`
	CreatedAt    time.Time `json:"created_at" dynamodbav:"created_at"`
	UpdatedAt    time.Time `json:"updated_at" dynamodbav:"updated_at"`
}

func (u *User) GetPK() string {
	return "USER!" + u.PhoneNumber
}

func (u *User) GetSK() string {
	return "METADATA"
}

// HasPassword reports whether the user can authenticate on the
// password path. Users created through OTP verification have none.
func (u *User) HasPassword() bool {
	return u.PasswordHash != ""
}
