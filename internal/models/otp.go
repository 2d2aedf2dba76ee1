package models

import "time"

type OTPEntry struct {
	Code      string    `json:"code"`
	Phone     string    `json:"phone"`
	Attempts  int       `json:"attempts"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

type RateLimitWindow struct {
	Count   int       `json:"count"`
	ResetAt time.Time `json:"reset_at"`
}
