package models

import "time"

// OTPVerification is a one-time numeric code sent to a phone during signup.
// At most one unverified code exists per phone; verification is single-use.
type OTPVerification struct {
	ID         int64      `json:"id"`
	Phone      string     `json:"phone"`
	Code       string     `json:"code"`
	ExpiresAt  time.Time  `json:"expires_at"`
	VerifiedAt *time.Time `json:"verified_at"`
	CreatedAt  time.Time  `json:"created_at"`
}
