package domain

import "time"

// User is the domain model for directory accounts.
//
// SecretHash and the OTP challenge fields belong to the credential flow;
// directory operations carry them through untouched and never project them
// into responses.
type User struct {
	ID                 string
	UserName           string
	Email              string
	SecretHash         string
	IsVerified         bool
	VerifyOTP          *string
	VerifyOTPExpiresAt *time.Time
	ResetOTP           *string
	ResetOTPExpiresAt  *time.Time
	CreatedAt          time.Time
	UpdatedAt          time.Time
}

// Summary is the self-view projection returned to the authenticated caller.
type Summary struct {
	ID         string `json:"id"`
	UserName   string `json:"userName"`
	IsVerified bool   `json:"isVerified"`
}

// Profile is the directory-listing projection.
type Profile struct {
	ID         string `json:"id"`
	UserName   string `json:"userName"`
	Email      string `json:"email"`
	IsVerified bool   `json:"isVerified"`
}

// Summary projects the user into its self view.
func (u *User) Summary() Summary {
	return Summary{ID: u.ID, UserName: u.UserName, IsVerified: u.IsVerified}
}

// Profile projects the user into its directory-listing view.
func (u *User) Profile() Profile {
	return Profile{ID: u.ID, UserName: u.UserName, Email: u.Email, IsVerified: u.IsVerified}
}
