package dto

import "github.com/spec-kit/user-directory/internal/domain"

// UpdateUserRequest is the rename payload. Email is deliberately absent:
// the directory never changes it.
type UpdateUserRequest struct {
	UserName string `json:"userName"`
}

// Envelope is the uniform business-level response wrapper.
type Envelope struct {
	Success bool   `json:"success"`
	Message string `json:"message,omitempty"`
}

// AuthCheckResponse answers the startup is-auth probe.
type AuthCheckResponse struct {
	Envelope
	Authenticated bool `json:"authenticated"`
}

// SelfResponse carries the caller's own summary.
type SelfResponse struct {
	Envelope
	User domain.Summary `json:"user"`
}

// ListUsersResponse carries the directory listing.
type ListUsersResponse struct {
	Envelope
	Users []domain.Profile `json:"users"`
}
