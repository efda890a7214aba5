package http

import "time"

// ErrorResponse represents a generic error payload.
type ErrorResponse struct {
	Error string `json:"error" example:"booking status transition not allowed"`
	Code  string `json:"code" example:"invalid_transition"`
}

// AuthProfile is the profile returned by auth endpoints.
type AuthProfile struct {
	ID        string    `json:"id" example:"9fd13fd2-63c5-4f29-a210-4a1a8e285f74"`
	Email     string    `json:"email" example:"guide@example.com"`
	FullName  *string   `json:"full_name,omitempty" example:"Somchai Guide"`
	AvatarURL *string   `json:"avatar_url,omitempty" example:"https://cdn.example.com/avatar.png"`
	Role      string    `json:"role" example:"provider"`
	CreatedAt time.Time `json:"created_at" example:"2024-01-01T12:00:00Z"`
}

// AuthTokenResponse is returned by endpoints that issue JWT tokens.
type AuthTokenResponse struct {
	Token     string      `json:"token" example:"eyJhbGciOiJIUzI1NiIsInR5cCI6IkpXVCJ9..."`
	ExpiresAt string      `json:"expires_at" example:"2024-01-02T09:30:00Z"`
	Profile   AuthProfile `json:"profile"`
}

type googleLoginRequest struct {
	IDToken string `json:"id_token"`
	Role    string `json:"role"`
}
