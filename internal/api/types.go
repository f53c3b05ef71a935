package api

import "github.com/faceofmind/admin-sync/internal/model"

// AllAnalyticsResponse from GET /analytics/all, keyed by period name.
type AllAnalyticsResponse map[string]model.AnalyticsSnapshot

// StatusUpdateRequest is the body of PATCH /users/status.
type StatusUpdateRequest struct {
	ID     int64            `json:"id"`
	Status model.UserStatus `json:"status"`
}

// StatusUpdateResponse from PATCH /users/status. User is set when the
// backend returns the updated record.
type StatusUpdateResponse struct {
	Message string      `json:"message,omitempty"`
	User    *model.User `json:"user,omitempty"`
}

// LoginRequest is the body of POST /auth/login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LogoutRequest is the body of POST /auth/logout.
type LogoutRequest struct {
	Refresh string `json:"refresh,omitempty"`
}
