package models

import "time"

// HealthResponse represents the health check response
type HealthResponse struct {
	Status    string            `json:"status"`
	Timestamp time.Time         `json:"timestamp"`
	Version   string            `json:"version"`
	Uptime    time.Duration     `json:"uptime"`
	Checks    map[string]string `json:"checks,omitempty"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error     string    `json:"error"`
	Message   string    `json:"message"`
	RequestID string    `json:"request_id"`
	Timestamp time.Time `json:"timestamp"`
}

// UserResponse is the public view of an authenticated GitHub user
type UserResponse struct {
	ID    string `json:"id"`
	Login string `json:"login"`
	Name  string `json:"name,omitempty"`
}

// AuthResponse is returned after a successful OAuth code exchange
type AuthResponse struct {
	Token       string       `json:"token"`
	AccessToken string       `json:"accessToken"`
	TokenType   string       `json:"tokenType"`
	User        UserResponse `json:"user"`
}

// LoginURLResponse tells the frontend where to send the user
type LoginURLResponse struct {
	URL   string `json:"url"`
	State string `json:"state"`
}

// SummaryResponse carries an AI generated company summary
type SummaryResponse struct {
	URL     string  `json:"url"`
	Summary *string `json:"summary"`
}
