package server

import "github.com/webpilot-dev/webpilot/internal/browser"

// CommandRequest is the body of POST /interact.
type CommandRequest struct {
	Command string         `json:"command"`
	Options map[string]any `json:"options,omitempty"`
}

// CommandResponse is the body returned by POST /interact.
type CommandResponse struct {
	Success bool           `json:"success"`
	Message string         `json:"message"`
	Data    map[string]any `json:"data,omitempty"`
}

// StatusResponse is the body returned by GET /status.
type StatusResponse struct {
	Status      string          `json:"status"`
	BrowserInfo *browser.Status `json:"browser_info,omitempty"`
	Message     string          `json:"message,omitempty"`
}

// ResetResponse is the body returned by POST /reset.
type ResetResponse struct {
	Status  string `json:"status"`
	Message string `json:"message"`
}
