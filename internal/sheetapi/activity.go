package sheetapi

import (
	"context"
	"fmt"

	"github.com/google/uuid"
)

// LogActivity records one audit entry (login, logout, maintenance toggle).
// Callers treat this as fire-and-forget: failures are logged, never surfaced.
func (c *Client) LogActivity(ctx context.Context, email, name, action, detail string) error {
	req := struct {
		Action   string `json:"action"`
		EntryID  string `json:"entryId"`
		Email    string `json:"email"`
		Name     string `json:"name"`
		Activity string `json:"activity"`
		Detail   string `json:"detail,omitempty"`
	}{
		Action:   "log_activity",
		EntryID:  uuid.NewString(),
		Email:    email,
		Name:     name,
		Activity: action,
		Detail:   detail,
	}

	if err := c.post(ctx, req, nil); err != nil {
		return fmt.Errorf("log activity: %w", err)
	}
	return nil
}
