package sheetapi

import (
	"context"
	"fmt"
)

// UpdateMaintenanceStatus writes the global maintenance flag. The server
// records which identity requested the change.
func (c *Client) UpdateMaintenanceStatus(ctx context.Context, status, actorEmail string) error {
	if status != MaintenanceOn && status != MaintenanceOff {
		return fmt.Errorf("invalid maintenance status %q", status)
	}

	req := struct {
		Action    string `json:"action"`
		Status    string `json:"status"`
		UserEmail string `json:"userEmail"`
	}{Action: "update_maintenance_status", Status: status, UserEmail: actorEmail}

	if err := c.post(ctx, req, nil); err != nil {
		return fmt.Errorf("update maintenance status: %w", err)
	}
	return nil
}
