package sheetapi

import (
	"context"
	"fmt"
)

// FetchDashboardData retrieves the consolidated dashboard payload: pending
// tasks, the permission list, performance rows, and today's tasks.
func (c *Client) FetchDashboardData(ctx context.Context) (*DashboardData, error) {
	req := struct {
		Action string `json:"action"`
	}{Action: "get_dashboard_data"}

	var data DashboardData
	if err := c.post(ctx, req, &data); err != nil {
		return nil, fmt.Errorf("fetch dashboard data: %w", err)
	}

	if data.PendingTasks == nil {
		data.PendingTasks = []FollowUp{}
	}
	if data.UserPermissions == nil {
		data.UserPermissions = Permissions{}
	}
	if data.PerformanceData == nil {
		data.PerformanceData = []Performance{}
	}
	if data.TodaysTasks == nil {
		data.TodaysTasks = []TodaysTask{}
	}

	return &data, nil
}
