package core

import (
	"context"
	"strings"
	"time"

	"github.com/warp-run/scdash/internal/dashboard"
	"github.com/warp-run/scdash/internal/metrics"
	"github.com/warp-run/scdash/internal/sheetapi"
)

// Refresh re-runs the full data fetch without the progress animation.
// Refreshes are serialized: a call that arrives while one is in flight
// waits for that result instead of racing a second fetch, so state never
// sees out-of-order writes.
func (a *App) Refresh(ctx context.Context) error {
	a.refreshMu.Lock()
	if a.refreshing {
		ch := make(chan error, 1)
		a.refreshWaiters = append(a.refreshWaiters, ch)
		a.refreshMu.Unlock()
		select {
		case err := <-ch:
			return err
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	a.refreshing = true
	a.refreshMu.Unlock()

	err := a.doRefresh(ctx)

	a.refreshMu.Lock()
	a.refreshing = false
	waiters := a.refreshWaiters
	a.refreshWaiters = nil
	a.refreshMu.Unlock()
	for _, ch := range waiters {
		ch <- err
	}
	return err
}

func (a *App) doRefresh(ctx context.Context) error {
	started := time.Now()
	data, err := a.sheet.FetchDashboardData(ctx)
	metrics.RefreshDuration.Observe(time.Since(started).Seconds())
	if err != nil {
		metrics.RefreshTotal.WithLabelValues("error").Inc()
		a.log.WithError(err).Warn("refresh failed")
		// prior data stays in place
		a.mu.Lock()
		a.loadErr = err.Error()
		a.mu.Unlock()
		return err
	}

	metrics.RefreshTotal.WithLabelValues("success").Inc()
	a.applyData(data)

	a.mu.Lock()
	hasSession := a.sess != nil
	a.mu.Unlock()
	if hasSession {
		if err := a.reloadTickets(ctx); err != nil {
			a.log.WithError(err).Warn("ticket refresh failed")
		}
	}
	return nil
}

// applyData installs a fetched payload: data caches, the derived SC email
// list, the maintenance flag, the view's lead slice, and the session
// validity check.
func (a *App) applyData(data *sheetapi.DashboardData) {
	status := data.UserPermissions.MaintenanceStatus()

	a.mu.Lock()
	a.data = data
	a.lastUpdated = time.Now()
	a.loadErr = ""
	a.scEmails = data.UserPermissions.UserEmails()
	a.setMaintenanceStatusLocked(status)

	forceLogout := false
	if a.sess != nil {
		rec := data.UserPermissions.FindByEmail(a.sess.Email)
		if rec == nil || strings.TrimSpace(rec.Name) == "" {
			forceLogout = true
		}
	}
	a.mu.Unlock()

	a.view.SetLeads(leadsFrom(data.PendingTasks))

	if forceLogout {
		a.log.Warn("session permission record gone, clearing session")
		a.Logout()
	}
}

// leadsFrom projects follow-ups into the slice the view filters over.
func leadsFrom(tasks []sheetapi.FollowUp) []dashboard.Lead {
	leads := make([]dashboard.Lead, 0, len(tasks))
	for _, t := range tasks {
		leads = append(leads, dashboard.Lead{
			LeadID:     t.LeadID,
			PersonName: t.PersonName,
			StepCode:   t.StepCode,
			SCEmail:    t.SCEmail,
			LastStatus: t.LastStatus,
			State:      t.State,
		})
	}
	return leads
}
