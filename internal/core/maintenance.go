package core

import (
	"context"
	"fmt"
	"time"

	"github.com/warp-run/scdash/internal/metrics"
	"github.com/warp-run/scdash/internal/sheetapi"
)

// SetMaintenance flips the global maintenance flag. Only the designated
// developer identity may call it, the change must be explicitly confirmed,
// and a toggle arriving while another is in flight is dropped. Turning ON
// persists a start timestamp and begins the per-second elapsed counter;
// turning OFF clears both.
func (a *App) SetMaintenance(ctx context.Context, status string, confirmed bool) error {
	if status != sheetapi.MaintenanceOn && status != sheetapi.MaintenanceOff {
		return fmt.Errorf("invalid maintenance status %q", status)
	}

	a.mu.Lock()
	if !a.developerLocked() {
		a.mu.Unlock()
		return fmt.Errorf("only the developer account can change maintenance mode")
	}
	if !confirmed {
		a.mu.Unlock()
		return fmt.Errorf("maintenance change requires confirmation")
	}
	if a.toggling {
		a.mu.Unlock()
		return fmt.Errorf("a maintenance change is already in progress")
	}
	a.toggling = true
	sess := a.sess
	a.mu.Unlock()

	defer func() {
		a.mu.Lock()
		a.toggling = false
		a.mu.Unlock()
	}()

	if err := a.sheet.UpdateMaintenanceStatus(ctx, status, sess.Email); err != nil {
		return fmt.Errorf("update maintenance status: %w", err)
	}

	now := time.Now()
	a.mu.Lock()
	a.maintStatus = status
	if status == sheetapi.MaintenanceOn {
		a.maintStart = &now
		a.startElapsedLocked()
	} else {
		a.maintStart = nil
		a.maintElapsed = 0
		a.stopElapsedLocked()
	}
	a.mu.Unlock()

	if a.prefs != nil {
		var err error
		if status == sheetapi.MaintenanceOn {
			err = a.prefs.SetMaintenanceStart(now)
		} else {
			err = a.prefs.ClearMaintenanceStart()
		}
		if err != nil {
			a.log.WithError(err).Warn("could not persist maintenance start")
		}
	}

	a.audit(sess.Email, sess.Name, "Maintenance", status)
	metrics.MaintenanceToggles.WithLabelValues(status).Inc()
	a.log.WithField("status", status).Info("maintenance mode changed")
	return nil
}

// ToggleMaintenance flips to the opposite of the current status. It is the
// assistant's entry point; the developer check still applies.
func (a *App) ToggleMaintenance() error {
	a.mu.Lock()
	target := sheetapi.MaintenanceOn
	if a.maintStatus == sheetapi.MaintenanceOn {
		target = sheetapi.MaintenanceOff
	}
	a.mu.Unlock()
	return a.SetMaintenance(context.Background(), target, true)
}

// setMaintenanceStatusLocked installs a status derived from a fetched
// permission list. The start timestamp is only ever written by an explicit
// toggle; a remotely flipped flag runs with whatever start is persisted.
func (a *App) setMaintenanceStatusLocked(status string) {
	if status == a.maintStatus {
		return
	}
	a.maintStatus = status
	if status == sheetapi.MaintenanceOn {
		a.startElapsedLocked()
	} else {
		a.maintElapsed = 0
		a.stopElapsedLocked()
	}
}

// startElapsedLocked begins the per-second counter. Caller holds a.mu.
func (a *App) startElapsedLocked() {
	if a.maintStop != nil || a.closed {
		return
	}
	stop := make(chan struct{})
	a.maintStop = stop
	go func() {
		ticker := time.NewTicker(time.Second)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case now := <-ticker.C:
				a.mu.Lock()
				if a.maintStart != nil {
					a.maintElapsed = elapsedSeconds(*a.maintStart, now)
				}
				a.mu.Unlock()
			}
		}
	}()
}

// stopElapsedLocked halts the counter. Caller holds a.mu.
func (a *App) stopElapsedLocked() {
	if a.maintStop != nil {
		close(a.maintStop)
		a.maintStop = nil
	}
}

// elapsedSeconds is the derived counter value: whole seconds since start,
// never negative.
func elapsedSeconds(start, now time.Time) int {
	secs := int(now.Sub(start) / time.Second)
	if secs < 0 {
		return 0
	}
	return secs
}

func (a *App) maintenanceStateLocked() MaintenanceState {
	st := MaintenanceState{
		Status:         a.maintStatus,
		ElapsedSeconds: a.maintElapsed,
		Toggling:       a.toggling,
	}
	if a.maintStart != nil {
		t := *a.maintStart
		st.StartedAt = &t
	}
	return st
}
