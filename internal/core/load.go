package core

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/warp-run/scdash/internal/sheetapi"
)

// Progress timing for the initial load. The slow ramp runs against an
// unknown real latency; the fast ramp closes the gap once the fetch lands.
const (
	defaultSlowTick   = 120 * time.Millisecond
	defaultFastTick   = 40 * time.Millisecond
	defaultLoadSettle = 500 * time.Millisecond

	slowRampCeiling = 90
	fastRampStep    = 5
)

// LoadInitial performs the one-time startup fetch with the synthetic
// progress ramp. The slow ramp ticks toward 90% independently of the real
// fetch; once the fetch resolves the ramp is cancelled and a fast ramp
// closes to 100%, followed by a settle delay before the app flips to
// loaded. A failed fetch still completes the load so the login screen can
// show the error.
func (a *App) LoadInitial(ctx context.Context) error {
	a.mu.Lock()
	if a.loaded || a.loading {
		a.mu.Unlock()
		return nil
	}
	a.loading = true
	a.mu.Unlock()

	if !a.sheet.Configured() {
		a.finishLoad("the data service URL is not configured", nil)
		return fmt.Errorf("sheet client not configured")
	}

	stopRamp := make(chan struct{})
	rampDone := make(chan struct{})
	go a.slowRamp(stopRamp, rampDone)

	data, err := a.sheet.FetchDashboardData(ctx)

	close(stopRamp)
	<-rampDone

	if err != nil {
		a.log.WithError(err).Error("initial load failed")
		a.fastRamp()
		a.finishLoad(err.Error(), nil)
		return err
	}

	a.fastRamp()
	a.finishLoad("", data)
	a.startAutoRefresh()
	a.log.WithField("leads", len(data.PendingTasks)).Info("initial load complete")
	return nil
}

// slowRamp advances progress by one point per tick up to the ceiling.
func (a *App) slowRamp(stop <-chan struct{}, done chan<- struct{}) {
	defer close(done)
	ticker := time.NewTicker(a.slowTick)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			a.mu.Lock()
			if a.progress < slowRampCeiling {
				a.progress++
			}
			a.mu.Unlock()
		}
	}
}

// fastRamp closes the remaining distance to 100% in fixed steps.
func (a *App) fastRamp() {
	ticker := time.NewTicker(a.fastTick)
	defer ticker.Stop()
	for {
		a.mu.Lock()
		a.progress += fastRampStep
		if a.progress >= 100 {
			a.progress = 100
			a.mu.Unlock()
			return
		}
		a.mu.Unlock()
		<-ticker.C
	}
}

// finishLoad applies the fetched data (if any), records the error (if any),
// waits out the settle delay, and flips to loaded.
func (a *App) finishLoad(errMsg string, data *sheetapi.DashboardData) {
	if data != nil {
		a.applyData(data)
	}
	time.Sleep(a.settleDelay)
	a.mu.Lock()
	a.loadErr = errMsg
	a.progress = 100
	a.loaded = true
	a.loading = false
	a.mu.Unlock()
}

// startAutoRefresh arms the periodic refresh once the initial load is done.
func (a *App) startAutoRefresh() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed || a.cron != nil {
		return
	}
	c := cron.New()
	spec := fmt.Sprintf("@every %s", a.refreshInterval)
	if _, err := c.AddFunc(spec, func() {
		if err := a.Refresh(context.Background()); err != nil {
			a.log.WithError(err).Warn("scheduled refresh failed")
		}
	}); err != nil {
		a.log.WithError(err).Error("could not schedule refresh")
		return
	}
	c.Start()
	a.cron = c
}
