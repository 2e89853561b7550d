package core

import "time"

func newIdleTimer(a *App) *time.Timer {
	return time.AfterFunc(a.screensaverTimeout, a.idleExpired)
}

// Activity records user input: it dismisses the screensaver if showing and
// restarts the idle timer. Called for every qualifying interaction reported
// by the client.
func (a *App) Activity() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed {
		return
	}
	a.screensaver = false
	if a.idleTimer != nil {
		a.idleTimer.Stop()
	}
	a.idleTimer = newIdleTimer(a)
}

// Screensaver reports whether the idle overlay is active.
func (a *App) Screensaver() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.screensaver
}

// idleExpired fires when the threshold passes with no activity. The
// overlay is suppressed while a tour is running or the assistant modal is
// open; in that case the timer re-arms and tries again later.
func (a *App) idleExpired() {
	if a.tour.Running() || a.assistant.ModalOpen() {
		a.mu.Lock()
		if !a.closed {
			a.idleTimer = newIdleTimer(a)
		}
		a.mu.Unlock()
		return
	}
	a.mu.Lock()
	a.screensaver = true
	a.idleTimer = nil
	a.mu.Unlock()
	a.log.Info("screensaver shown")
}
