// Package core owns the application state: the active session, the loaded
// dashboard data, the maintenance gate, the screen selection, and the
// background loops (periodic refresh, elapsed counter, inactivity timer).
// All mutation happens through its operations; nothing else writes state.
package core

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/robfig/cron/v3"
	log "github.com/sirupsen/logrus"

	"github.com/warp-run/scdash/internal/ai"
	"github.com/warp-run/scdash/internal/assistant"
	"github.com/warp-run/scdash/internal/dashboard"
	"github.com/warp-run/scdash/internal/session"
	"github.com/warp-run/scdash/internal/sheetapi"
	"github.com/warp-run/scdash/internal/speech"
	"github.com/warp-run/scdash/internal/tour"
)

// Screen identifies which top-level screen should be showing.
type Screen string

const (
	ScreenLoading     Screen = "loading"
	ScreenMaintenance Screen = "maintenance"
	ScreenLogin       Screen = "login"
	ScreenDashboard   Screen = "dashboard"
)

const (
	defaultRefreshInterval    = 60 * time.Second
	defaultScreensaverTimeout = 120 * time.Second
	defaultTourStartDelay     = 1 * time.Second
)

// MaintenanceState is the externally visible maintenance gate.
type MaintenanceState struct {
	Status         string     `json:"status"`
	StartedAt      *time.Time `json:"startedAt,omitempty"`
	ElapsedSeconds int        `json:"elapsedSeconds"`
	Toggling       bool       `json:"toggling"`
}

// State is a full snapshot of the application, served over the control API.
type State struct {
	Screen      Screen                `json:"screen"`
	Session     *session.Session      `json:"session,omitempty"`
	Loaded      bool                  `json:"loaded"`
	Progress    int                   `json:"progress"`
	Error       string                `json:"error,omitempty"`
	LastUpdated *time.Time            `json:"lastUpdated,omitempty"`
	Maintenance MaintenanceState      `json:"maintenance"`
	Screensaver bool                  `json:"screensaver"`
	SCEmails    []string              `json:"scEmails,omitempty"`
	Tickets     []sheetapi.HelpTicket `json:"tickets,omitempty"`
	Dashboard   *dashboard.State      `json:"dashboard,omitempty"`
	Tour        tour.State            `json:"tour"`
	Assistant   assistant.Snapshot    `json:"assistant"`
}

// App is the state container. Construct with New, tear down with Close.
type App struct {
	sheet     *sheetapi.Client
	sessions  *session.Store
	prefs     *session.PrefsStore
	view      *dashboard.View
	tour      *tour.Controller
	assistant *assistant.Assistant
	log       *log.Entry

	developerEmail     string
	refreshInterval    time.Duration
	screensaverTimeout time.Duration
	tourStartDelay     time.Duration
	slowTick           time.Duration
	fastTick           time.Duration
	settleDelay        time.Duration

	cron *cron.Cron

	mu          sync.Mutex
	sess        *session.Session
	data        *sheetapi.DashboardData
	tickets     []sheetapi.HelpTicket
	scEmails    []string
	lastUpdated time.Time
	loadErr     string
	progress    int
	loaded      bool
	loading     bool

	maintStatus  string
	maintStart   *time.Time
	maintElapsed int
	maintStop    chan struct{}
	toggling     bool

	screensaver bool
	idleTimer   *time.Timer

	tourTimer *time.Timer
	closed    bool

	refreshMu      sync.Mutex
	refreshing     bool
	refreshWaiters []chan error
}

// Option configures the App.
type Option func(*App)

// WithDeveloperEmail sets the single identity allowed to toggle maintenance.
func WithDeveloperEmail(email string) Option {
	return func(a *App) { a.developerEmail = strings.ToLower(strings.TrimSpace(email)) }
}

// WithRefreshInterval overrides the automatic refresh period.
func WithRefreshInterval(d time.Duration) Option {
	return func(a *App) { a.refreshInterval = d }
}

// WithScreensaverTimeout overrides the idle threshold.
func WithScreensaverTimeout(d time.Duration) Option {
	return func(a *App) { a.screensaverTimeout = d }
}

// WithTourStartDelay overrides the delay before a first-login tour starts.
func WithTourStartDelay(d time.Duration) Option {
	return func(a *App) { a.tourStartDelay = d }
}

// WithProgressTiming overrides the initial-load progress timers.
func WithProgressTiming(slowTick, fastTick, settle time.Duration) Option {
	return func(a *App) {
		a.slowTick = slowTick
		a.fastTick = fastTick
		a.settleDelay = settle
	}
}

// New builds the App and its assistant. The voice synthesizer and recognizer
// may be nil; everything voice-related degrades gracefully without them.
func New(sheet *sheetapi.Client, sessions *session.Store, prefs *session.PrefsStore,
	aiClient *ai.Client, voice *speech.Synthesizer, recognizer speech.Recognizer,
	opts ...Option) *App {

	a := &App{
		sheet:              sheet,
		sessions:           sessions,
		prefs:              prefs,
		view:               dashboard.NewView(),
		log:                log.WithField("component", "core"),
		refreshInterval:    defaultRefreshInterval,
		screensaverTimeout: defaultScreensaverTimeout,
		tourStartDelay:     defaultTourStartDelay,
		slowTick:           defaultSlowTick,
		fastTick:           defaultFastTick,
		settleDelay:        defaultLoadSettle,
		maintStatus:        sheetapi.MaintenanceOff,
		progress:           0,
	}
	for _, opt := range opts {
		opt(a)
	}

	a.tour = tour.NewController(narratorFor(voice))
	a.tour.SetHandle(a.view)
	a.assistant = assistant.New(aiClient, voice, a, assistant.WithRecognizer(recognizer))

	if sess, err := a.sessions.Load(); err != nil {
		a.log.WithError(err).Warn("could not load cached session")
	} else if sess != nil {
		a.sess = sess
	}
	if prefs != nil {
		if p, err := prefs.Load(); err == nil && p != nil && p.MaintenanceStartedAt != nil {
			a.maintStart = p.MaintenanceStartedAt
		}
	}

	return a
}

// narratorFor adapts a possibly-nil synthesizer to the tour's interface.
func narratorFor(voice *speech.Synthesizer) tour.Narrator {
	if voice == nil {
		return nil
	}
	return voice
}

// Tour returns the walkthrough controller.
func (a *App) Tour() *tour.Controller { return a.tour }

// Assistant returns the conversation pipeline.
func (a *App) Assistant() *assistant.Assistant { return a.assistant }

// Handle exposes the dashboard view's imperative surface. It is nil until
// the initial load has completed.
func (a *App) Handle() dashboard.Handle {
	a.mu.Lock()
	defer a.mu.Unlock()
	if !a.loaded {
		return nil
	}
	return a.view
}

// Screen derives the screen to show. Priority: still loading, then the
// maintenance block (which stops even authenticated non-developers), then
// login, then the dashboard.
func (a *App) Screen() Screen {
	a.mu.Lock()
	defer a.mu.Unlock()
	switch {
	case !a.loaded:
		return ScreenLoading
	case a.maintStatus == sheetapi.MaintenanceOn && !a.developerLocked():
		return ScreenMaintenance
	case a.sess == nil:
		return ScreenLogin
	default:
		return ScreenDashboard
	}
}

// Login validates the email against the fetched permission list and, on
// success, persists the session, audits the login, resets the idle timer,
// and schedules a first-login tour when the record's login count is zero.
func (a *App) Login(ctx context.Context, email, method string) error {
	a.mu.Lock()
	if a.data == nil {
		a.mu.Unlock()
		return fmt.Errorf("dashboard data is not loaded yet")
	}
	perms := a.data.UserPermissions
	a.mu.Unlock()

	rec := perms.FindByEmail(email)
	if rec == nil {
		return fmt.Errorf("no account found for %q", email)
	}

	isDev := a.developerEmail != "" && strings.EqualFold(strings.TrimSpace(rec.Email), a.developerEmail)
	if rec.UserType != sheetapi.UserTypeAdmin && rec.UserType != sheetapi.UserTypeUser && !isDev {
		return fmt.Errorf("account %q is not permitted to sign in", email)
	}
	if strings.TrimSpace(rec.Name) == "" {
		return fmt.Errorf("account %q has an incomplete permission record", email)
	}

	role := session.RoleUser
	if rec.UserType == sheetapi.UserTypeAdmin || isDev {
		role = session.RoleAdmin
	}

	sess := &session.Session{
		Email:   rec.Email,
		Name:    rec.Name,
		Role:    role,
		Method:  method,
		SavedAt: time.Now(),
	}
	if err := a.sessions.Save(sess); err != nil {
		return fmt.Errorf("persist session: %w", err)
	}

	a.mu.Lock()
	a.sess = sess
	a.mu.Unlock()

	a.audit(sess.Email, sess.Name, "Login", method)
	a.Activity()
	go a.reloadTickets(context.Background())

	if rec.LoginCount == 0 {
		a.scheduleTourStart(role)
	}

	a.log.WithFields(log.Fields{"email": sess.Email, "role": role}).Info("logged in")
	return nil
}

// scheduleTourStart arms the first-login walkthrough after a short delay so
// the dashboard screen is up before the first tooltip targets it.
func (a *App) scheduleTourStart(role session.Role) {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.closed {
		return
	}
	if a.tourTimer != nil {
		a.tourTimer.Stop()
	}
	a.tourTimer = time.AfterFunc(a.tourStartDelay, func() {
		if err := a.tour.Start(tour.PageDashboard, role); err != nil {
			a.log.WithError(err).Warn("auto tour start failed")
		}
	})
}

// Logout ends the session. The tour is stopped first so narration cannot
// continue into the logged-out screen, then the dashboard view is reset and
// the session and its derived caches are cleared and the idle timer is
// cancelled.
func (a *App) Logout() {
	a.tour.End()

	a.mu.Lock()
	sess := a.sess
	a.mu.Unlock()
	if sess != nil {
		a.audit(sess.Email, sess.Name, "Logout", "")
	}

	if err := a.sessions.Clear(); err != nil {
		a.log.WithError(err).Warn("could not clear session file")
	}
	if a.prefs != nil {
		if err := a.prefs.ClearColumnWidths(); err != nil {
			a.log.WithError(err).Warn("could not clear column widths")
		}
	}

	a.view.Reset()

	a.mu.Lock()
	data := a.data
	a.sess = nil
	a.tickets = nil
	a.scEmails = nil
	a.screensaver = false
	if a.idleTimer != nil {
		a.idleTimer.Stop()
		a.idleTimer = nil
	}
	if a.tourTimer != nil {
		a.tourTimer.Stop()
		a.tourTimer = nil
	}
	a.mu.Unlock()

	// The lead table is derived from cached data, not from the session, so
	// the freshly reset view gets it back right away.
	if data != nil {
		a.view.SetLeads(leadsFrom(data.PendingTasks))
	}

	a.log.Info("logged out")
}

// IsDeveloper reports whether the current session is the designated
// developer identity.
func (a *App) IsDeveloper() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.developerLocked()
}

func (a *App) developerLocked() bool {
	if a.sess == nil || a.developerEmail == "" {
		return false
	}
	return strings.EqualFold(strings.TrimSpace(a.sess.Email), a.developerEmail)
}

// Session returns the current session, or nil.
func (a *App) Session() *session.Session {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.sess
}

// Context assembles the snapshot sent with every assistant prompt: the
// identity, the live view state, and summary statistics over the loaded
// leads.
func (a *App) Context() ai.Context {
	a.mu.Lock()
	sess := a.sess
	data := a.data
	dev := a.developerLocked()
	a.mu.Unlock()

	out := ai.Context{DashboardState: map[string]interface{}{}}
	if sess != nil {
		out.User = ai.ContextUser{
			Email:       sess.Email,
			Name:        sess.Name,
			Role:        string(sess.Role),
			IsDeveloper: dev,
		}
	}

	state := a.view.CurrentState()
	out.DashboardState["view"] = state.View
	out.DashboardState["reportModal"] = state.ReportModal
	out.DashboardState["filters"] = state.Filters
	out.DashboardState["visibleLeads"] = state.VisibleLeads
	out.DashboardState["markedDone"] = state.MarkedDone

	if data != nil {
		out.DataSummary = summarize(data.PendingTasks)
	}
	return out
}

// summarize computes the lead statistics for the assistant context.
func summarize(leads []sheetapi.FollowUp) ai.DataSummary {
	sum := ai.DataSummary{TotalLeads: len(leads)}
	codes := map[string]bool{}
	for _, l := range leads {
		if strings.Contains(strings.ToLower(l.LastStatus), "pending") {
			sum.PendingLeads++
		}
		if l.StepCode != "" {
			codes[l.StepCode] = true
		}
	}
	for code := range codes {
		sum.UniqueStepCodes = append(sum.UniqueStepCodes, code)
	}
	sort.Strings(sum.UniqueStepCodes)
	return sum
}

// Tickets returns the cached help tickets.
func (a *App) Tickets() []sheetapi.HelpTicket {
	a.mu.Lock()
	defer a.mu.Unlock()
	return append([]sheetapi.HelpTicket(nil), a.tickets...)
}

// UpdateTicket changes a ticket's status and re-fetches the full list; the
// cache is never patched locally.
func (a *App) UpdateTicket(ctx context.Context, ticketID, status string) error {
	a.mu.Lock()
	sess := a.sess
	a.mu.Unlock()
	if sess == nil {
		return fmt.Errorf("not signed in")
	}
	if err := a.sheet.UpdateTicketStatus(ctx, ticketID, status, sess.Email, sess.Name); err != nil {
		return err
	}
	return a.reloadTickets(ctx)
}

// reloadTickets refreshes the ticket cache for the current session.
func (a *App) reloadTickets(ctx context.Context) error {
	a.mu.Lock()
	sess := a.sess
	a.mu.Unlock()
	if sess == nil {
		return nil
	}
	tickets, err := a.sheet.FetchHelpTickets(ctx, sess.Email, string(sess.Role))
	if err != nil {
		a.log.WithError(err).Warn("ticket fetch failed")
		return err
	}
	a.mu.Lock()
	a.tickets = tickets
	a.mu.Unlock()
	return nil
}

// Snapshot returns the full externally visible state.
func (a *App) Snapshot() State {
	screen := a.Screen()

	a.mu.Lock()
	st := State{
		Screen:      screen,
		Session:     a.sess,
		Loaded:      a.loaded,
		Progress:    a.progress,
		Error:       a.loadErr,
		Maintenance: a.maintenanceStateLocked(),
		Screensaver: a.screensaver,
		SCEmails:    append([]string(nil), a.scEmails...),
		Tickets:     append([]sheetapi.HelpTicket(nil), a.tickets...),
	}
	if !a.lastUpdated.IsZero() {
		t := a.lastUpdated
		st.LastUpdated = &t
	}
	loaded := a.loaded
	a.mu.Unlock()

	if loaded {
		view := a.view.CurrentState()
		st.Dashboard = &view
	}
	st.Tour = a.tour.State()
	st.Assistant = a.assistant.Snapshot()
	return st
}

// audit emits a fire-and-forget activity log entry; failures never block.
func (a *App) audit(email, name, action, detail string) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		if err := a.sheet.LogActivity(ctx, email, name, action, detail); err != nil {
			a.log.WithError(err).WithField("action", action).Warn("activity log failed")
		}
	}()
}

// Close tears down every background loop and stops any speech.
func (a *App) Close() {
	a.mu.Lock()
	a.closed = true
	if a.idleTimer != nil {
		a.idleTimer.Stop()
		a.idleTimer = nil
	}
	if a.tourTimer != nil {
		a.tourTimer.Stop()
		a.tourTimer = nil
	}
	if a.maintStop != nil {
		close(a.maintStop)
		a.maintStop = nil
	}
	c := a.cron
	a.cron = nil
	a.mu.Unlock()

	if c != nil {
		c.Stop()
	}
	a.tour.End()
	a.assistant.Close()
}
