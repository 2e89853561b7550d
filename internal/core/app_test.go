package core

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp-run/scdash/internal/ai"
	"github.com/warp-run/scdash/internal/session"
	"github.com/warp-run/scdash/internal/sheetapi"
	"github.com/warp-run/scdash/internal/tour"
)

// fakeBackend emulates the sheet script endpoint: one POST URL dispatching
// on the action field, every response wrapped in the success envelope.
type fakeBackend struct {
	mu             sync.Mutex
	perms          sheetapi.Permissions
	tasks          []sheetapi.FollowUp
	tickets        []sheetapi.HelpTicket
	failDashboard  bool
	dashboardDelay time.Duration
	dashboardCalls int
	activities     []string

	srv *httptest.Server
}

func newFakeBackend(t *testing.T) *fakeBackend {
	t.Helper()
	b := &fakeBackend{perms: defaultPerms()}
	b.srv = httptest.NewServer(http.HandlerFunc(b.handle))
	t.Cleanup(b.srv.Close)
	return b
}

func defaultPerms() sheetapi.Permissions {
	return sheetapi.Permissions{
		{UserType: sheetapi.UserTypeAdmin, Email: "boss@corp.test", Name: "Boss", LoginCount: 4},
		{UserType: sheetapi.UserTypeUser, Email: "asha@corp.test", Name: "Asha Rao", LoginCount: 2},
		{UserType: sheetapi.UserTypeUser, Email: "rookie@corp.test", Name: "Rookie", LoginCount: 0},
		{UserType: sheetapi.UserTypeUser, Email: "dev@corp.test", Name: "Dev", LoginCount: 9},
		{UserType: sheetapi.UserTypeUser, Email: "ghost@corp.test", Name: "", LoginCount: 1},
	}
}

func (b *fakeBackend) handle(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Action   string `json:"action"`
		Activity string `json:"activity"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()

	switch req.Action {
	case "get_dashboard_data":
		b.dashboardCalls++
		if b.dashboardDelay > 0 {
			delay := b.dashboardDelay
			b.mu.Unlock()
			time.Sleep(delay)
			b.mu.Lock()
		}
		if b.failDashboard {
			writeEnvelope(w, false, "sheet script blew up", nil)
			return
		}
		writeEnvelope(w, true, "", sheetapi.DashboardData{
			PendingTasks:    b.tasks,
			UserPermissions: b.perms,
		})

	case "get_help_tickets":
		writeEnvelope(w, true, "", map[string]interface{}{"tickets": b.tickets})

	case "log_activity":
		b.activities = append(b.activities, req.Activity)
		writeEnvelope(w, true, "", nil)

	case "update_maintenance_status", "update_ticket_status":
		writeEnvelope(w, true, "", nil)

	default:
		writeEnvelope(w, false, "unknown action "+req.Action, nil)
	}
}

func writeEnvelope(w http.ResponseWriter, success bool, message string, data interface{}) {
	body := map[string]interface{}{"success": success}
	if message != "" {
		body["message"] = message
	}
	if data != nil {
		body["data"] = data
	}
	_ = json.NewEncoder(w).Encode(body)
}

func (b *fakeBackend) setPerms(perms sheetapi.Permissions) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.perms = perms
}

func (b *fakeBackend) setTickets(tickets []sheetapi.HelpTicket) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.tickets = tickets
}

func (b *fakeBackend) setFailDashboard(v bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.failDashboard = v
}

func (b *fakeBackend) calls() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.dashboardCalls
}

func newTestApp(t *testing.T, b *fakeBackend, opts ...Option) *App {
	t.Helper()
	dir := t.TempDir()
	base := []Option{WithProgressTiming(time.Millisecond, time.Millisecond, 0)}
	app := New(
		sheetapi.NewClient(b.srv.URL),
		session.NewStore(filepath.Join(dir, "session.json")),
		session.NewPrefsStore(filepath.Join(dir, "prefs.json")),
		ai.NewClient(""),
		nil, nil,
		append(base, opts...)...,
	)
	t.Cleanup(app.Close)
	return app
}

func mustLoad(t *testing.T, app *App) {
	t.Helper()
	require.NoError(t, app.LoadInitial(context.Background()))
}

func mustLogin(t *testing.T, app *App, email string) {
	t.Helper()
	require.NoError(t, app.Login(context.Background(), email, "otp"))
}

func TestLoadInitial(t *testing.T) {
	b := newFakeBackend(t)
	b.tasks = []sheetapi.FollowUp{{LeadID: "L-1", StepCode: "Step-1a", LastStatus: "Pending call"}}
	app := newTestApp(t, b)

	assert.Equal(t, ScreenLoading, app.Screen())
	assert.Nil(t, app.Handle(), "the view handle is withheld until loaded")

	mustLoad(t, app)

	snap := app.Snapshot()
	assert.True(t, snap.Loaded)
	assert.Equal(t, 100, snap.Progress)
	assert.Empty(t, snap.Error)
	assert.NotNil(t, snap.LastUpdated)
	assert.Equal(t, ScreenLogin, app.Screen())
	require.NotNil(t, app.Handle())
	assert.Equal(t, 1, app.Handle().CurrentState().VisibleLeads)
}

func TestLoadInitialIsIdempotent(t *testing.T) {
	b := newFakeBackend(t)
	app := newTestApp(t, b)

	mustLoad(t, app)
	mustLoad(t, app)
	assert.Equal(t, 1, b.calls(), "a second load is a no-op")
}

func TestLoadInitialNotConfigured(t *testing.T) {
	dir := t.TempDir()
	app := New(
		sheetapi.NewClient("PASTE_YOUR_URL_HERE"),
		session.NewStore(filepath.Join(dir, "session.json")),
		session.NewPrefsStore(filepath.Join(dir, "prefs.json")),
		ai.NewClient(""),
		nil, nil,
		WithProgressTiming(time.Millisecond, time.Millisecond, 0),
	)
	t.Cleanup(app.Close)

	require.Error(t, app.LoadInitial(context.Background()))

	snap := app.Snapshot()
	assert.True(t, snap.Loaded, "a failed load still completes so the error can show")
	assert.Contains(t, snap.Error, "not configured")
	assert.Equal(t, ScreenLogin, app.Screen())
}

func TestLoadInitialFetchFailure(t *testing.T) {
	b := newFakeBackend(t)
	b.failDashboard = true
	app := newTestApp(t, b)

	require.Error(t, app.LoadInitial(context.Background()))

	snap := app.Snapshot()
	assert.True(t, snap.Loaded)
	assert.Equal(t, 100, snap.Progress)
	assert.Contains(t, snap.Error, "sheet script blew up")
}

func TestLoginRequiresLoadedData(t *testing.T) {
	b := newFakeBackend(t)
	app := newTestApp(t, b)
	require.Error(t, app.Login(context.Background(), "asha@corp.test", "otp"))
}

func TestLogin(t *testing.T) {
	b := newFakeBackend(t)
	app := newTestApp(t, b, WithDeveloperEmail("dev@corp.test"))
	mustLoad(t, app)

	tests := []struct {
		name     string
		email    string
		wantErr  string
		wantRole session.Role
	}{
		{name: "admin", email: "boss@corp.test", wantRole: session.RoleAdmin},
		{name: "user case-insensitive", email: "ASHA@corp.test", wantRole: session.RoleUser},
		{name: "developer gets admin role", email: "dev@corp.test", wantRole: session.RoleAdmin},
		{name: "unknown email", email: "nobody@corp.test", wantErr: "no account found"},
		{name: "incomplete record", email: "ghost@corp.test", wantErr: "incomplete permission record"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := app.Login(context.Background(), tt.email, "otp")
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				return
			}
			require.NoError(t, err)
			sess := app.Session()
			require.NotNil(t, sess)
			assert.Equal(t, tt.wantRole, sess.Role)
			assert.Equal(t, ScreenDashboard, app.Screen())
			app.Logout()
		})
	}
}

func TestLoginRejectsMaintenanceSentinel(t *testing.T) {
	b := newFakeBackend(t)
	b.perms = append(defaultPerms(),
		sheetapi.UserPermission{UserType: sheetapi.UserTypeMaintenance, Email: "status", Name: "OFF"})
	app := newTestApp(t, b)
	mustLoad(t, app)

	err := app.Login(context.Background(), "status", "otp")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not permitted")
}

func TestFirstLoginStartsTour(t *testing.T) {
	b := newFakeBackend(t)
	app := newTestApp(t, b, WithTourStartDelay(50*time.Millisecond))
	mustLoad(t, app)

	mustLogin(t, app, "rookie@corp.test")
	assert.False(t, app.Tour().Running(), "the tour waits for the dashboard to settle")
	assert.Eventually(t, func() bool { return app.Tour().Running() }, time.Second, 5*time.Millisecond)
	assert.Len(t, app.Tour().State().Steps, 12)

	app.Logout()
	assert.False(t, app.Tour().Running(), "logout ends the tour")
	assert.Nil(t, app.Session())
	assert.Equal(t, ScreenLogin, app.Screen())
}

func TestLogoutResetsDashboardView(t *testing.T) {
	b := newFakeBackend(t)
	b.tasks = []sheetapi.FollowUp{
		{LeadID: "L-1", PersonName: "Asha Rao", StepCode: "Step-1a"},
		{LeadID: "L-2", PersonName: "Vikram Shah", StepCode: "Step-2"},
	}
	app := newTestApp(t, b)
	mustLoad(t, app)
	mustLogin(t, app, "asha@corp.test")

	handle := app.Handle()
	require.NoError(t, handle.ChangeView("performance"))
	require.NoError(t, handle.OpenReportModal("Calls Made"))
	require.NoError(t, handle.ApplyFilter("stepCode", "Step-1a"))
	_, err := handle.ClickMarkDone("L-1")
	require.NoError(t, err)

	app.Logout()
	mustLogin(t, app, "boss@corp.test")

	state := app.Handle().CurrentState()
	assert.Equal(t, "dashboard", state.View, "the next session starts on the default view")
	assert.Empty(t, state.ReportModal)
	assert.Nil(t, state.Filters)
	assert.Empty(t, state.MarkedDone)
	assert.Equal(t, 2, state.VisibleLeads, "the lead table survives, only view state is cleared")
}

func TestReturningLoginDoesNotStartTour(t *testing.T) {
	b := newFakeBackend(t)
	app := newTestApp(t, b, WithTourStartDelay(5*time.Millisecond))
	mustLoad(t, app)

	mustLogin(t, app, "asha@corp.test")
	time.Sleep(30 * time.Millisecond)
	assert.False(t, app.Tour().Running())
}

func TestMaintenanceScreenBlocksEveryoneButTheDeveloper(t *testing.T) {
	b := newFakeBackend(t)
	b.perms = append(defaultPerms(),
		sheetapi.UserPermission{UserType: sheetapi.UserTypeMaintenance, Email: "status", Name: "ON"})
	app := newTestApp(t, b, WithDeveloperEmail("dev@corp.test"))
	mustLoad(t, app)

	assert.Equal(t, ScreenMaintenance, app.Screen(), "maintenance outranks login")

	mustLogin(t, app, "dev@corp.test")
	assert.Equal(t, ScreenDashboard, app.Screen(), "the developer works through maintenance")
	app.Logout()

	mustLogin(t, app, "asha@corp.test")
	assert.Equal(t, ScreenMaintenance, app.Screen(), "a signed-in non-developer is still blocked")
}

func TestSetMaintenance(t *testing.T) {
	b := newFakeBackend(t)
	app := newTestApp(t, b, WithDeveloperEmail("dev@corp.test"))
	mustLoad(t, app)

	// nobody signed in
	require.Error(t, app.SetMaintenance(context.Background(), sheetapi.MaintenanceOn, true))

	mustLogin(t, app, "asha@corp.test")
	err := app.SetMaintenance(context.Background(), sheetapi.MaintenanceOn, true)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "only the developer")
	app.Logout()

	mustLogin(t, app, "dev@corp.test")
	require.Error(t, app.SetMaintenance(context.Background(), "BROKEN", true))
	require.Error(t, app.SetMaintenance(context.Background(), sheetapi.MaintenanceOn, false),
		"an unconfirmed change is rejected")

	require.NoError(t, app.SetMaintenance(context.Background(), sheetapi.MaintenanceOn, true))
	snap := app.Snapshot()
	assert.Equal(t, sheetapi.MaintenanceOn, snap.Maintenance.Status)
	require.NotNil(t, snap.Maintenance.StartedAt)

	p, err := app.prefs.Load()
	require.NoError(t, err)
	require.NotNil(t, p.MaintenanceStartedAt, "the start timestamp survives a restart")

	require.NoError(t, app.SetMaintenance(context.Background(), sheetapi.MaintenanceOff, true))
	snap = app.Snapshot()
	assert.Equal(t, sheetapi.MaintenanceOff, snap.Maintenance.Status)
	assert.Nil(t, snap.Maintenance.StartedAt)
	assert.Zero(t, snap.Maintenance.ElapsedSeconds)

	p, err = app.prefs.Load()
	require.NoError(t, err)
	assert.Nil(t, p.MaintenanceStartedAt)
}

func TestToggleMaintenanceFlips(t *testing.T) {
	b := newFakeBackend(t)
	app := newTestApp(t, b, WithDeveloperEmail("dev@corp.test"))
	mustLoad(t, app)
	mustLogin(t, app, "dev@corp.test")

	require.NoError(t, app.ToggleMaintenance())
	assert.Equal(t, sheetapi.MaintenanceOn, app.Snapshot().Maintenance.Status)

	require.NoError(t, app.ToggleMaintenance())
	assert.Equal(t, sheetapi.MaintenanceOff, app.Snapshot().Maintenance.Status)
}

func TestElapsedSeconds(t *testing.T) {
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	tests := []struct {
		name string
		now  time.Time
		want int
	}{
		{"zero", base, 0},
		{"sub-second floors", base.Add(900 * time.Millisecond), 0},
		{"whole seconds", base.Add(5 * time.Second), 5},
		{"fraction discarded", base.Add(5*time.Second + 999*time.Millisecond), 5},
		{"clock skew clamps to zero", base.Add(-3 * time.Second), 0},
		{"hours", base.Add(2 * time.Hour), 7200},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, elapsedSeconds(base, tt.now))
		})
	}
}

func TestRefreshIsSerialized(t *testing.T) {
	b := newFakeBackend(t)
	app := newTestApp(t, b)
	mustLoad(t, app)

	b.mu.Lock()
	b.dashboardDelay = 200 * time.Millisecond
	b.mu.Unlock()

	var wg sync.WaitGroup
	errs := make([]error, 3)
	for i := 0; i < 3; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = app.Refresh(context.Background())
		}(i)
		time.Sleep(20 * time.Millisecond)
	}
	wg.Wait()

	for i, err := range errs {
		assert.NoError(t, err, "call %d", i)
	}
	assert.Equal(t, 2, b.calls(), "one load plus one shared refresh fetch")
}

func TestRefreshErrorKeepsPriorData(t *testing.T) {
	b := newFakeBackend(t)
	b.tasks = []sheetapi.FollowUp{{LeadID: "L-1", StepCode: "Step-1a"}}
	app := newTestApp(t, b)
	mustLoad(t, app)
	require.Equal(t, 1, app.Handle().CurrentState().VisibleLeads)

	b.setFailDashboard(true)
	require.Error(t, app.Refresh(context.Background()))

	snap := app.Snapshot()
	assert.Contains(t, snap.Error, "sheet script blew up")
	assert.Equal(t, 1, app.Handle().CurrentState().VisibleLeads, "stale data beats no data")

	b.setFailDashboard(false)
	require.NoError(t, app.Refresh(context.Background()))
	assert.Empty(t, app.Snapshot().Error, "a good refresh clears the error")
}

func TestRefreshForcesLogoutWhenPermissionVanishes(t *testing.T) {
	b := newFakeBackend(t)
	app := newTestApp(t, b)
	mustLoad(t, app)
	mustLogin(t, app, "asha@corp.test")

	b.setPerms(sheetapi.Permissions{
		{UserType: sheetapi.UserTypeAdmin, Email: "boss@corp.test", Name: "Boss"},
	})
	require.NoError(t, app.Refresh(context.Background()))

	assert.Nil(t, app.Session(), "a revoked permission ends the session on the next refresh")
	assert.Equal(t, ScreenLogin, app.Screen())
}

func TestRefreshPicksUpRemoteMaintenanceFlag(t *testing.T) {
	b := newFakeBackend(t)
	app := newTestApp(t, b)
	mustLoad(t, app)
	require.Equal(t, sheetapi.MaintenanceOff, app.Snapshot().Maintenance.Status)

	b.setPerms(append(defaultPerms(),
		sheetapi.UserPermission{UserType: sheetapi.UserTypeMaintenance, Email: "status", Name: "ON"}))
	require.NoError(t, app.Refresh(context.Background()))

	snap := app.Snapshot()
	assert.Equal(t, sheetapi.MaintenanceOn, snap.Maintenance.Status)
	assert.Nil(t, snap.Maintenance.StartedAt, "a remote flip carries no local start timestamp")
	assert.Equal(t, ScreenMaintenance, app.Screen())
}

func TestSummarize(t *testing.T) {
	leads := []sheetapi.FollowUp{
		{StepCode: "Step-2", LastStatus: "Pending call"},
		{StepCode: "Step-1a", LastStatus: "Done"},
		{StepCode: "Step-1a", LastStatus: "PENDING visit"},
		{StepCode: "", LastStatus: "pending"},
	}
	sum := summarize(leads)
	assert.Equal(t, 4, sum.TotalLeads)
	assert.Equal(t, 3, sum.PendingLeads)
	assert.Equal(t, []string{"Step-1a", "Step-2"}, sum.UniqueStepCodes)

	assert.Equal(t, 0, summarize(nil).TotalLeads)
}

func TestContext(t *testing.T) {
	b := newFakeBackend(t)
	b.tasks = []sheetapi.FollowUp{{LeadID: "L-1", StepCode: "Step-1a", LastStatus: "Pending call"}}
	app := newTestApp(t, b, WithDeveloperEmail("dev@corp.test"))
	mustLoad(t, app)
	mustLogin(t, app, "asha@corp.test")

	appCtx := app.Context()
	assert.Equal(t, "asha@corp.test", appCtx.User.Email)
	assert.Equal(t, "User", appCtx.User.Role)
	assert.False(t, appCtx.User.IsDeveloper)
	assert.Equal(t, "dashboard", appCtx.DashboardState["view"])
	assert.Equal(t, 1, appCtx.DashboardState["visibleLeads"])
	assert.Equal(t, 1, appCtx.DataSummary.TotalLeads)
	assert.Equal(t, 1, appCtx.DataSummary.PendingLeads)
}

func TestScreensaver(t *testing.T) {
	b := newFakeBackend(t)
	app := newTestApp(t, b, WithScreensaverTimeout(30*time.Millisecond))
	mustLoad(t, app)
	mustLogin(t, app, "asha@corp.test")

	assert.False(t, app.Screensaver())
	assert.Eventually(t, app.Screensaver, time.Second, 5*time.Millisecond)

	app.Activity()
	assert.False(t, app.Screensaver(), "any activity dismisses the overlay")
	assert.Eventually(t, app.Screensaver, time.Second, 5*time.Millisecond, "and the timer re-arms")
}

func TestScreensaverSuppressedDuringTour(t *testing.T) {
	b := newFakeBackend(t)
	app := newTestApp(t, b, WithScreensaverTimeout(30*time.Millisecond))
	mustLoad(t, app)
	mustLogin(t, app, "asha@corp.test")

	require.NoError(t, app.Tour().Start(tour.PageDashboard, session.RoleUser))
	time.Sleep(100 * time.Millisecond)
	assert.False(t, app.Screensaver(), "no overlay while a tour is running")

	app.Tour().End()
	assert.Eventually(t, app.Screensaver, time.Second, 5*time.Millisecond,
		"the re-armed timer fires once the tour is over")
}

func TestScreensaverSuppressedWhileAssistantModalOpen(t *testing.T) {
	b := newFakeBackend(t)
	app := newTestApp(t, b, WithScreensaverTimeout(30*time.Millisecond))
	mustLoad(t, app)
	mustLogin(t, app, "asha@corp.test")

	app.Assistant().SetModalOpen(true)
	time.Sleep(100 * time.Millisecond)
	assert.False(t, app.Screensaver())

	app.Assistant().SetModalOpen(false)
	assert.Eventually(t, app.Screensaver, time.Second, 5*time.Millisecond)
}

func TestTickets(t *testing.T) {
	b := newFakeBackend(t)
	b.setTickets([]sheetapi.HelpTicket{{TicketID: "T-1", Status: sheetapi.TicketPending, Issue: "screen frozen"}})
	app := newTestApp(t, b)
	mustLoad(t, app)

	require.Error(t, app.UpdateTicket(context.Background(), "T-1", sheetapi.TicketResolved),
		"ticket updates need a session")

	mustLogin(t, app, "boss@corp.test")
	assert.Eventually(t, func() bool { return len(app.Tickets()) == 1 }, time.Second, 5*time.Millisecond,
		"login triggers a ticket fetch")

	b.setTickets([]sheetapi.HelpTicket{{TicketID: "T-1", Status: sheetapi.TicketResolved, Issue: "screen frozen"}})
	require.NoError(t, app.UpdateTicket(context.Background(), "T-1", sheetapi.TicketResolved))

	tickets := app.Tickets()
	require.Len(t, tickets, 1)
	assert.Equal(t, sheetapi.TicketResolved, tickets[0].Status, "the cache is re-fetched, never patched")
}

func TestAuditTrail(t *testing.T) {
	b := newFakeBackend(t)
	app := newTestApp(t, b)
	mustLoad(t, app)
	mustLogin(t, app, "asha@corp.test")
	app.Logout()

	assert.Eventually(t, func() bool {
		b.mu.Lock()
		defer b.mu.Unlock()
		return len(b.activities) >= 2
	}, time.Second, 5*time.Millisecond)

	b.mu.Lock()
	defer b.mu.Unlock()
	assert.Contains(t, b.activities, "Login")
	assert.Contains(t, b.activities, "Logout")
}
