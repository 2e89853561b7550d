// Package dashboard holds the headless view model for the main dashboard
// screen: the current view, active filters, the report modal, and the lead
// table. The tour controller and the AI assistant drive it exclusively
// through the Handle interface — never through its internals.
package dashboard

import (
	"fmt"
	"sort"
	"strings"
	"sync"
)

// View names the handle accepts.
const (
	ViewDashboard   = "dashboard"
	ViewPerformance = "performance"
)

// Report categories the handle accepts.
const (
	ReportCallsMade     = "Calls Made"
	ReportMeetingFixed  = "Meeting Fixed"
	ReportFollowUpsDone = "FollowUps Done"
)

// Handle is the narrow imperative surface the dashboard view exposes to the
// tour controller and the AI assistant. Exactly these operations and no
// more; the view's internal state stays private.
type Handle interface {
	ChangeView(name string) error
	OpenReportModal(category string) error
	CloseReportModal()
	ApplyFilter(name, value string) error
	ResetFilters()
	// ClickMarkDone triggers the mark-done flow for a lead and returns a
	// human-readable outcome. An unknown lead id is an error and changes
	// nothing.
	ClickMarkDone(leadID string) (string, error)
	CurrentState() State
}

// Lead is the slice of lead data the view needs to answer filter and
// mark-done requests.
type Lead struct {
	LeadID     string
	PersonName string
	StepCode   string
	SCEmail    string
	LastStatus string
	State      string
}

// State is a read-only snapshot of the view, shared with the assistant as
// part of its context.
type State struct {
	View         string            `json:"view"`
	ReportModal  string            `json:"reportModal,omitempty"`
	Filters      map[string]string `json:"filters,omitempty"`
	VisibleLeads int               `json:"visibleLeads"`
	MarkedDone   []string          `json:"markedDone,omitempty"`
}

// View is the concrete handle implementation.
type View struct {
	mu          sync.Mutex
	currentView string
	reportOpen  string
	filters     map[string]string
	leads       []Lead
	markedDone  map[string]bool
}

// NewView creates a view showing the dashboard with no filters applied.
func NewView() *View {
	return &View{
		currentView: ViewDashboard,
		filters:     map[string]string{},
		markedDone:  map[string]bool{},
	}
}

// SetLeads replaces the lead table after a data refresh. Mark-done state
// for leads that disappeared is dropped.
func (v *View) SetLeads(leads []Lead) {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.leads = leads

	known := make(map[string]bool, len(leads))
	for _, l := range leads {
		known[l.LeadID] = true
	}
	for id := range v.markedDone {
		if !known[id] {
			delete(v.markedDone, id)
		}
	}
}

// Reset returns the view to its initial state (used on logout).
func (v *View) Reset() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.currentView = ViewDashboard
	v.reportOpen = ""
	v.filters = map[string]string{}
	v.leads = nil
	v.markedDone = map[string]bool{}
}

// ChangeView switches between the dashboard and performance views.
func (v *View) ChangeView(name string) error {
	if name != ViewDashboard && name != ViewPerformance {
		return fmt.Errorf("unknown view %q", name)
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	v.currentView = name
	return nil
}

// OpenReportModal opens the report for a known category.
func (v *View) OpenReportModal(category string) error {
	switch category {
	case ReportCallsMade, ReportMeetingFixed, ReportFollowUpsDone:
	default:
		return fmt.Errorf("unknown report category %q", category)
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	v.reportOpen = category
	return nil
}

// CloseReportModal closes any open report.
func (v *View) CloseReportModal() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.reportOpen = ""
}

// ApplyFilter sets one named filter. Both parts are required.
func (v *View) ApplyFilter(name, value string) error {
	name = strings.TrimSpace(name)
	value = strings.TrimSpace(value)
	if name == "" || value == "" {
		return fmt.Errorf("filter needs both a name and a value")
	}
	v.mu.Lock()
	defer v.mu.Unlock()
	v.filters[name] = value
	return nil
}

// ResetFilters clears all active filters.
func (v *View) ResetFilters() {
	v.mu.Lock()
	defer v.mu.Unlock()
	v.filters = map[string]string{}
}

// ClickMarkDone marks a loaded lead done and describes the outcome.
func (v *View) ClickMarkDone(leadID string) (string, error) {
	leadID = strings.TrimSpace(leadID)
	v.mu.Lock()
	defer v.mu.Unlock()

	for _, l := range v.leads {
		if strings.EqualFold(l.LeadID, leadID) {
			v.markedDone[l.LeadID] = true
			name := l.PersonName
			if name == "" {
				name = "this lead"
			}
			return fmt.Sprintf("I've opened the mark-done form for lead %s (%s). Please fill in the follow-up details to complete it.", l.LeadID, name), nil
		}
	}
	return "", fmt.Errorf("no lead with id %q is currently loaded", leadID)
}

// CurrentState snapshots the view.
func (v *View) CurrentState() State {
	v.mu.Lock()
	defer v.mu.Unlock()

	state := State{
		View:         v.currentView,
		ReportModal:  v.reportOpen,
		VisibleLeads: v.visibleCountLocked(),
	}
	if len(v.filters) > 0 {
		state.Filters = make(map[string]string, len(v.filters))
		for k, val := range v.filters {
			state.Filters[k] = val
		}
	}
	if len(v.markedDone) > 0 {
		for id := range v.markedDone {
			state.MarkedDone = append(state.MarkedDone, id)
		}
		sort.Strings(state.MarkedDone)
	}
	return state
}

func (v *View) visibleCountLocked() int {
	if len(v.filters) == 0 {
		return len(v.leads)
	}
	count := 0
	for _, l := range v.leads {
		if leadMatches(l, v.filters) {
			count++
		}
	}
	return count
}

func leadMatches(l Lead, filters map[string]string) bool {
	for name, want := range filters {
		var got string
		switch name {
		case "stepCode":
			got = l.StepCode
		case "scEmail":
			got = l.SCEmail
		case "lastStatus":
			got = l.LastStatus
		case "state":
			got = l.State
		case "personName":
			got = l.PersonName
		default:
			// unknown filter names match nothing
			return false
		}
		if !strings.EqualFold(strings.TrimSpace(got), strings.TrimSpace(want)) {
			return false
		}
	}
	return true
}
