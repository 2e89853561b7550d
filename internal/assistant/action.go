package assistant

import (
	"fmt"
	"strings"

	"github.com/warp-run/scdash/internal/ai"
)

// Action is a typed, validated application action decoded from the raw
// model output. Each command gets its own variant so payload parsing
// happens exactly once, at the decode boundary.
type Action interface {
	Command() string
}

// Navigate switches the dashboard view.
type Navigate struct {
	View string
}

// OpenReport opens the report modal for a category.
type OpenReport struct {
	Category string
}

// ApplyFilter applies one named filter.
type ApplyFilter struct {
	Name  string
	Value string
}

// ResetFilters clears all active filters.
type ResetFilters struct{}

// MarkDone triggers the mark-done flow for a lead.
type MarkDone struct {
	LeadID string
}

// Logout ends the session.
type Logout struct{}

// ToggleMaintenance flips the maintenance flag (developer only).
type ToggleMaintenance struct{}

func (Navigate) Command() string          { return ai.CommandNavigate }
func (OpenReport) Command() string        { return ai.CommandOpenReportModal }
func (ApplyFilter) Command() string       { return ai.CommandApplyFilter }
func (ResetFilters) Command() string      { return ai.CommandResetFilters }
func (MarkDone) Command() string          { return ai.CommandClickMarkDone }
func (Logout) Command() string            { return ai.CommandLogout }
func (ToggleMaintenance) Command() string { return ai.CommandToggleMaintenance }

// navigationClass lists the commands that close the assistant modal after
// dispatch so the user can see the effect in the underlying view.
func navigationClass(a Action) bool {
	switch a.(type) {
	case Navigate, OpenReport, MarkDone, Logout, ToggleMaintenance:
		return true
	}
	return false
}

// DecodeAction turns a raw model action into a typed one. A nil command
// decodes to (nil, nil): no action requested. Unknown commands and
// malformed payloads are errors; nothing is executed for them.
func DecodeAction(raw ai.Action) (Action, error) {
	if raw.IsZero() {
		return nil, nil
	}
	command := strings.TrimSpace(*raw.Command)
	payload := ""
	if raw.Payload != nil {
		payload = strings.TrimSpace(*raw.Payload)
	}

	switch command {
	case ai.CommandNavigate:
		if payload == "" {
			return nil, fmt.Errorf("navigate needs a view name")
		}
		return Navigate{View: payload}, nil

	case ai.CommandOpenReportModal:
		if payload == "" {
			return nil, fmt.Errorf("open_report_modal needs a report category")
		}
		return OpenReport{Category: payload}, nil

	case ai.CommandApplyFilter:
		name, value, found := strings.Cut(payload, ":")
		name = strings.TrimSpace(name)
		value = strings.TrimSpace(value)
		if !found || name == "" || value == "" {
			return nil, fmt.Errorf("apply_filter payload must be name:value, got %q", payload)
		}
		return ApplyFilter{Name: name, Value: value}, nil

	case ai.CommandResetFilters:
		return ResetFilters{}, nil

	case ai.CommandClickMarkDone:
		if payload == "" {
			return nil, fmt.Errorf("click_mark_done needs a lead id")
		}
		return MarkDone{LeadID: payload}, nil

	case ai.CommandLogout:
		return Logout{}, nil

	case ai.CommandToggleMaintenance:
		return ToggleMaintenance{}, nil

	default:
		return nil, fmt.Errorf("unknown assistant command %q", command)
	}
}
