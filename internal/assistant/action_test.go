package assistant

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp-run/scdash/internal/ai"
)

func rawAction(command, payload string) ai.Action {
	a := ai.Action{Command: &command}
	if payload != "" {
		a.Payload = &payload
	}
	return a
}

func TestDecodeAction(t *testing.T) {
	tests := []struct {
		name    string
		raw     ai.Action
		want    Action
		wantErr string
	}{
		{name: "no action", raw: ai.Action{}, want: nil},
		{name: "empty command string", raw: rawAction("", "x"), want: nil},
		{name: "navigate", raw: rawAction("navigate", "performance"), want: Navigate{View: "performance"}},
		{name: "navigate trims payload", raw: rawAction("navigate", "  dashboard  "), want: Navigate{View: "dashboard"}},
		{name: "navigate without view", raw: rawAction("navigate", ""), wantErr: "view name"},
		{name: "open report", raw: rawAction("open_report_modal", "Calls Made"), want: OpenReport{Category: "Calls Made"}},
		{name: "open report without category", raw: rawAction("open_report_modal", "  "), wantErr: "report category"},
		{name: "apply filter", raw: rawAction("apply_filter", "stepCode:Step-1a"), want: ApplyFilter{Name: "stepCode", Value: "Step-1a"}},
		{name: "apply filter trims parts", raw: rawAction("apply_filter", " scEmail : asha@corp.test "), want: ApplyFilter{Name: "scEmail", Value: "asha@corp.test"}},
		{name: "apply filter value keeps colons", raw: rawAction("apply_filter", "lastStatus:call at 10:30"), want: ApplyFilter{Name: "lastStatus", Value: "call at 10:30"}},
		{name: "apply filter without separator", raw: rawAction("apply_filter", "stepCode"), wantErr: "name:value"},
		{name: "apply filter empty name", raw: rawAction("apply_filter", ":Step-1a"), wantErr: "name:value"},
		{name: "apply filter empty value", raw: rawAction("apply_filter", "stepCode:"), wantErr: "name:value"},
		{name: "reset filters", raw: rawAction("reset_filters", ""), want: ResetFilters{}},
		{name: "mark done", raw: rawAction("click_mark_done", "L-42"), want: MarkDone{LeadID: "L-42"}},
		{name: "mark done without id", raw: rawAction("click_mark_done", ""), wantErr: "lead id"},
		{name: "logout", raw: rawAction("logout", ""), want: Logout{}},
		{name: "toggle maintenance", raw: rawAction("toggle_maintenance", ""), want: ToggleMaintenance{}},
		{name: "unknown command", raw: rawAction("delete_everything", ""), wantErr: "unknown assistant command"},
		{name: "command with whitespace", raw: rawAction(" logout ", ""), want: Logout{}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DecodeAction(tt.raw)
			if tt.wantErr != "" {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
				assert.Nil(t, got)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestCommandRoundTrip(t *testing.T) {
	actions := []Action{
		Navigate{View: "dashboard"},
		OpenReport{Category: "Calls Made"},
		ApplyFilter{Name: "stepCode", Value: "Step-1a"},
		ResetFilters{},
		MarkDone{LeadID: "L-1"},
		Logout{},
		ToggleMaintenance{},
	}
	for _, a := range actions {
		payload := ""
		switch v := a.(type) {
		case Navigate:
			payload = v.View
		case OpenReport:
			payload = v.Category
		case ApplyFilter:
			payload = v.Name + ":" + v.Value
		case MarkDone:
			payload = v.LeadID
		}
		decoded, err := DecodeAction(rawAction(a.Command(), payload))
		require.NoError(t, err, a.Command())
		assert.Equal(t, a, decoded, a.Command())
	}
}

func TestNavigationClass(t *testing.T) {
	assert.True(t, navigationClass(Navigate{}))
	assert.True(t, navigationClass(OpenReport{}))
	assert.True(t, navigationClass(MarkDone{}))
	assert.True(t, navigationClass(Logout{}))
	assert.True(t, navigationClass(ToggleMaintenance{}))
	assert.False(t, navigationClass(ApplyFilter{}))
	assert.False(t, navigationClass(ResetFilters{}))
}
