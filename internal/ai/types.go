package ai

// Command names the assistant backend may request.
const (
	CommandNavigate          = "navigate"
	CommandOpenReportModal   = "open_report_modal"
	CommandApplyFilter       = "apply_filter"
	CommandResetFilters      = "reset_filters"
	CommandClickMarkDone     = "click_mark_done"
	CommandLogout            = "logout"
	CommandToggleMaintenance = "toggle_maintenance"
)

// Supported reply languages.
const (
	LangEnglish = "en"
	LangHindi   = "hi"
)

// DefaultReply is used when the model response omits the reply field.
const DefaultReply = "I'm not sure how to respond to that, but I'm here to help!"

// Action is the raw action object from a model response. Both fields are
// nullable; a nil command means no action was requested.
type Action struct {
	Command *string `json:"command"`
	Payload *string `json:"payload"`
}

// IsZero reports whether no action was requested.
func (a Action) IsZero() bool {
	return a.Command == nil || *a.Command == ""
}

// Response is the structured assistant output after sanitising.
type Response struct {
	Reply    string `json:"reply"`
	Language string `json:"language"`
	Action   Action `json:"action"`
}

// ContextUser identifies who is asking.
type ContextUser struct {
	Email       string `json:"email"`
	Name        string `json:"name"`
	Role        string `json:"role"`
	IsDeveloper bool   `json:"isDeveloper"`
}

// DataSummary carries aggregate statistics over the loaded lead data.
type DataSummary struct {
	TotalLeads      int      `json:"totalLeads"`
	PendingLeads    int      `json:"pendingLeads"`
	UniqueStepCodes []string `json:"uniqueStepCodes"`
}

// Context is the application snapshot sent with every prompt.
type Context struct {
	User           ContextUser            `json:"user"`
	DashboardState map[string]interface{} `json:"dashboardState"`
	DataSummary    DataSummary            `json:"dataSummary"`
}
