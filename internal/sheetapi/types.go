package sheetapi

import (
	"sort"
	"strings"
)

// User types carried by permission records.
const (
	UserTypeAdmin       = "Admin"
	UserTypeUser        = "User"
	UserTypeMaintenance = "Maintenance"
)

// maintenanceSentinelEmail marks the synthetic permission record that
// encodes the global maintenance flag in its name field.
const maintenanceSentinelEmail = "status"

// Maintenance flag values.
const (
	MaintenanceOn  = "ON"
	MaintenanceOff = "OFF"
)

// Help ticket statuses.
const (
	TicketPending       = "Pending"
	TicketResolved      = "Resolved"
	TicketCancelledUser = "Cancelled by User"
	TicketCancelledDev  = "Cancelled by Dev"
)

// FollowUp is one pending lead in the follow-up workflow.
type FollowUp struct {
	LeadID            string `json:"leadId"`
	PersonName        string `json:"personName"`
	Mobile            string `json:"mobile"`
	State             string `json:"state"`
	Requirement       string `json:"requirement"`
	SalesPerson       string `json:"salesPerson"`
	StepName          string `json:"stepName"`
	StepCode          string `json:"stepCode"`
	DaysOfFollowUp    int    `json:"daysOfFollowUp"`
	NumberOfFollowUps int    `json:"numberOfFollowUps"`
	Planned           string `json:"planned"`
	Actual            string `json:"actual"`
	LastStatus        string `json:"lastStatus"`
	Link              string `json:"link"`
	SCEmail           string `json:"scEmail"`
	Doer              string `json:"doer"`
	Remark            string `json:"remark"`
}

// UserPermission is one row of the permissions list. The list also carries
// one synthetic Maintenance record whose name holds the global flag.
type UserPermission struct {
	UserType   string `json:"userType"`
	Email      string `json:"email"`
	Name       string `json:"name"`
	LoginCount int    `json:"loginCount"`
}

// Performance is today's aggregate performance for one sales coordinator.
type Performance struct {
	SCEmail                string `json:"scEmail"`
	SC                     string `json:"sc"`
	LeadsAssign            int    `json:"leadsAssign"`
	CallsMade              int    `json:"callsMade"`
	MeetingFixed           int    `json:"meetingFixed"`
	OnFollowUps            int    `json:"onFollowUps"`
	FollowUpsDone          int    `json:"followUpsDone"`
	ConnectedCallsMade     int    `json:"connectedCallsMade"`
	ConnectedFollowUpsDone int    `json:"connectedFollowUpsDone"`
}

// TodaysTask is one task scheduled for today.
type TodaysTask struct {
	LeadID     string `json:"leadId"`
	PersonName string `json:"personName"`
	Mobile     string `json:"mobile"`
	StepCode   string `json:"stepCode"`
	Planned    string `json:"planned"`
	Actual     string `json:"actual"`
	Status     string `json:"status"`
	Remark     string `json:"remark"`
	SCEmail    string `json:"scEmail"`
	Doer       string `json:"doer"`
	Category   string `json:"category"`
	LastActual string `json:"lastActual"`
}

// HelpTicket is one support request raised from the dashboard.
type HelpTicket struct {
	TicketID       string `json:"ticketId"`
	Timestamp      string `json:"timestamp"`
	UserEmail      string `json:"userEmail"`
	UserName       string `json:"userName"`
	Issue          string `json:"issue"`
	ScreenshotLink string `json:"screenshotLink"`
	Status         string `json:"status"`
	LastUpdated    string `json:"lastUpdated"`
	ResolvedBy     string `json:"resolvedBy"`
}

// DashboardData is the consolidated payload returned by the sheet script.
type DashboardData struct {
	PendingTasks    []FollowUp    `json:"pendingTasks"`
	UserPermissions Permissions   `json:"userPermissions"`
	PerformanceData []Performance `json:"performanceData"`
	TodaysTasks     []TodaysTask  `json:"todaysTasks"`
}

// Permissions is a permission list with lookup helpers.
type Permissions []UserPermission

// FindByEmail returns the record whose email matches case-insensitively,
// or nil when absent.
func (p Permissions) FindByEmail(email string) *UserPermission {
	needle := strings.ToLower(strings.TrimSpace(email))
	for i := range p {
		if strings.ToLower(strings.TrimSpace(p[i].Email)) == needle {
			return &p[i]
		}
	}
	return nil
}

// MaintenanceStatus derives the global maintenance flag from the synthetic
// Maintenance record. Absence of the record means OFF.
func (p Permissions) MaintenanceStatus() string {
	for i := range p {
		if p[i].UserType == UserTypeMaintenance && p[i].Email == maintenanceSentinelEmail {
			if p[i].Name == MaintenanceOn {
				return MaintenanceOn
			}
			return MaintenanceOff
		}
	}
	return MaintenanceOff
}

// UserEmails returns the sorted emails of all User-type records.
func (p Permissions) UserEmails() []string {
	var emails []string
	for i := range p {
		if p[i].UserType == UserTypeUser && p[i].Email != "" {
			emails = append(emails, p[i].Email)
		}
	}
	sort.Strings(emails)
	return emails
}
