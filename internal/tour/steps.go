package tour

import (
	"github.com/warp-run/scdash/internal/dashboard"
	"github.com/warp-run/scdash/internal/session"
)

// Page selects which tour sequence to run.
type Page string

const (
	PageLogin     Page = "login"
	PageDashboard Page = "dashboard"
)

// StepActionType names the side effects a step may carry.
type StepActionType string

const (
	ActionChangeView       StepActionType = "changeView"
	ActionOpenReportModal  StepActionType = "openReportModal"
	ActionCloseReportModal StepActionType = "closeReportModal"
)

// StepAction is an optional side effect executed against the dashboard
// view handle before the tour advances past the step.
type StepAction struct {
	Type    StepActionType `json:"type"`
	Payload string         `json:"payload,omitempty"`
}

// Step is one stop of a guided walkthrough.
type Step struct {
	Target    string      `json:"target"`
	Title     string      `json:"title"`
	Content   string      `json:"content"`
	Placement string      `json:"placement,omitempty"`
	Action    *StepAction `json:"action,omitempty"`
}

// StepsFor returns the fixed sequence for a page. The dashboard tour
// branches on role; anything that is not Admin gets the User sequence.
func StepsFor(page Page, role session.Role) []Step {
	switch page {
	case PageLogin:
		return loginSteps()
	case PageDashboard:
		if role == session.RoleAdmin {
			return dashboardStepsAdmin()
		}
		return dashboardStepsUser()
	}
	return nil
}

func loginSteps() []Step {
	return []Step{
		{
			Target:    "#login-title",
			Title:     "Welcome!",
			Content:   "Hello! Welcome to the SC-Dashboard. I'm here to give you a quick tour of the application.",
			Placement: "bottom",
		},
		{
			Target:    "#google-login-button-container",
			Title:     "Option 1: Sign In With Google",
			Content:   "You can sign in quickly and securely using your authorized Google account. Just click this button to proceed.",
			Placement: "bottom",
		},
		{
			Target:    "#otp-login-container",
			Title:     "Option 2: Email & OTP",
			Content:   "Alternatively, you can enter your registered email address here and click \"Send OTP\". We'll email you a code to log in.",
			Placement: "top",
		},
		{
			Target:    "#help-image-button",
			Title:     "Need Help?",
			Content:   "If you need any assistance, click our friendly support assistant here to open the help form.",
			Placement: "left",
		},
		{
			Target:    "#floating-nav-toggle",
			Title:     "Tour Menu",
			Content:   "If you ever want to retake this tour, click this icon.",
			Placement: "right",
		},
	}
}

func dashboardStepsAdmin() []Step {
	return []Step{
		{
			Target:    "#header-title",
			Title:     "Dashboard Tour",
			Content:   "Welcome, Admin! This tour will guide you through the key features of your dashboard.",
			Placement: "bottom",
		},
		{
			Target:    "#performance-cards-container",
			Title:     "Today's Performance",
			Content:   "Here's an overview of today's performance. The 'Calls Made', 'Meeting Fixed', and 'FollowUps Done' cards are clickable for more details.",
			Placement: "bottom",
		},
		{
			Target:    "#performance-cards-container",
			Title:     "Detailed Reports",
			Content:   "Let's open the report for 'Calls Made' to see a detailed breakdown.",
			Placement: "bottom",
			Action:    &StepAction{Type: ActionOpenReportModal, Payload: dashboard.ReportCallsMade},
		},
		{
			Target:    "#report-modal",
			Title:     "Performance Report",
			Content:   "This report modal shows SC performance via charts and a detailed data table. You can even go full-screen for a better view.",
			Placement: "center",
		},
		{
			Target:    "#report-modal",
			Title:     "Closing the Report",
			Content:   "Now, let's close this and continue the tour.",
			Placement: "center",
			Action:    &StepAction{Type: ActionCloseReportModal},
		},
		{
			Target:    "#admin-sc-filter-container",
			Title:     "Filter by SC Email",
			Content:   "As an Admin, you can use this filter to see the dashboard from the perspective of any specific Sales Coordinator.",
			Placement: "bottom",
		},
		{
			Target:    "#page-navigation-container",
			Title:     "Page Navigation",
			Content:   "This central button allows you to navigate between the main Dashboard and the Performance analysis page.",
			Placement: "top",
		},
		{
			Target:    "#page-navigation-container",
			Title:     "Switching Views",
			Content:   "Let's switch over to the Performance page now.",
			Placement: "top",
			Action:    &StepAction{Type: ActionChangeView, Payload: dashboard.ViewPerformance},
		},
		{
			Target:    "body",
			Title:     "Performance Page",
			Content:   "The Performance page offers a historical view of completed tasks. You can filter by SC and date range to analyze trends.",
			Placement: "center",
		},
		{
			Target:    "body",
			Title:     "Back to Dashboard",
			Content:   "We'll head back to the main dashboard to finish up.",
			Placement: "center",
			Action:    &StepAction{Type: ActionChangeView, Payload: dashboard.ViewDashboard},
		},
		{
			Target:    "#help-image-button",
			Title:     "Need Help?",
			Content:   "If you need any assistance, just click our friendly support assistant here to open the help form.",
			Placement: "left",
		},
		{
			Target:    "#floating-nav-toggle",
			Title:     "Tour Menu",
			Content:   "You can retake this tour anytime by clicking this icon.",
			Placement: "right",
		},
		{
			Target:    "#header-logout-button",
			Title:     "Logout",
			Content:   "That concludes the tour! When you are finished, you can log out securely using this button.",
			Placement: "bottom",
		},
	}
}

func dashboardStepsUser() []Step {
	return []Step{
		{
			Target:    "#header-title",
			Title:     "Dashboard Tour",
			Content:   "Welcome! This tour will guide you through the key features of your dashboard.",
			Placement: "bottom",
		},
		{
			Target:    "#performance-cards-container",
			Title:     "Your Performance",
			Content:   "These cards show your performance for today. Cards like 'FollowUps Done' are clickable for a detailed report of your tasks.",
			Placement: "bottom",
		},
		{
			Target:    "#performance-cards-container",
			Title:     "Detailed Reports",
			Content:   "Let's open your 'FollowUps Done' report.",
			Placement: "bottom",
			Action:    &StepAction{Type: ActionOpenReportModal, Payload: dashboard.ReportFollowUpsDone},
		},
		{
			Target:    "#report-modal",
			Title:     "Your Report",
			Content:   "This report shows your completed tasks with a breakdown by Step Code. You can go full-screen to see more.",
			Placement: "center",
		},
		{
			Target:    "#report-modal",
			Title:     "Closing the Report",
			Content:   "Now, let's close this and continue the tour.",
			Placement: "center",
			Action:    &StepAction{Type: ActionCloseReportModal},
		},
		{
			Target:    "#page-navigation-container",
			Title:     "Page Navigation",
			Content:   "This central button allows you to navigate between your main Dashboard and the Performance analysis page.",
			Placement: "top",
		},
		{
			Target:    "#page-navigation-container",
			Title:     "Switching Views",
			Content:   "Let's switch to the Performance page.",
			Placement: "top",
			Action:    &StepAction{Type: ActionChangeView, Payload: dashboard.ViewPerformance},
		},
		{
			Target:    "body",
			Title:     "Performance History",
			Content:   "This page shows a history of all your completed tasks. You can filter by date range to review your work.",
			Placement: "center",
		},
		{
			Target:    "body",
			Title:     "Back to Dashboard",
			Content:   "Let's go back to the main dashboard.",
			Placement: "center",
			Action:    &StepAction{Type: ActionChangeView, Payload: dashboard.ViewDashboard},
		},
		{
			Target:    "#help-image-button",
			Title:     "Need Help?",
			Content:   "If you need any assistance, just click our friendly support assistant here to open the help form.",
			Placement: "left",
		},
		{
			Target:    "#floating-nav-toggle",
			Title:     "Tour Menu",
			Content:   "You can retake this tour anytime using this handy menu.",
			Placement: "right",
		},
		{
			Target:    "#header-logout-button",
			Title:     "Logout",
			Content:   "That concludes the tour! You can log out securely from here. Enjoy using the dashboard!",
			Placement: "bottom",
		},
	}
}
