package daemon

// Request and response payloads shared by the control server and client.

// LoginRequest signs a user in against the fetched permission list.
type LoginRequest struct {
	Email  string `json:"email" binding:"required"`
	Method string `json:"method"`
}

// MaintenanceRequest flips the maintenance flag. Confirmed must be true;
// the CLI runs the yes/no prompt before calling.
type MaintenanceRequest struct {
	Status    string `json:"status" binding:"required"`
	Confirmed bool   `json:"confirmed"`
}

// TourStartRequest begins a walkthrough for a page.
type TourStartRequest struct {
	Page string `json:"page" binding:"required"`
}

// TicketStatusRequest changes one help ticket's status.
type TicketStatusRequest struct {
	Status string `json:"status" binding:"required"`
}

// MessageRequest submits one assistant prompt.
type MessageRequest struct {
	Text string `json:"text" binding:"required"`
}

// ResetRequest clears the assistant conversation.
type ResetRequest struct {
	Confirmed bool `json:"confirmed"`
}

// ModalRequest opens or closes the assistant modal.
type ModalRequest struct {
	Open bool `json:"open"`
}

// OutputModeRequest switches assistant output between text and voice.
type OutputModeRequest struct {
	Mode string `json:"mode" binding:"required"`
}

// HealthResponse reports daemon liveness.
type HealthResponse struct {
	Status        string `json:"status"`
	UptimeSeconds int64  `json:"uptimeSeconds"`
	Version       string `json:"version"`
}
