package daemon

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/warp-run/scdash/internal/assistant"
	"github.com/warp-run/scdash/internal/core"
	"github.com/warp-run/scdash/internal/session"
	"github.com/warp-run/scdash/internal/sheetapi"
	"github.com/warp-run/scdash/internal/tour"
)

// Client talks to a running scdash daemon over its Unix domain socket.
type Client struct {
	socket string
	client *http.Client
}

// NewClient constructs a daemon client for the given socket path.
func NewClient(socket string) *Client {
	dialer := &net.Dialer{}
	transport := &http.Transport{
		DialContext: func(ctx context.Context, _, _ string) (net.Conn, error) {
			return dialer.DialContext(ctx, "unix", socket)
		},
	}

	return &Client{
		socket: socket,
		client: &http.Client{
			Transport: transport,
			Timeout:   60 * time.Second,
		},
	}
}

// SocketPath returns the configured socket path.
func (c *Client) SocketPath() string {
	return c.socket
}

// Health checks daemon liveness.
func (c *Client) Health(ctx context.Context) (HealthResponse, error) {
	var resp HealthResponse
	err := c.do(ctx, http.MethodGet, "/health", nil, &resp)
	return resp, err
}

// State fetches the full application snapshot.
func (c *Client) State(ctx context.Context) (core.State, error) {
	var resp core.State
	err := c.do(ctx, http.MethodGet, "/state", nil, &resp)
	return resp, err
}

// Load kicks off the initial data load.
func (c *Client) Load(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "/load", nil, nil)
}

// Login signs in with the given email.
func (c *Client) Login(ctx context.Context, email, method string) (*session.Session, error) {
	var resp struct {
		Session *session.Session `json:"session"`
	}
	if err := c.do(ctx, http.MethodPost, "/login", LoginRequest{Email: email, Method: method}, &resp); err != nil {
		return nil, err
	}
	return resp.Session, nil
}

// Logout ends the current session.
func (c *Client) Logout(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "/logout", nil, nil)
}

// Refresh re-fetches dashboard data and returns the updated snapshot.
func (c *Client) Refresh(ctx context.Context) (core.State, error) {
	var resp core.State
	err := c.do(ctx, http.MethodPost, "/refresh", nil, &resp)
	return resp, err
}

// Activity reports user input so the idle timer resets.
func (c *Client) Activity(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "/activity", nil, nil)
}

// SetMaintenance flips the maintenance flag. Confirmed must already be
// collected from the user.
func (c *Client) SetMaintenance(ctx context.Context, status string, confirmed bool) error {
	return c.do(ctx, http.MethodPost, "/maintenance", MaintenanceRequest{Status: status, Confirmed: confirmed}, nil)
}

// Tickets lists the cached help tickets.
func (c *Client) Tickets(ctx context.Context) ([]sheetapi.HelpTicket, error) {
	var resp struct {
		Tickets []sheetapi.HelpTicket `json:"tickets"`
	}
	err := c.do(ctx, http.MethodGet, "/tickets", nil, &resp)
	return resp.Tickets, err
}

// UpdateTicket changes a ticket's status and returns the refreshed list.
func (c *Client) UpdateTicket(ctx context.Context, ticketID, status string) ([]sheetapi.HelpTicket, error) {
	var resp struct {
		Tickets []sheetapi.HelpTicket `json:"tickets"`
	}
	path := fmt.Sprintf("/tickets/%s/status", ticketID)
	err := c.do(ctx, http.MethodPost, path, TicketStatusRequest{Status: status}, &resp)
	return resp.Tickets, err
}

// TourStart begins a walkthrough for a page.
func (c *Client) TourStart(ctx context.Context, page string) (tour.State, error) {
	var resp tour.State
	err := c.do(ctx, http.MethodPost, "/tour/start", TourStartRequest{Page: page}, &resp)
	return resp, err
}

// TourNext advances the walkthrough one step.
func (c *Client) TourNext(ctx context.Context) (tour.State, error) {
	var resp tour.State
	err := c.do(ctx, http.MethodPost, "/tour/next", nil, &resp)
	return resp, err
}

// TourPrevious steps the walkthrough back one step.
func (c *Client) TourPrevious(ctx context.Context) (tour.State, error) {
	var resp tour.State
	err := c.do(ctx, http.MethodPost, "/tour/previous", nil, &resp)
	return resp, err
}

// TourSkip abandons the walkthrough.
func (c *Client) TourSkip(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "/tour/skip", nil, nil)
}

// TourEnd finishes the walkthrough.
func (c *Client) TourEnd(ctx context.Context) error {
	return c.do(ctx, http.MethodPost, "/tour/end", nil, nil)
}

// SendMessage submits one assistant prompt and returns the updated
// conversation.
func (c *Client) SendMessage(ctx context.Context, text string) (assistant.Snapshot, error) {
	var resp assistant.Snapshot
	err := c.do(ctx, http.MethodPost, "/assistant/message", MessageRequest{Text: text}, &resp)
	return resp, err
}

// ResetConversation clears the assistant history.
func (c *Client) ResetConversation(ctx context.Context, confirmed bool) error {
	return c.do(ctx, http.MethodPost, "/assistant/reset", ResetRequest{Confirmed: confirmed}, nil)
}

// SetAssistantModal opens or closes the assistant modal.
func (c *Client) SetAssistantModal(ctx context.Context, open bool) error {
	return c.do(ctx, http.MethodPost, "/assistant/modal", ModalRequest{Open: open}, nil)
}

// SetAssistantOutput switches the assistant output mode.
func (c *Client) SetAssistantOutput(ctx context.Context, mode string) error {
	return c.do(ctx, http.MethodPost, "/assistant/output", OutputModeRequest{Mode: mode}, nil)
}

// Listen runs one voice input session on the daemon side.
func (c *Client) Listen(ctx context.Context) (assistant.Snapshot, error) {
	var resp assistant.Snapshot
	err := c.do(ctx, http.MethodPost, "/assistant/listen", nil, &resp)
	return resp, err
}

func (c *Client) do(ctx context.Context, method, path string, payload interface{}, out interface{}) error {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("marshal payload: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, "http://unix"+path, body)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	req.Host = "scdash"

	res, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	if res.StatusCode >= 400 {
		data, _ := io.ReadAll(res.Body)
		var apiErr struct {
			Error string `json:"error"`
		}
		if json.Unmarshal(data, &apiErr) == nil && apiErr.Error != "" {
			return fmt.Errorf("daemon error (%s): %s", res.Status, apiErr.Error)
		}
		return fmt.Errorf("daemon error (%s): %s", res.Status, strings.TrimSpace(string(data)))
	}

	if out != nil {
		if err := json.NewDecoder(res.Body).Decode(out); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	} else {
		io.Copy(io.Discard, res.Body)
	}

	return nil
}
