package sheetapi

import (
	"context"
	"fmt"
)

// FetchHelpTickets retrieves help tickets visible to the given identity.
// Admins see every ticket; users see their own.
func (c *Client) FetchHelpTickets(ctx context.Context, email, role string) ([]HelpTicket, error) {
	req := struct {
		Action string `json:"action"`
		Email  string `json:"email"`
		Role   string `json:"role"`
	}{Action: "get_help_tickets", Email: email, Role: role}

	var data struct {
		Tickets []HelpTicket `json:"tickets"`
	}
	if err := c.post(ctx, req, &data); err != nil {
		return nil, fmt.Errorf("fetch help tickets: %w", err)
	}
	if data.Tickets == nil {
		data.Tickets = []HelpTicket{}
	}
	return data.Tickets, nil
}

// UpdateTicketStatus sets the status of one ticket on behalf of the actor.
// Callers re-fetch the full ticket list afterwards; nothing is patched locally.
func (c *Client) UpdateTicketStatus(ctx context.Context, ticketID, status, actorEmail, actorName string) error {
	req := struct {
		Action    string `json:"action"`
		TicketID  string `json:"ticketId"`
		Status    string `json:"status"`
		UserEmail string `json:"userEmail"`
		UserName  string `json:"userName"`
	}{Action: "update_ticket_status", TicketID: ticketID, Status: status, UserEmail: actorEmail, UserName: actorName}

	if err := c.post(ctx, req, nil); err != nil {
		return fmt.Errorf("update ticket %s: %w", ticketID, err)
	}
	return nil
}
