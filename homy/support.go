package homy

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/homy/homyadmin/api"
)

func (c *Client) ListTickets(ctx context.Context) ([]api.Ticket, error) {
	return call[[]api.Ticket](ctx, c, http.MethodGet, "/tickets/all")
}

func (c *Client) UpdateTicketStatus(ctx context.Context, id, status string) error {
	_, err := call[json.RawMessage](ctx, c, http.MethodPatch, "/tickets/{id}/status",
		pathParam("id", id), body(api.TicketStatus{Status: status}))
	return err
}

func (c *Client) ListQueries(ctx context.Context) ([]api.SupportQuery, error) {
	return call[[]api.SupportQuery](ctx, c, http.MethodGet, "/query/get")
}

// RespondQuery marks a customer query as responded with the admin's comment.
func (c *Client) RespondQuery(ctx context.Context, id, comment string) error {
	_, err := call[json.RawMessage](ctx, c, http.MethodPut, "/query/update/{id}",
		pathParam("id", id), body(api.QueryResponse{Status: api.QueryResponded, Comment: comment}))
	return err
}

func (c *Client) DeleteQuery(ctx context.Context, id string) error {
	_, err := call[json.RawMessage](ctx, c, http.MethodDelete, "/query/delete/{id}", pathParam("id", id))
	return err
}
