package client

import (
	"context"

	"github.com/solutions-liquify/tms/model"
)

// ListParties returns one page of parties.
func (c *Client) ListParties(ctx context.Context, req model.ContactListRequest) ([]model.Party, Page, error) {
	var out []model.Party
	page, err := c.list(ctx, "/parties/list", req, &out)
	return out, page, err
}

// GetParty fetches one party.
func (c *Client) GetParty(ctx context.Context, id string) (*model.Party, error) {
	var out model.Party
	if err := c.getJSON(ctx, "/parties/get/"+escape(id), &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CreateParty creates a party.
func (c *Client) CreateParty(ctx context.Context, p model.Party) (*model.Party, error) {
	var out model.Party
	if err := c.postJSON(ctx, "/parties/create", p, &out, ""); err != nil {
		return nil, err
	}
	return &out, nil
}

// UpdateParty updates a party.
func (c *Client) UpdateParty(ctx context.Context, p model.Party) (*model.Party, error) {
	var out model.Party
	if err := c.postJSON(ctx, "/parties/update", p, &out, ""); err != nil {
		return nil, err
	}
	return &out, nil
}
