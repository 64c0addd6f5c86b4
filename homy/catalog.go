package homy

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/homy/homyadmin/api"
)

func (c *Client) ListPlans(ctx context.Context) ([]api.Plan, error) {
	return call[[]api.Plan](ctx, c, http.MethodGet, "/plans/get")
}

var ErrPlanType = errors.New("plan type is required")

func (c *Client) CreatePlan(ctx context.Context, p api.Plan) error {
	if p.Type == "" {
		return ErrPlanType
	}
	p.ID = ""
	_, err := call[json.RawMessage](ctx, c, http.MethodPost, "/plans/create", body(p))
	return err
}

func (c *Client) UpdatePlan(ctx context.Context, p api.Plan) error {
	if p.Type == "" {
		return ErrPlanType
	}
	if p.ID == "" {
		return errors.New("plan id is required for update")
	}
	_, err := call[json.RawMessage](ctx, c, http.MethodPut, "/plans/update/{id}",
		pathParam("id", p.ID), body(p))
	return err
}

// PutPlan creates the plan when it has no ID and updates it otherwise.
func (c *Client) PutPlan(ctx context.Context, p api.Plan) error {
	if p.ID == "" {
		return c.CreatePlan(ctx, p)
	}
	return c.UpdatePlan(ctx, p)
}

func (c *Client) DeletePlan(ctx context.Context, id string) error {
	_, err := call[json.RawMessage](ctx, c, http.MethodDelete, "/plans/delete/{id}", pathParam("id", id))
	return err
}

func (c *Client) ListCoupons(ctx context.Context) ([]api.Coupon, error) {
	return call[[]api.Coupon](ctx, c, http.MethodGet, "/coupon/get")
}

func (c *Client) CreateCoupon(ctx context.Context, cp api.Coupon) error {
	if cp.Code == "" {
		return errors.New("coupon code is required")
	}
	_, err := call[json.RawMessage](ctx, c, http.MethodPost, "/coupon/create", body(cp))
	return err
}

func (c *Client) DeactivateCoupon(ctx context.Context, id string) error {
	_, err := call[json.RawMessage](ctx, c, http.MethodPatch, "/coupon/deactivate/{id}",
		pathParam("id", id), body(struct{}{}))
	return err
}
