package homy

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/homy/homyadmin/api"
)

var ErrNoToken = errors.New("login response carried no token")

// Login exchanges credentials for a bearer token and stores it in the session.
func (c *Client) Login(ctx context.Context, email, password string) error {
	rsp, err := call[api.LoginResponse](ctx, c, http.MethodPost, "/admin/login",
		body(api.LoginRequest{Email: email, Password: password}))
	if err != nil {
		return err
	}
	if rsp.Token == "" {
		return ErrNoToken
	}
	if c.tokens == nil {
		return nil
	}
	return c.tokens.Set(ctx, rsp.Token)
}

func (c *Client) Logout(ctx context.Context) error {
	if c.tokens == nil {
		return nil
	}
	return c.tokens.Clear(ctx)
}

func (c *Client) Dashboard(ctx context.Context) (api.DashboardStats, error) {
	return call[api.DashboardStats](ctx, c, http.MethodGet, "/admin/dashboard")
}

func pageQuery(page, limit int) []reqOpt {
	opts := []reqOpt{query("page", strconv.Itoa(page))}
	if limit > 0 {
		opts = append(opts, query("limit", strconv.Itoa(limit)))
	}
	return opts
}

// ListOrders returns one server-side page of orders. page is 1-based.
func (c *Client) ListOrders(ctx context.Context, page, limit int) (api.OrderPage, error) {
	return call[api.OrderPage](ctx, c, http.MethodGet, "/admin/orders", pageQuery(page, limit)...)
}

func (c *Client) AssignChef(ctx context.Context, orderID, chefID string) error {
	_, err := call[json.RawMessage](ctx, c, http.MethodPost, "/admin/orders/{id}/assign-chef",
		pathParam("id", orderID), body(api.AssignChefRequest{ChefID: chefID}))
	return err
}

func (c *Client) ListUsers(ctx context.Context, page, limit int) (api.UserPage, error) {
	return call[api.UserPage](ctx, c, http.MethodGet, "/admin/users", pageQuery(page, limit)...)
}

func (c *Client) GetUser(ctx context.Context, id string) (api.UserDetails, error) {
	return call[api.UserDetails](ctx, c, http.MethodGet, "/admin/users/{id}", pathParam("id", id))
}

// MealSchedule returns what a customer is served on the given day.
func (c *Client) MealSchedule(ctx context.Context, userID string, day time.Time) (api.MealSchedule, error) {
	return call[api.MealSchedule](ctx, c, http.MethodPost, "/admin/meal-schedule",
		body(api.MealScheduleRequest{UserID: userID, Date: day.Format(time.DateOnly)}))
}

func (c *Client) ListChefs(ctx context.Context, page, limit int) (api.ChefPage, error) {
	return call[api.ChefPage](ctx, c, http.MethodGet, "/admin/chefs", pageQuery(page, limit)...)
}

// AllChefs returns the chef roster used when assigning an order.
func (c *Client) AllChefs(ctx context.Context) ([]api.Chef, error) {
	rsp, err := call[api.ChefPage](ctx, c, http.MethodGet, "/admin/chefs")
	return rsp.Chefs, err
}

func (c *Client) GetChef(ctx context.Context, id string) (api.Chef, error) {
	rsp, err := call[struct {
		Chef api.Chef `json:"chef"`
	}](ctx, c, http.MethodGet, "/admin/chef/{id}", pathParam("id", id))
	return rsp.Chef, err
}

// CreateChef submits the onboarding form as multipart fields. Lists are sent
// JSON-encoded, scalars as their text form.
func (c *Client) CreateChef(ctx context.Context, nc api.NewChef) error {
	form, err := chefForm(nc)
	if err != nil {
		return err
	}
	_, err = call[json.RawMessage](ctx, c, http.MethodPost, "/admin/chef", func(r *resty.Request) {
		r.SetMultipartFormData(form)
	})
	return err
}

func chefForm(nc api.NewChef) (map[string]string, error) {
	lists := map[string][]string{
		"previousWorkplace": nc.PreviousWorkplace,
		"preferredCities":   nc.PreferredCities,
		"cuisines":          nc.Cuisines,
	}
	form := map[string]string{
		"name":                nc.Name,
		"gender":              nc.Gender,
		"canCook":             strconv.FormatBool(nc.CanCook),
		"readyForHomeKitchen": strconv.FormatBool(nc.ReadyForHomeKitchen),
		"currentCity":         nc.CurrentCity,
		"currentArea":         nc.CurrentArea,
		"travelMode":          nc.TravelMode,
		"cooksNonVeg":         strconv.FormatBool(nc.CooksNonVeg),
		"readingLanguage":     nc.ReadingLanguage,
		"experienceYears":     nc.ExperienceYears,
		"currentSalary":       strconv.FormatFloat(nc.CurrentSalary, 'f', -1, 64),
		"PhoneNo":             string(nc.PhoneNo),
	}
	for k, v := range lists {
		if v == nil {
			v = []string{}
		}
		b, err := json.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("encode %s: %w", k, err)
		}
		form[k] = string(b)
	}
	return form, nil
}

func (c *Client) DeleteChef(ctx context.Context, id string) error {
	_, err := call[json.RawMessage](ctx, c, http.MethodDelete, "/admin/chef/{id}", pathParam("id", id))
	return err
}

func (c *Client) UpdateChefVerification(ctx context.Context, chefID, status string) error {
	switch status {
	case api.VerificationPending, api.VerificationVerified, api.VerificationRejected:
	default:
		return fmt.Errorf("unknown verification status %q", status)
	}
	_, err := call[json.RawMessage](ctx, c, http.MethodPost, "/admin/updateVerificationStatusChef",
		body(api.ChefVerification{ChefID: chefID, VerificationStatus: status}))
	return err
}
