package homy

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/go-resty/resty/v2"
	"github.com/homy/homyadmin/api"
)

func (c *Client) ListImages(ctx context.Context) ([]api.Image, error) {
	rsp, err := call[api.ImageList](ctx, c, http.MethodGet, "/images/")
	return rsp.Images, err
}

func (c *Client) DeleteImage(ctx context.Context, id string) error {
	_, err := call[json.RawMessage](ctx, c, http.MethodDelete, "/images/{id}", pathParam("id", id))
	return err
}

func (c *Client) ListPosts(ctx context.Context, page, limit int) (api.PostPage, error) {
	return call[api.PostPage](ctx, c, http.MethodGet, "/post/", pageQuery(page, limit)...)
}

// CreatePost publishes a text-only community post as the admin.
func (c *Client) CreatePost(ctx context.Context, description string) error {
	_, err := call[json.RawMessage](ctx, c, http.MethodPost, "/post/createPostByAdmin", func(r *resty.Request) {
		r.SetMultipartFormData(map[string]string{"postDescription": description})
	})
	return err
}

func (c *Client) DeletePost(ctx context.Context, id string) error {
	_, err := call[json.RawMessage](ctx, c, http.MethodDelete, "/post/{id}", pathParam("id", id))
	return err
}

func (c *Client) ListNotifications(ctx context.Context) ([]api.Notification, error) {
	return call[[]api.Notification](ctx, c, http.MethodGet, "/notifications/get")
}

func (c *Client) SendNotification(ctx context.Context, title, description string) error {
	_, err := call[json.RawMessage](ctx, c, http.MethodPost, "/notifications/create",
		body(map[string]string{"title": title, "description": description}))
	return err
}

func (c *Client) DeleteNotification(ctx context.Context, id string) error {
	_, err := call[json.RawMessage](ctx, c, http.MethodDelete, "/notifications/delete/{id}", pathParam("id", id))
	return err
}
