package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"

	"github.com/google/uuid"

	"github.com/saadjs/fittrack-cli/internal/model"
)

func (c *Client) GetActivities(ctx context.Context) (json.RawMessage, error) {
	return c.Request(ctx, http.MethodGet, "/activities", nil)
}

// GetActivityDetail fetches one activity together with its AI analysis.
func (c *Client) GetActivityDetail(ctx context.Context, id model.ActivityID) (json.RawMessage, error) {
	return c.Request(ctx, http.MethodGet, "/recommendations/activity/"+url.PathEscape(id.String()), nil)
}

// AddActivity sends a fresh Idempotency-Key so a resubmitted form cannot
// create the same workout twice.
func (c *Client) AddActivity(ctx context.Context, in model.ActivityInput) (json.RawMessage, error) {
	header := http.Header{}
	header.Set("Idempotency-Key", uuid.NewString())
	return c.do(ctx, http.MethodPost, "/activities", in, header)
}

func (c *Client) UpdateActivity(ctx context.Context, id model.ActivityID, patch model.ActivityPatch) (json.RawMessage, error) {
	return c.Request(ctx, http.MethodPut, "/activities/"+url.PathEscape(id.String()), patch)
}

func (c *Client) DeleteActivity(ctx context.Context, id model.ActivityID) (json.RawMessage, error) {
	return c.Request(ctx, http.MethodDelete, "/activities/"+url.PathEscape(id.String()), nil)
}
