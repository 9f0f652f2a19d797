package elabapi

import (
	"context"
	"fmt"
	"net/url"
	"strconv"

	"go.opentelemetry.io/otel/attribute"
)

type ItemsType struct {
	ID    int64  `json:"id"`
	Title string `json:"title"`
	Color string `json:"color"`
}

// Entity is the subset of an experiment or item this package works with.
type Entity struct {
	ID            int64  `json:"id"`
	Title         string `json:"title"`
	Body          string `json:"body"`
	Category      int64  `json:"category"`
	CategoryTitle string `json:"category_title"`
	CustomID      *int64 `json:"custom_id"`
}

type Item = Entity

type Experiment = Entity

// Patch is the body of a PATCH on an experiment or item. Metadata is the
// JSON encoded metadata document.
type Patch struct {
	Title    string `json:"title"`
	Body     string `json:"body"`
	CustomID string `json:"custom_id,omitempty"`
	Metadata string `json:"metadata"`
}

func (c *Client) ReadItemsTypes(ctx context.Context) ([]ItemsType, error) {
	ctx, span := tracer.Start(ctx, "client:ReadItemsTypes")
	defer span.End()

	var out []ItemsType
	err := c.get(ctx, "/items_types", nil, &out)
	if err != nil {
		return nil, failSpan(span, fmt.Errorf("read items types: %w", err))
	}
	return out, nil
}

type ReadItemsParams struct {
	// zero means every category
	Category int64
	// zero leaves the server default
	Limit int
}

func (c *Client) ReadItems(ctx context.Context, params ReadItemsParams) ([]Item, error) {
	ctx, span := tracer.Start(ctx, "client:ReadItems")
	defer span.End()
	span.SetAttributes(
		attribute.Int64("elab.category", params.Category),
		attribute.Int("elab.limit", params.Limit),
	)

	query := url.Values{}
	if params.Category != 0 {
		query.Set("cat", strconv.FormatInt(params.Category, 10))
	}
	if params.Limit > 0 {
		query.Set("limit", strconv.Itoa(params.Limit))
	}

	var out []Item
	err := c.get(ctx, "/items", query, &out)
	if err != nil {
		return nil, failSpan(span, fmt.Errorf("read items: %w", err))
	}
	return out, nil
}

func (c *Client) GetItem(ctx context.Context, id int64) (Item, error) {
	ctx, span := tracer.Start(ctx, "client:GetItem")
	defer span.End()
	span.SetAttributes(idAttr(id))

	var out Item
	err := c.get(ctx, fmt.Sprintf("/items/%d", id), nil, &out)
	if err != nil {
		return Item{}, failSpan(span, fmt.Errorf("get item %d: %w", id, err))
	}
	return out, nil
}

func (c *Client) GetExperiment(ctx context.Context, id int64) (Experiment, error) {
	ctx, span := tracer.Start(ctx, "client:GetExperiment")
	defer span.End()
	span.SetAttributes(idAttr(id))

	var out Experiment
	err := c.get(ctx, fmt.Sprintf("/experiments/%d", id), nil, &out)
	if err != nil {
		return Experiment{}, failSpan(span, fmt.Errorf("get experiment %d: %w", id, err))
	}
	return out, nil
}

type PostItemParams struct {
	CategoryID int64 `json:"category_id"`
}

// PostItem creates an empty item in a category and returns its id.
func (c *Client) PostItem(ctx context.Context, params PostItemParams) (int64, error) {
	ctx, span := tracer.Start(ctx, "client:PostItem")
	defer span.End()
	span.SetAttributes(attribute.Int64("elab.category", params.CategoryID))

	id, err := c.post(ctx, "/items", params)
	if err != nil {
		return 0, failSpan(span, fmt.Errorf("post item: %w", err))
	}
	span.SetAttributes(idAttr(id))
	return id, nil
}

// PostExperiment creates an empty experiment and returns its id.
func (c *Client) PostExperiment(ctx context.Context) (int64, error) {
	ctx, span := tracer.Start(ctx, "client:PostExperiment")
	defer span.End()

	id, err := c.post(ctx, "/experiments", map[string]any{})
	if err != nil {
		return 0, failSpan(span, fmt.Errorf("post experiment: %w", err))
	}
	span.SetAttributes(idAttr(id))
	return id, nil
}

func (c *Client) PatchItem(ctx context.Context, id int64, patch Patch) error {
	ctx, span := tracer.Start(ctx, "client:PatchItem")
	defer span.End()
	span.SetAttributes(idAttr(id))

	err := c.patch(ctx, fmt.Sprintf("/items/%d", id), patch)
	if err != nil {
		return failSpan(span, fmt.Errorf("patch item %d: %w", id, err))
	}
	return nil
}

func (c *Client) PatchExperiment(ctx context.Context, id int64, patch Patch) error {
	ctx, span := tracer.Start(ctx, "client:PatchExperiment")
	defer span.End()
	span.SetAttributes(idAttr(id))

	err := c.patch(ctx, fmt.Sprintf("/experiments/%d", id), patch)
	if err != nil {
		return failSpan(span, fmt.Errorf("patch experiment %d: %w", id, err))
	}
	return nil
}
