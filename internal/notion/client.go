// Package notion posts pages to the Notion workflow boards the association
// staff work from. Mirroring is strictly best effort: nothing in this
// package can fail a primary write.
package notion

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
)

const (
	baseURL    = "https://api.notion.com/v1"
	apiVersion = "2022-06-28"
)

// Property is one Notion page property in wire format. Build values with the
// typed constructors below.
type Property map[string]any

func Title(s string) Property {
	return Property{"title": []any{map[string]any{"text": map[string]any{"content": s}}}}
}

func RichText(s string) Property {
	return Property{"rich_text": []any{map[string]any{"text": map[string]any{"content": s}}}}
}

func Number(n float64) Property { return Property{"number": n} }

func Checkbox(b bool) Property { return Property{"checkbox": b} }

func Select(name string) Property {
	return Property{"select": map[string]any{"name": name}}
}

func Date(t time.Time) Property {
	return Property{"date": map[string]any{"start": t.Format(time.RFC3339)}}
}

func Email(s string) Property { return Property{"email": s} }

func PhoneNumber(s string) Property { return Property{"phone_number": s} }

// Page is the subset of a created page the callers care about.
type Page struct {
	ID  string `json:"id"`
	URL string `json:"url"`
}

// Client talks to the Notion REST API.
type Client struct {
	http *resty.Client
}

// NewClient builds a client with the given integration token.
func NewClient(apiKey string) *Client {
	c := resty.New().
		SetBaseURL(baseURL).
		SetHeader("Content-Type", "application/json").
		SetHeader("Notion-Version", apiVersion).
		SetAuthToken(apiKey).
		SetTimeout(30 * time.Second)
	return &Client{http: c}
}

type createPageRequest struct {
	Parent     map[string]string   `json:"parent"`
	Properties map[string]Property `json:"properties"`
}

// CreatePage adds a page to a database. Nil-valued properties are dropped
// before sending so callers can build the map unconditionally.
func (c *Client) CreatePage(ctx context.Context, databaseID string, properties map[string]Property) (*Page, error) {
	props := make(map[string]Property, len(properties))
	for k, v := range properties {
		if v != nil {
			props[k] = v
		}
	}

	var page Page
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(&createPageRequest{
			Parent:     map[string]string{"database_id": databaseID},
			Properties: props,
		}).
		SetResult(&page).
		Post("/pages")
	if err != nil {
		return nil, fmt.Errorf("notion request: %w", err)
	}
	if resp.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("notion status %d: %s", resp.StatusCode(), resp.String())
	}
	return &page, nil
}
