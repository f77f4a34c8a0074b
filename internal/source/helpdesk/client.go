package helpdesk

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"helpdesk_digest/internal/domain"
)

const (
	SourceID   = "zendesk"
	SourceName = "Zendesk Help Center"
)

// Config holds helpdesk API configuration.
type Config struct {
	BaseURL  string
	User     string
	Password string
	Locale   string
	Timeout  time.Duration
}

// Client implements service.Source for the Zendesk Help Center and Community APIs.
type Client struct {
	httpClient *http.Client
	baseURL    string
	user       string
	password   string
	resources  map[domain.Kind]resource
	logger     *slog.Logger
}

// New creates a new helpdesk client.
func New(cfg Config, logger *slog.Logger) *Client {
	return &Client{
		httpClient: &http.Client{
			Timeout: cfg.Timeout,
		},
		baseURL:  cfg.BaseURL,
		user:     cfg.User,
		password: cfg.Password,
		resources: map[domain.Kind]resource{
			domain.KindArticle: articles{locale: cfg.Locale},
			domain.KindPost:    posts{},
		},
		logger: logger.With("source", SourceID),
	}
}

// ID returns the source identifier.
func (c *Client) ID() string {
	return SourceID
}

// Name returns human-readable name.
func (c *Client) Name() string {
	return SourceName
}

// FetchCollection fetches the items of kind changed since the given instant.
func (c *Client) FetchCollection(ctx context.Context, kind domain.Kind, since time.Time) (*domain.Collection, error) {
	res, err := c.resource(kind)
	if err != nil {
		return nil, err
	}

	url := c.baseURL + res.collectionPath(since)
	c.logger.Info("fetch collection", "kind", kind, "url", url, "since", since)

	var body map[string]json.RawMessage
	if err := c.get(ctx, kind, url, &body); err != nil {
		return nil, err
	}

	return c.transform(res, url, body, since)
}

// FetchComments fetches the comments of an item.
func (c *Client) FetchComments(ctx context.Context, item domain.Item) ([]domain.Comment, error) {
	res, err := c.resource(item.Kind)
	if err != nil {
		return nil, err
	}

	url := c.baseURL + res.commentsPath(item.ID)

	var resp commentsResponse
	if err := c.get(ctx, item.Kind, url, &resp); err != nil {
		return nil, err
	}

	comments := make([]domain.Comment, 0, len(resp.Comments))
	for _, cm := range resp.Comments {
		comments = append(comments, domain.Comment{ID: cm.ID, UpdatedAt: cm.UpdatedAt})
	}

	c.logger.Debug("fetched comments",
		"kind", item.Kind,
		"item_id", item.ID,
		"comments", len(comments),
	)

	return comments, nil
}

func (c *Client) resource(kind domain.Kind) (resource, error) {
	res, ok := c.resources[kind]
	if !ok {
		return nil, fmt.Errorf("unknown resource kind %q", kind)
	}
	return res, nil
}

func (c *Client) get(ctx context.Context, kind domain.Kind, url string, dst any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}

	req.SetBasicAuth(c.user, c.password)
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", "HelpdeskDigest/1.0")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &domain.FetchError{Kind: kind, URL: url, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return &domain.FetchError{Kind: kind, URL: url, StatusCode: resp.StatusCode}
	}

	if err := json.NewDecoder(resp.Body).Decode(dst); err != nil {
		return &domain.MalformedResponseError{Kind: kind, URL: url, Reason: fmt.Sprintf("decode: %v", err)}
	}

	return nil
}

func (c *Client) transform(res resource, url string, body map[string]json.RawMessage, since time.Time) (*domain.Collection, error) {
	kind := res.kind()
	collection := &domain.Collection{Kind: kind, Categories: map[int64]string{}}

	if raw, ok := body["count"]; ok {
		if err := json.Unmarshal(raw, &collection.Count); err != nil {
			return nil, &domain.MalformedResponseError{Kind: kind, URL: url, Reason: "count is not a number"}
		}
		if collection.Count == 0 {
			return collection, nil
		}
	}

	rawItems, ok := body[res.itemsKey()]
	if !ok {
		return nil, &domain.MalformedResponseError{Kind: kind, URL: url, Reason: fmt.Sprintf("missing %q", res.itemsKey())}
	}

	var items []apiItem
	if err := json.Unmarshal(rawItems, &items); err != nil {
		return nil, &domain.MalformedResponseError{Kind: kind, URL: url, Reason: fmt.Sprintf("decode %q: %v", res.itemsKey(), err)}
	}

	if rawLookup, ok := body[res.lookupKey()]; ok {
		var categories []apiCategory
		if err := json.Unmarshal(rawLookup, &categories); err != nil {
			return nil, &domain.MalformedResponseError{Kind: kind, URL: url, Reason: fmt.Sprintf("decode %q: %v", res.lookupKey(), err)}
		}
		for _, cat := range categories {
			collection.Categories[cat.ID] = cat.Name
		}
	}

	collection.Items = make([]domain.Item, 0, len(items))
	for _, it := range items {
		if !res.keep(it, since) {
			continue
		}

		categoryID := res.categoryID(it)
		category, found := collection.Categories[categoryID]
		if !found {
			c.logger.Warn("unknown category",
				"kind", kind,
				"item_id", it.ID,
				"category_id", categoryID,
			)
		}

		collection.Items = append(collection.Items, domain.Item{
			Kind:      kind,
			ID:        it.ID,
			Title:     it.Title,
			URL:       it.HTMLURL,
			Category:  category,
			CreatedAt: it.CreatedAt.UTC(),
			UpdatedAt: it.UpdatedAt.UTC(),
		})
	}

	c.logger.Info("fetched collection",
		"kind", kind,
		"count", collection.Count,
		"items", len(collection.Items),
	)

	return collection, nil
}
