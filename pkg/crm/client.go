// Package crm provides a typed HTTP client for the hosted CRM's pipelines,
// contacts, and opportunities endpoints.
package crm

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"
)

// Default base URL for the CRM REST API.
const defaultBaseURL = "https://services.leadconnectorhq.com"

// apiVersion is the fixed API-version header the CRM requires on every call.
const apiVersion = "2021-07-28"

// Client defines the CRM operations used by the lead pipeline.
type Client interface {
	// ListPipelines returns every pipeline configured for the location.
	ListPipelines(ctx context.Context, locationID string) ([]Pipeline, error)

	// CreateContact creates a contact, treating the CRM's duplicate-contact
	// response as success: the returned Contact then carries the existing id
	// and the originally submitted fields.
	CreateContact(ctx context.Context, req CreateContactRequest) (*Contact, error)

	// CreateOpportunity creates an opportunity linked to an existing contact.
	CreateOpportunity(ctx context.Context, req CreateOpportunityRequest) (*Opportunity, error)
}

// Option configures the httpClient.
type Option func(*httpClient)

// WithBaseURL overrides the default base URL.
func WithBaseURL(u string) Option {
	return func(c *httpClient) {
		c.baseURL = u
	}
}

// WithHTTPClient sets a custom *http.Client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

// WithRateLimit sets a per-second rate limit for CRM calls.
// A burst equal to the integer portion of rps is allowed.
func WithRateLimit(rps float64) Option {
	return func(c *httpClient) {
		if rps > 0 {
			c.limiter = rate.NewLimiter(rate.Limit(rps), max(int(rps), 1))
		}
	}
}

// httpClient implements Client using net/http.
type httpClient struct {
	token   string
	baseURL string
	http    *http.Client
	limiter *rate.Limiter
}

// NewClient creates a new CRM client authenticated with the given token.
func NewClient(token string, opts ...Option) Client {
	c := &httpClient{
		token:   token,
		baseURL: defaultBaseURL,
		http: &http.Client{
			Timeout: 60 * time.Second,
			Transport: &http.Transport{
				MaxIdleConnsPerHost: 20,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// wait blocks until the rate limiter allows one event, or ctx is cancelled.
func (c *httpClient) wait(ctx context.Context) error {
	if c.limiter == nil {
		return nil
	}
	return c.limiter.Wait(ctx)
}

func (c *httpClient) ListPipelines(ctx context.Context, locationID string) ([]Pipeline, error) {
	if err := c.wait(ctx); err != nil {
		return nil, eris.Wrap(err, "crm: rate limit")
	}

	path := "/opportunities/pipelines?locationId=" + url.QueryEscape(locationID)
	var resp listPipelinesResponse
	if err := c.get(ctx, path, &resp); err != nil {
		return nil, eris.Wrap(err, "crm: list pipelines")
	}
	return resp.Pipelines, nil
}

func (c *httpClient) CreateContact(ctx context.Context, req CreateContactRequest) (*Contact, error) {
	if err := c.wait(ctx); err != nil {
		return nil, eris.Wrap(err, "crm: rate limit")
	}

	status, body, err := c.post(ctx, "/contacts/", req)
	if err != nil {
		return nil, eris.Wrap(err, "crm: create contact")
	}

	if status >= 200 && status < 300 {
		var resp createContactResponse
		if err := json.Unmarshal(body, &resp); err != nil {
			return nil, eris.Wrap(err, "crm: decode contact response")
		}
		return &resp.Contact, nil
	}

	outcome := classifyCreateContactError(status, body)
	if outcome.Kind == contactErrorDuplicate {
		// The duplicate response does not include the existing contact's full
		// record, so the submitted fields stand in for it.
		return &Contact{
			ID:        outcome.ContactID,
			FirstName: req.FirstName,
			LastName:  req.LastName,
			Email:     req.Email,
			Phone:     req.Phone,
			Source:    req.Source,
			Tags:      req.Tags,
		}, nil
	}

	return nil, &APIError{StatusCode: status, Body: string(body)}
}

func (c *httpClient) CreateOpportunity(ctx context.Context, req CreateOpportunityRequest) (*Opportunity, error) {
	if err := c.wait(ctx); err != nil {
		return nil, eris.Wrap(err, "crm: rate limit")
	}

	if req.Status == "" {
		req.Status = "open"
	}

	status, body, err := c.post(ctx, "/opportunities/", req)
	if err != nil {
		return nil, eris.Wrap(err, "crm: create opportunity")
	}
	if status < 200 || status >= 300 {
		return nil, &APIError{StatusCode: status, Body: string(body)}
	}

	var resp createOpportunityResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, eris.Wrap(err, "crm: decode opportunity response")
	}
	return &resp.Opportunity, nil
}

func (c *httpClient) get(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return eris.Wrap(err, "create request")
	}
	c.setHeaders(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return eris.Wrap(err, "execute request")
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return eris.Wrap(err, "read response body")
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &APIError{StatusCode: resp.StatusCode, Body: string(data)}
	}

	if err := json.Unmarshal(data, out); err != nil {
		return eris.Wrap(err, "decode response")
	}
	return nil
}

// post issues the request and returns the raw status and body so callers can
// classify non-2xx shapes (the duplicate-contact branch) themselves.
func (c *httpClient) post(ctx context.Context, path string, body any) (int, []byte, error) {
	buf, err := json.Marshal(body)
	if err != nil {
		return 0, nil, eris.Wrap(err, "marshal request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(buf))
	if err != nil {
		return 0, nil, eris.Wrap(err, "create request")
	}
	req.Header.Set("Content-Type", "application/json")
	c.setHeaders(req)

	resp, err := c.http.Do(req)
	if err != nil {
		return 0, nil, eris.Wrap(err, "execute request")
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return 0, nil, eris.Wrap(err, "read response body")
	}
	return resp.StatusCode, data, nil
}

func (c *httpClient) setHeaders(req *http.Request) {
	req.Header.Set("Authorization", fmt.Sprintf("Bearer %s", c.token))
	req.Header.Set("Version", apiVersion)
}
