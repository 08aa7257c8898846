// Package draftclient talks to the test-drive REST backend.
package draftclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"testdrive-wizard/internal/draft"
	"testdrive-wizard/internal/entities"
)

// BrandHeader carries the tenant of every request.
const BrandHeader = "X-Brand"

// Client is an HTTP client for the test-drive API. It implements
// draft.Gateway and draft.Directory.
type Client struct {
	baseURL    string
	brand      entities.Brand
	httpClient *http.Client
}

var (
	_ draft.Gateway   = (*Client)(nil)
	_ draft.Directory = (*Client)(nil)
)

// Option configures a Client.
type Option func(*Client)

// WithTimeout overrides the default 30s request timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.httpClient.Timeout = d
		}
	}
}

// WithHTTPClient replaces the underlying client. Tests use this to talk to
// an httptest server.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) {
		if h != nil {
			c.httpClient = h
		}
	}
}

// NewClient creates a new API client bound to brand.
func NewClient(baseURL string, brand entities.Brand, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		brand:   brand,
		httpClient: &http.Client{
			Timeout:   30 * time.Second,
			Transport: otelhttp.NewTransport(http.DefaultTransport),
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// APIError is a response with status >= 400.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("API error %d: %s", e.StatusCode, e.Body)
}

// Unwrap maps 404 and 403 onto the draft sentinels.
func (e *APIError) Unwrap() error {
	switch e.StatusCode {
	case http.StatusNotFound:
		return draft.ErrNotFound
	case http.StatusForbidden:
		return draft.ErrForbidden
	default:
		return nil
	}
}

// ============================================================================
// DRAFT RESOURCE
// ============================================================================

func (c *Client) Create(ctx context.Context, fields draft.Fields) (*entities.TestDriveForm, error) {
	var form entities.TestDriveForm
	if err := c.send(ctx, http.MethodPost, "/test-drive-forms", fields, &form); err != nil {
		return nil, err
	}
	return &form, nil
}

func (c *Client) Update(ctx context.Context, id string, fields draft.Fields) (*entities.TestDriveForm, error) {
	var form entities.TestDriveForm
	if err := c.send(ctx, http.MethodPatch, "/test-drive-forms/"+url.PathEscape(id), fields, &form); err != nil {
		return nil, err
	}
	return &form, nil
}

func (c *Client) Get(ctx context.Context, id string) (*entities.TestDriveForm, error) {
	var form entities.TestDriveForm
	if err := c.get(ctx, "/test-drive-forms/"+url.PathEscape(id), &form); err != nil {
		return nil, err
	}
	return &form, nil
}

// ListForms lists forms of the client's brand unless the filter names one.
func (c *Client) ListForms(ctx context.Context, filter draft.ListFilter) ([]entities.TestDriveForm, error) {
	q := url.Values{}
	brand := filter.Brand
	if brand == "" {
		brand = c.brand
	}
	if brand != "" {
		q.Set("brand", string(brand))
	}
	if filter.Status != "" {
		q.Set("status", string(filter.Status))
	}
	path := "/test-drive-forms"
	if len(q) > 0 {
		path += "?" + q.Encode()
	}
	var forms []entities.TestDriveForm
	if err := c.get(ctx, path, &forms); err != nil {
		return nil, err
	}
	for i := range forms {
		forms[i].Status = forms[i].Status.Normalize()
	}
	return forms, nil
}

// ============================================================================
// LOOKUPS
// ============================================================================

type findOrCreateCustomerResponse struct {
	Customer entities.Customer `json:"customer"`
	Created  bool              `json:"created"`
}

type findOrCreateVehicleResponse struct {
	Vehicle entities.Vehicle `json:"vehicle"`
	Created bool             `json:"created"`
}

func (c *Client) FindOrCreateCustomer(ctx context.Context, in draft.CustomerInput) (*entities.Customer, error) {
	var resp findOrCreateCustomerResponse
	if err := c.send(ctx, http.MethodPost, "/customers/find-or-create", in, &resp); err != nil {
		return nil, err
	}
	return &resp.Customer, nil
}

// LookupVehicle finds a registered vehicle by plate or VIN. No match is
// reported as draft.ErrNotFound.
func (c *Client) LookupVehicle(ctx context.Context, licensePlate, vinNumber string) (*entities.Vehicle, error) {
	q := url.Values{}
	if p := strings.TrimSpace(licensePlate); p != "" {
		q.Set("licensePlate", p)
	}
	if v := strings.TrimSpace(vinNumber); v != "" {
		q.Set("vinNumber", v)
	}
	if len(q) == 0 {
		return nil, errors.New("licence plate or VIN is required")
	}
	var vehicle entities.Vehicle
	if err := c.get(ctx, "/vehicles?"+q.Encode(), &vehicle); err != nil {
		return nil, err
	}
	if vehicle.ID == "" {
		return nil, draft.ErrNotFound
	}
	return &vehicle, nil
}

func (c *Client) FindOrCreateVehicle(ctx context.Context, in draft.VehicleInput) (*entities.Vehicle, error) {
	var resp findOrCreateVehicleResponse
	if err := c.send(ctx, http.MethodPost, "/vehicles/find-or-create", in, &resp); err != nil {
		return nil, err
	}
	return &resp.Vehicle, nil
}

func (c *Client) ListLocations(ctx context.Context) ([]entities.Location, error) {
	var locations []entities.Location
	if err := c.get(ctx, "/locations", &locations); err != nil {
		return nil, err
	}
	return locations, nil
}

// ============================================================================
// TRANSPORT
// ============================================================================

func (c *Client) get(ctx context.Context, path string, result any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	return c.do(req, result)
}

func (c *Client) send(ctx context.Context, method, path string, body, result any) error {
	data, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshaling request: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, result)
}

func (c *Client) do(req *http.Request, result any) error {
	req.Header.Set("Accept", "application/json")
	if c.brand != "" {
		req.Header.Set(BrandHeader, string(c.brand))
	}
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("executing request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("reading response: %w", err)
	}

	if resp.StatusCode >= 400 {
		return &APIError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}

	if result != nil && len(body) > 0 {
		if err := json.Unmarshal(body, result); err != nil {
			return fmt.Errorf("unmarshaling response: %w", err)
		}
	}
	return nil
}
