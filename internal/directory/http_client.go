package directory

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"
)

// HTTPClient implements Client against the directory services' REST APIs.
type HTTPClient struct {
	customerBaseURL string
	productBaseURL  string
	httpClient      *http.Client
}

// NewHTTPClient creates a client for the given base URLs. The timeout bounds
// each individual request; callers can impose tighter deadlines via context.
func NewHTTPClient(customerBaseURL, productBaseURL string, timeout time.Duration) *HTTPClient {
	return &HTTPClient{
		customerBaseURL: strings.TrimRight(customerBaseURL, "/"),
		productBaseURL:  strings.TrimRight(productBaseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

func (c *HTTPClient) ListCustomers(ctx context.Context) ([]Customer, error) {
	var customers []Customer
	if err := c.getJSON(ctx, c.customerBaseURL+"/customers", &customers); err != nil {
		return nil, err
	}
	return customers, nil
}

func (c *HTTPClient) GetCustomer(ctx context.Context, id string) (*Customer, error) {
	var customer Customer
	if err := c.getJSON(ctx, c.customerBaseURL+"/customers/"+id, &customer); err != nil {
		return nil, err
	}
	return &customer, nil
}

func (c *HTTPClient) ListProducts(ctx context.Context) ([]Product, error) {
	var products []Product
	if err := c.getJSON(ctx, c.productBaseURL+"/products", &products); err != nil {
		return nil, err
	}
	return products, nil
}

func (c *HTTPClient) GetProduct(ctx context.Context, id string) (*Product, error) {
	var product Product
	if err := c.getJSON(ctx, c.productBaseURL+"/products/"+id, &product); err != nil {
		return nil, err
	}
	return &product, nil
}

// getJSON performs one GET and decodes the body. 404 maps to ErrNotFound;
// transport errors and every other non-2xx map to ErrUnavailable.
func (c *HTTPClient) getJSON(ctx context.Context, url string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return fmt.Errorf("%w: build request for %s: %v", ErrUnavailable, url, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %s: %v", ErrUnavailable, url, err)
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusNotFound:
		return fmt.Errorf("%w: %s", ErrNotFound, url)
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return fmt.Errorf("%w: %s returned %d", ErrUnavailable, url, resp.StatusCode)
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: decode %s: %v", ErrUnavailable, url, err)
	}
	return nil
}
