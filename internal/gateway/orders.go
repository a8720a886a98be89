package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/billmatic/statement-recon/internal/domain"
	"go.uber.org/zap"
)

// ErrOrderNotFound means the order platform has no order for the id.
var ErrOrderNotFound = errors.New("order not found")

// OrderGateway is the order platform contract: customers, their orders and
// the payments recorded against each order.
type OrderGateway interface {
	// ListCustomers returns one page of active customers. An empty slice
	// marks the end of pagination.
	ListCustomers(ctx context.Context, page int) ([]CustomerRecord, error)
	// ListCustomerOrders returns every order on the customer's account.
	ListCustomerOrders(ctx context.Context, customerRef string) ([]OrderRecord, error)
	// GetOrder fetches a single order by its platform identifier.
	GetOrder(ctx context.Context, orderID string) (*OrderRecord, error)
}

// CustomerRecord is the platform's customer payload, trimmed to the fields
// the statement pipeline needs.
type CustomerRecord struct {
	Ref     string `json:"username"`
	Company string `json:"company"`
	Email   string `json:"email_address"`
}

// OrderRecord is the platform's order payload. Money fields arrive as
// strings or numbers depending on the endpoint, so they decode through
// domain.FlexAmount.
type OrderRecord struct {
	ID          string            `json:"order_id"`
	CustomerRef string            `json:"username"`
	GrandTotal  domain.FlexAmount `json:"grand_total"`
	Payments    []PaymentRecord   `json:"payments"`
	DueDate     string            `json:"date_due"`
	PlacedAt    string            `json:"date_placed"`
}

type PaymentRecord struct {
	Amount domain.FlexAmount `json:"amount"`
	Method string            `json:"payment_method"`
}

// DomainOrder converts the platform payload into the reconciliation core's
// input shape. An unparseable due date is an error, not a silent nil: due
// dates drive past-due flags on customer-facing statements.
func (o OrderRecord) DomainOrder() (domain.Order, error) {
	order := domain.Order{
		ID:         o.ID,
		GrandTotal: o.GrandTotal.Decimal,
	}
	for _, p := range o.Payments {
		order.Payments = append(order.Payments, p.Amount.Decimal)
	}
	if o.DueDate != "" {
		due, err := time.Parse("2006-01-02", o.DueDate)
		if err != nil {
			return domain.Order{}, fmt.Errorf("order %s: bad due date %q: %w", o.ID, o.DueDate, err)
		}
		order.DueDate = &due
	}
	return order, nil
}

// OrderClient talks to the order platform's REST API with key auth.
type OrderClient struct {
	httpClient *http.Client
	baseURL    string
	apiUser    string
	apiKey     string
	pageSize   int
}

func NewOrderClient(baseURL, apiUser, apiKey string) *OrderClient {
	return &OrderClient{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		baseURL:    baseURL,
		apiUser:    apiUser,
		apiKey:     apiKey,
		pageSize:   200,
	}
}

func (c *OrderClient) ListCustomers(ctx context.Context, page int) ([]CustomerRecord, error) {
	var out struct {
		Customers []CustomerRecord `json:"customers"`
	}
	params := url.Values{}
	params.Set("page", strconv.Itoa(page))
	params.Set("limit", strconv.Itoa(c.pageSize))
	params.Set("active", "true")
	if err := c.get(ctx, "/customers", params, &out); err != nil {
		return nil, fmt.Errorf("list customers page %d: %w", page, err)
	}
	return out.Customers, nil
}

func (c *OrderClient) ListCustomerOrders(ctx context.Context, customerRef string) ([]OrderRecord, error) {
	var out struct {
		Orders []OrderRecord `json:"orders"`
	}
	params := url.Values{}
	params.Set("username", customerRef)
	if err := c.get(ctx, "/orders", params, &out); err != nil {
		return nil, fmt.Errorf("list orders for %s: %w", customerRef, err)
	}
	return out.Orders, nil
}

func (c *OrderClient) GetOrder(ctx context.Context, orderID string) (*OrderRecord, error) {
	var out struct {
		Order OrderRecord `json:"order"`
	}
	if err := c.get(ctx, "/orders/"+url.PathEscape(orderID), nil, &out); err != nil {
		return nil, fmt.Errorf("get order %s: %w", orderID, err)
	}
	return &out.Order, nil
}

func (c *OrderClient) get(ctx context.Context, path string, params url.Values, dest any) error {
	if params == nil {
		params = url.Values{}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+params.Encode(), nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	// Auth travels in headers; the query string is reserved for filters
	// like the per-customer username in ListCustomerOrders.
	req.Header.Set("X-Auth-Username", c.apiUser)
	req.Header.Set("X-Auth-Token", c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("order platform request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return ErrOrderNotFound
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		zap.L().Warn("order platform error response",
			zap.String("path", path),
			zap.Int("status", resp.StatusCode),
			zap.ByteString("body", body),
		)
		return fmt.Errorf("order platform returned %d", resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		return fmt.Errorf("decode order platform response: %w", err)
	}
	return nil
}
