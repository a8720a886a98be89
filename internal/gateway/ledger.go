package gateway

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/billmatic/statement-recon/internal/domain"
	"go.uber.org/zap"
)

// ErrInvoiceNotFound means the ledger has no invoice for the reference,
// i.e. the order was never exported to the accounting platform.
var ErrInvoiceNotFound = errors.New("ledger invoice not found")

// LedgerGateway is the accounting platform contract.
type LedgerGateway interface {
	// GetInvoice fetches the invoice recorded against an order reference.
	// Returns ErrInvoiceNotFound when the order was never exported.
	GetInvoice(ctx context.Context, reference string) (*LedgerInvoice, error)
}

// LedgerInvoice is the accounting platform's view of an order.
type LedgerInvoice struct {
	InvoiceID     string            `json:"InvoiceID"`
	InvoiceNumber string            `json:"InvoiceNumber"`
	Reference     string            `json:"Reference"`
	Status        string            `json:"Status"`
	Total         domain.FlexAmount `json:"Total"`
	AmountPaid    domain.FlexAmount `json:"AmountPaid"`
	AmountDue     domain.FlexAmount `json:"AmountDue"`
	DueDate       string            `json:"DueDateString"`
}

// Record converts the invoice into the reconciliation core's ledger shape.
func (i LedgerInvoice) Record() *domain.LedgerRecord {
	return &domain.LedgerRecord{
		Total:      i.Total.Decimal,
		AmountPaid: i.AmountPaid.Decimal,
		AmountDue:  i.AmountDue.Decimal,
	}
}

// LedgerClient talks to the accounting platform with OAuth2
// client-credentials auth. Tokens are cached until shortly before expiry
// and refreshed under a lock so concurrent reconcile calls share one
// refresh round trip.
type LedgerClient struct {
	httpClient   *http.Client
	baseURL      string
	tokenURL     string
	clientID     string
	clientSecret string
	tenantID     string

	mu          sync.Mutex
	accessToken string
	tokenExpiry time.Time
}

func NewLedgerClient(baseURL, tokenURL, clientID, clientSecret, tenantID string) *LedgerClient {
	return &LedgerClient{
		httpClient:   &http.Client{Timeout: 30 * time.Second},
		baseURL:      baseURL,
		tokenURL:     tokenURL,
		clientID:     clientID,
		clientSecret: clientSecret,
		tenantID:     tenantID,
	}
}

func (c *LedgerClient) GetInvoice(ctx context.Context, reference string) (*LedgerInvoice, error) {
	token, err := c.token(ctx)
	if err != nil {
		return nil, fmt.Errorf("ledger auth: %w", err)
	}

	endpoint := c.baseURL + "/Invoices?where=" + url.QueryEscape(fmt.Sprintf(`Reference=="%s"`, reference))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("build invoice request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")
	if c.tenantID != "" {
		req.Header.Set("Xero-Tenant-Id", c.tenantID)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("ledger request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, ErrInvoiceNotFound
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		zap.L().Warn("ledger error response",
			zap.String("reference", reference),
			zap.Int("status", resp.StatusCode),
			zap.ByteString("body", body),
		)
		return nil, fmt.Errorf("ledger returned %d", resp.StatusCode)
	}

	var out struct {
		Invoices []LedgerInvoice `json:"Invoices"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode ledger response: %w", err)
	}
	if len(out.Invoices) == 0 {
		return nil, ErrInvoiceNotFound
	}
	return &out.Invoices[0], nil
}

// token returns a valid access token, refreshing when within a minute of
// expiry.
func (c *LedgerClient) token(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.accessToken != "" && time.Until(c.tokenExpiry) > time.Minute {
		return c.accessToken, nil
	}

	form := url.Values{}
	form.Set("grant_type", "client_credentials")
	form.Set("client_id", c.clientID)
	form.Set("client_secret", c.clientSecret)
	form.Set("scope", "accounting.transactions.read accounting.contacts.read")

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.tokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("build token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("token request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return "", fmt.Errorf("token endpoint returned %d: %s", resp.StatusCode, body)
	}

	var tok struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int64  `json:"expires_in"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&tok); err != nil {
		return "", fmt.Errorf("decode token response: %w", err)
	}
	if tok.AccessToken == "" {
		return "", errors.New("token endpoint returned empty access token")
	}
	if tok.ExpiresIn == 0 {
		tok.ExpiresIn = 1800
	}

	c.accessToken = tok.AccessToken
	c.tokenExpiry = time.Now().Add(time.Duration(tok.ExpiresIn) * time.Second)
	return c.accessToken, nil
}
