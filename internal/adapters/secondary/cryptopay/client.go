package cryptopay

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"github.com/N1seb/Render/internal/domain"
	"github.com/N1seb/Render/internal/ports/payment"
	"github.com/go-resty/resty/v2"
	"github.com/shopspring/decimal"
)

// Client клиент Crypto Pay API: инвойсы и курсы
type Client struct {
	cfg  *Config
	http *resty.Client
	log  *slog.Logger
}

var (
	_ payment.IPaymentGateway = (*Client)(nil)
	_ payment.IRateSource     = (*Client)(nil)
)

func NewClient(cfg *Config, log *slog.Logger) *Client {
	httpClient := resty.New().
		SetBaseURL(strings.TrimSuffix(cfg.BaseURL, "/")).
		SetTimeout(cfg.ClampTimeout()).
		SetHeader(tokenHeader, cfg.Token).
		SetHeader("Content-Type", "application/json")

	return &Client{
		cfg:  cfg,
		http: httpClient,
		log:  log.With("component", "cryptopay"),
	}
}

// truncateString обрезает строку до указанной длины
func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen] + "..."
}

// CreateInvoice выставляет инвойс. Любая неудача возвращается как *domain.GatewayError
func (c *Client) CreateInvoice(ctx context.Context, req domain.CreateInvoiceRequest) (*domain.InvoiceResult, error) {
	const op = "createInvoice"

	body := createInvoiceRequest{
		CurrencyType: "crypto",
		Asset:        strings.ToUpper(req.Asset),
		Amount:       req.Amount.String(),
		Description:  req.Description,
		Payload:      req.ReferenceToken,
		ExpiresIn:    int64(c.cfg.InvoiceTTL.Seconds()),
	}
	callback := req.CallbackURL
	if callback == "" {
		callback = c.cfg.CallbackURL
	}
	if callback != "" {
		body.PaidBtnName = "callback"
		body.PaidBtnURL = callback
	}

	raw, result, err := c.do(ctx, op, http.MethodPost, createInvoicePath, body, nil)
	if err != nil {
		return nil, err
	}

	var inv invoice
	if err := json.Unmarshal(result, &inv); err != nil {
		return nil, &domain.GatewayError{Op: op, Err: fmt.Errorf("malformed invoice: %w", err)}
	}
	if inv.InvoiceID.String() == "" || inv.url() == "" {
		return nil, &domain.GatewayError{Op: op, Err: fmt.Errorf("response without invoice id or url")}
	}

	c.log.Info("invoice created",
		"invoice_id", inv.InvoiceID.String(),
		"asset", body.Asset,
		"amount", body.Amount,
		"reference", req.ReferenceToken,
	)

	return &domain.InvoiceResult{
		InvoiceID: inv.InvoiceID.String(),
		PayURL:    inv.url(),
		Raw:       domain.RawPayload(raw),
	}, nil
}

// GetInvoiceStatus статус инвойса по id
func (c *Client) GetInvoiceStatus(ctx context.Context, invoiceID string) (domain.InvoiceStatus, error) {
	const op = "getInvoices"

	_, result, err := c.do(ctx, op, http.MethodGet, getInvoicesPath, nil, map[string]string{"invoice_ids": invoiceID})
	if err != nil {
		return "", err
	}

	var invoices invoicesResult
	if err := json.Unmarshal(result, &invoices); err != nil {
		return "", &domain.GatewayError{Op: op, Err: fmt.Errorf("malformed invoices: %w", err)}
	}
	for _, inv := range invoices.Items {
		if inv.InvoiceID.String() == invoiceID {
			return domain.InvoiceStatus(strings.ToLower(inv.Status)), nil
		}
	}

	return "", &domain.GatewayError{Op: op, Err: fmt.Errorf("invoice %s: %w", invoiceID, domain.ErrNotFound)}
}

// Rate курс asset -> fiat из getExchangeRates
func (c *Client) Rate(ctx context.Context, asset, fiat string) (decimal.Decimal, error) {
	const op = "getExchangeRates"

	_, result, err := c.do(ctx, op, http.MethodGet, getExchangeRatesPath, nil, nil)
	if err != nil {
		return decimal.Zero, err
	}

	var rates []exchangeRate
	if err := json.Unmarshal(result, &rates); err != nil {
		return decimal.Zero, fmt.Errorf("%w: malformed rates: %v", domain.ErrRateLookup, err)
	}

	for _, r := range rates {
		if !strings.EqualFold(r.Source, asset) || !strings.EqualFold(r.Target, fiat) {
			continue
		}
		if !r.IsValid {
			return decimal.Zero, fmt.Errorf("%w: rate %s/%s is not valid", domain.ErrRateLookup, asset, fiat)
		}
		rate, err := decimal.NewFromString(r.Rate)
		if err != nil {
			return decimal.Zero, fmt.Errorf("%w: rate %q: %v", domain.ErrRateLookup, r.Rate, err)
		}
		return rate, nil
	}

	return decimal.Zero, fmt.Errorf("%w: no rate for %s/%s", domain.ErrRateLookup, asset, fiat)
}

// do выполняет запрос и разворачивает конверт {ok, result, error}
func (c *Client) do(ctx context.Context, op, method, path string, body interface{}, query map[string]string) ([]byte, json.RawMessage, error) {
	req := c.http.R().SetContext(ctx)
	if body != nil {
		req.SetBody(body)
	}
	if len(query) > 0 {
		req.SetQueryParams(query)
	}

	resp, err := req.Execute(method, path)
	if err != nil {
		c.log.Warn("crypto pay request failed", "op", op, "error", err)
		return nil, nil, &domain.GatewayError{Op: op, Err: err}
	}

	raw := resp.Body()
	if resp.StatusCode() < 200 || resp.StatusCode() >= 300 {
		c.log.Warn("crypto pay returned non-2xx status",
			"op", op,
			"status_code", resp.StatusCode(),
			"body_preview", truncateString(string(raw), 200),
		)
		return nil, nil, &domain.GatewayError{
			Op:         op,
			StatusCode: resp.StatusCode(),
			Err:        fmt.Errorf("unexpected status: %s", truncateString(string(raw), 500)),
		}
	}

	var envelope apiResponse
	if err := json.Unmarshal(raw, &envelope); err != nil {
		return nil, nil, &domain.GatewayError{Op: op, StatusCode: resp.StatusCode(), Err: fmt.Errorf("malformed response: %w", err)}
	}
	if !envelope.OK {
		name := "unknown error"
		if envelope.Error != nil {
			name = envelope.Error.Name
		}
		c.log.Warn("crypto pay returned error", "op", op, "error_name", name)
		return nil, nil, &domain.GatewayError{Op: op, StatusCode: resp.StatusCode(), Err: fmt.Errorf("api error: %s", name)}
	}

	return raw, envelope.Result, nil
}
