package cryptopay

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/N1seb/Render/internal/domain"
	"github.com/N1seb/Render/internal/pkg/logger"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, handler http.HandlerFunc) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	return NewClient(&Config{
		BaseURL:    srv.URL,
		Token:      "test-token",
		Timeout:    10 * time.Second,
		InvoiceTTL: time.Hour,
	}, logger.Nop())
}

func TestCreateInvoice_Success(t *testing.T) {
	var got createInvoiceRequest
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/createInvoice", r.URL.Path)
		assert.Equal(t, "test-token", r.Header.Get(tokenHeader))

		body, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(body, &got))

		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"ok":true,"result":{"invoice_id":528,"status":"active","bot_invoice_url":"https://t.me/CryptoBot?start=IVabc"}}`))
	})

	res, err := client.CreateInvoice(context.Background(), domain.CreateInvoiceRequest{
		Amount:         decimal.RequireFromString("1.50"),
		Asset:          "usdt",
		ReferenceToken: "order_42_7_1700000000000000000",
		Description:    "Заказ #7",
	})
	require.NoError(t, err)

	assert.Equal(t, "528", res.InvoiceID)
	assert.Equal(t, "https://t.me/CryptoBot?start=IVabc", res.PayURL)
	assert.NotEmpty(t, res.Raw)

	assert.Equal(t, "USDT", got.Asset)
	assert.Equal(t, "1.5", got.Amount)
	assert.Equal(t, "order_42_7_1700000000000000000", got.Payload)
	assert.Equal(t, int64(3600), got.ExpiresIn)
}

func TestCreateInvoice_Failures(t *testing.T) {
	cases := map[string]struct {
		status int
		body   string
		code   int
	}{
		"non 2xx":        {status: http.StatusBadGateway, body: `oops`, code: http.StatusBadGateway},
		"ok false":       {status: http.StatusOK, body: `{"ok":false,"error":{"code":401,"name":"UNAUTHORIZED"}}`, code: http.StatusOK},
		"malformed":      {status: http.StatusOK, body: `{"ok":tru`, code: http.StatusOK},
		"missing fields": {status: http.StatusOK, body: `{"ok":true,"result":{"status":"active"}}`},
	}

	for name, tc := range cases {
		t.Run(name, func(t *testing.T) {
			client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tc.status)
				_, _ = w.Write([]byte(tc.body))
			})

			res, err := client.CreateInvoice(context.Background(), domain.CreateInvoiceRequest{
				Amount: decimal.RequireFromString("1"),
				Asset:  "TON",
			})
			require.Error(t, err)
			assert.Nil(t, res)

			var gwErr *domain.GatewayError
			require.ErrorAs(t, err, &gwErr)
			assert.Equal(t, "createInvoice", gwErr.Op)
			assert.Equal(t, tc.code, gwErr.StatusCode)
		})
	}
}

func TestCreateInvoice_Timeout(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	})

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	_, err := client.CreateInvoice(ctx, domain.CreateInvoiceRequest{Amount: decimal.RequireFromString("1"), Asset: "TON"})
	assert.True(t, domain.IsGatewayError(err))
}

func TestGetInvoiceStatus(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/getInvoices", r.URL.Path)
		assert.Equal(t, "528", r.URL.Query().Get("invoice_ids"))
		_, _ = w.Write([]byte(`{"ok":true,"result":{"items":[{"invoice_id":528,"status":"PAID"}]}}`))
	})

	status, err := client.GetInvoiceStatus(context.Background(), "528")
	require.NoError(t, err)
	assert.Equal(t, domain.InvoiceStatusPaid, status)

	_, err = client.GetInvoiceStatus(context.Background(), "999")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestRate(t *testing.T) {
	client := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"ok":true,"result":[
			{"is_valid":true,"source":"TON","target":"USD","rate":"3.25"},
			{"is_valid":false,"source":"TRX","target":"USD","rate":"0.1"}
		]}`))
	})

	rate, err := client.Rate(context.Background(), "ton", "usd")
	require.NoError(t, err)
	assert.Equal(t, "3.25", rate.String())

	_, err = client.Rate(context.Background(), "TRX", "USD")
	assert.ErrorIs(t, err, domain.ErrRateLookup)

	_, err = client.Rate(context.Background(), "BTC", "USD")
	assert.ErrorIs(t, err, domain.ErrRateLookup)
}

func TestClampTimeout(t *testing.T) {
	assert.Equal(t, 15*time.Second, (&Config{}).ClampTimeout())
	assert.Equal(t, 8*time.Second, (&Config{Timeout: time.Second}).ClampTimeout())
	assert.Equal(t, 20*time.Second, (&Config{Timeout: time.Minute}).ClampTimeout())
	assert.Equal(t, 12*time.Second, (&Config{Timeout: 12 * time.Second}).ClampTimeout())
}

func TestSignatureVerifier(t *testing.T) {
	body := []byte(`{"update_type":"invoice_paid"}`)
	v := NewSignatureVerifier("test-token")

	assert.True(t, v.Verify(body, Sign("test-token", body)))
	assert.False(t, v.Verify(body, Sign("other", body)))
	assert.False(t, v.Verify(body, ""))
}
