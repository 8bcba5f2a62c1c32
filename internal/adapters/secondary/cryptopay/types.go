package cryptopay

import "encoding/json"

const (
	createInvoicePath    = "/createInvoice"
	getInvoicesPath      = "/getInvoices"
	getExchangeRatesPath = "/getExchangeRates"

	tokenHeader     = "Crypto-Pay-API-Token"
	SignatureHeader = "crypto-pay-api-signature"
)

// apiResponse общий конверт ответа Crypto Pay
type apiResponse struct {
	OK     bool            `json:"ok"`
	Result json.RawMessage `json:"result"`
	Error  *apiError       `json:"error,omitempty"`
}

type apiError struct {
	Code int    `json:"code"`
	Name string `json:"name"`
}

type createInvoiceRequest struct {
	CurrencyType string `json:"currency_type"`
	Asset        string `json:"asset"`
	Amount       string `json:"amount"`
	Description  string `json:"description,omitempty"`
	Payload      string `json:"payload,omitempty"`
	PaidBtnName  string `json:"paid_btn_name,omitempty"`
	PaidBtnURL   string `json:"paid_btn_url,omitempty"`
	ExpiresIn    int64  `json:"expires_in,omitempty"`
}

type invoice struct {
	InvoiceID     json.Number `json:"invoice_id"`
	Status        string      `json:"status"`
	Asset         string      `json:"asset"`
	Amount        string      `json:"amount"`
	Payload       string      `json:"payload"`
	BotInvoiceURL string      `json:"bot_invoice_url"`
	PayURL        string      `json:"pay_url"`
}

func (i invoice) url() string {
	if i.BotInvoiceURL != "" {
		return i.BotInvoiceURL
	}
	return i.PayURL
}

type invoicesResult struct {
	Items []invoice `json:"items"`
}

type exchangeRate struct {
	IsValid bool   `json:"is_valid"`
	Source  string `json:"source"`
	Target  string `json:"target"`
	Rate    string `json:"rate"`
}
