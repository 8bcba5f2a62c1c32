package domain

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"strings"
	"time"
	"unicode"

	"github.com/shopspring/decimal"
)

// InvoiceStatus статус инвойса на стороне платёжного сервиса
type InvoiceStatus string

const (
	InvoiceStatusActive  InvoiceStatus = "active"
	InvoiceStatusPaid    InvoiceStatus = "paid"
	InvoiceStatusExpired InvoiceStatus = "expired"
)

// DefaultPaidTokens статусы, которые считаются оплатой
var DefaultPaidTokens = []string{"paid", "success", "succeeded", "confirmed", "finished", "complete", "completed"}

// negations слова, отменяющие статус: "not_confirmed", "payment not finished"
var negations = map[string]struct{}{"not": {}, "no": {}, "non": {}, "un": {}}

// IsPaidStatus регистронезависимая проверка: статус разбивается на слова по
// любым небуквенным символам, и одно из слов должно совпасть с токеном целиком.
// "invoice_paid" оплата, "unpaid" и "incomplete" нет. Слово-отрицание
// перед совпадением отменяет его
func IsPaidStatus(status string, tokens []string) bool {
	words := statusWords(status)
	if len(words) == 0 {
		return false
	}

	wanted := make(map[string]struct{}, len(tokens))
	for _, token := range tokens {
		for _, w := range statusWords(token) {
			wanted[w] = struct{}{}
		}
	}

	negated := false
	for _, w := range words {
		if _, ok := negations[w]; ok {
			negated = true
			continue
		}
		if _, ok := wanted[w]; ok && !negated {
			return true
		}
		negated = false
	}
	return false
}

func statusWords(s string) []string {
	return strings.FieldsFunc(strings.ToLower(s), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r)
	})
}

// CreateInvoiceRequest запрос на создание инвойса
type CreateInvoiceRequest struct {
	Amount         decimal.Decimal
	Asset          string
	ReferenceToken string
	Description    string
	CallbackURL    string
}

// InvoiceResult успешно созданный инвойс
type InvoiceResult struct {
	InvoiceID string
	PayURL    string
	Raw       RawPayload
}

// InvoiceMapping связь внешнего инвойса с заказом или корзиной
type InvoiceMapping struct {
	InvoiceID  string     `json:"invoice_id" db:"invoice_id"`
	ChatID     int64      `json:"chat_id" db:"chat_id"`
	OrderID    *int64     `json:"order_id,omitempty" db:"order_id"`
	CartID     *int64     `json:"cart_id,omitempty" db:"cart_id"`
	OrderIDs   Int64List  `json:"order_ids" db:"order_ids"`
	RawPayload RawPayload `json:"raw_payload,omitempty" db:"raw_payload"`
	Reference  string     `json:"reference,omitempty" db:"reference"`
	CreatedAt  time.Time  `json:"created_at" db:"created_at"`
}

// IssuedReference токен, отправленный в платёжный сервис при создании инвойса.
// Для старых связок без колонки reference берётся payload из ответа сервиса
func (m *InvoiceMapping) IssuedReference() string {
	if m.Reference != "" {
		return m.Reference
	}
	if len(m.RawPayload) == 0 {
		return ""
	}

	var body struct {
		Payload string `json:"payload"`
		Result  struct {
			Payload string `json:"payload"`
		} `json:"result"`
	}
	if err := json.Unmarshal(m.RawPayload, &body); err != nil {
		return ""
	}
	if body.Payload != "" {
		return body.Payload
	}
	return body.Result.Payload
}

// MatchesReference true, только если ref совпадает с выданным токеном целиком
func (m *InvoiceMapping) MatchesReference(ref string) bool {
	issued := m.IssuedReference()
	return issued != "" && issued == strings.TrimSpace(ref)
}

// TargetOrderIDs все заказы, которые оплачивает инвойс
func (m *InvoiceMapping) TargetOrderIDs() []int64 {
	if len(m.OrderIDs) > 0 {
		return m.OrderIDs
	}
	if m.OrderID != nil {
		return []int64{*m.OrderID}
	}
	return nil
}

func (m *InvoiceMapping) Validate() error {
	if m.InvoiceID == "" {
		return fmt.Errorf("invoice id is empty")
	}
	if (m.OrderID == nil) == (m.CartID == nil) {
		return fmt.Errorf("invoice %s must reference either an order or a cart", m.InvoiceID)
	}
	if len(m.TargetOrderIDs()) == 0 {
		return fmt.Errorf("invoice %s has no orders", m.InvoiceID)
	}
	return nil
}

// Int64List список id, хранится в JSONB
type Int64List []int64

func (l *Int64List) Scan(value interface{}) error {
	bytes, ok := jsonBytes(value)
	if !ok || len(bytes) == 0 {
		*l = nil
		return nil
	}
	return json.Unmarshal(bytes, l)
}

func (l Int64List) Value() (driver.Value, error) {
	if l == nil {
		return "[]", nil
	}
	b, err := json.Marshal([]int64(l))
	if err != nil {
		return nil, err
	}
	return string(b), nil
}

// RawPayload сырое тело ответа или вебхука (JSONB)
type RawPayload json.RawMessage

func (p *RawPayload) Scan(value interface{}) error {
	bytes, ok := jsonBytes(value)
	if !ok || len(bytes) == 0 {
		*p = nil
		return nil
	}
	*p = append((*p)[:0], bytes...)
	return nil
}

func (p RawPayload) Value() (driver.Value, error) {
	if len(p) == 0 {
		return "{}", nil
	}
	if !json.Valid(p) {
		b, err := json.Marshal(string(p))
		if err != nil {
			return nil, err
		}
		return string(b), nil
	}
	return string(p), nil
}

func (p RawPayload) MarshalJSON() ([]byte, error) {
	if len(p) == 0 {
		return []byte("null"), nil
	}
	return p, nil
}

func (p *RawPayload) UnmarshalJSON(data []byte) error {
	*p = append((*p)[:0], data...)
	return nil
}

func jsonBytes(value interface{}) ([]byte, bool) {
	switch v := value.(type) {
	case []byte:
		return v, true
	case string:
		return []byte(v), true
	default:
		return nil, false
	}
}
