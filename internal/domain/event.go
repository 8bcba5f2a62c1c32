package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// InboundEventKind источник входящего события
type InboundEventKind string

const (
	InboundEventChat    InboundEventKind = "chat"
	InboundEventPayment InboundEventKind = "payment"
)

// InboundEvent единое входящее событие: апдейт чата или вебхук оплаты.
// Обработчик не знает, пришло оно из polling или из HTTP
type InboundEvent struct {
	Kind       InboundEventKind
	Update     *Update
	Payment    *PaymentEvent
	ReceivedAt time.Time
}

func NewChatEvent(update *Update) InboundEvent {
	return InboundEvent{Kind: InboundEventChat, Update: update, ReceivedAt: time.Now()}
}

func NewPaymentInboundEvent(payment *PaymentEvent) InboundEvent {
	return InboundEvent{Kind: InboundEventPayment, Payment: payment, ReceivedAt: time.Now()}
}

// ChatID id чата события, 0 для платёжных событий
func (e InboundEvent) ChatID() int64 {
	if e.Update == nil {
		return 0
	}
	return e.Update.ChatID()
}

// PaymentEvent разобранный вебхук платёжного сервиса
type PaymentEvent struct {
	WebhookEventID int64
	InvoiceID      string
	Status         string
	Reference      string
	Raw            RawPayload
}

var (
	invoiceIDKeys = []string{"invoiceId", "invoice_id", "id"}
	statusKeys    = []string{"status", "paymentStatus", "state"}
	referenceKeys = []string{"payload", "order"}
)

// ParsePaymentWebhook разбирает тело вебхука с любым набором алиасов ключей.
// Поддерживает и плоский формат, и формат Crypto Pay с вложенным объектом payload
func ParsePaymentWebhook(body []byte) (*PaymentEvent, error) {
	var root map[string]json.RawMessage
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	if err := dec.Decode(&root); err != nil {
		return nil, fmt.Errorf("invalid webhook json: %w", err)
	}

	event := &PaymentEvent{Raw: RawPayload(body)}
	fillPaymentEvent(event, root)

	// Crypto Pay: {"update_type":"invoice_paid","payload":{...invoice...}}
	if nested, ok := nestedObject(root, "payload"); ok {
		fillPaymentEvent(event, nested)
	}

	return event, nil
}

func fillPaymentEvent(event *PaymentEvent, fields map[string]json.RawMessage) {
	if event.InvoiceID == "" {
		event.InvoiceID = firstScalar(fields, invoiceIDKeys)
	}
	if event.Status == "" {
		event.Status = firstScalar(fields, statusKeys)
	}
	if event.Reference == "" {
		event.Reference = firstScalar(fields, referenceKeys)
	}
}

func nestedObject(fields map[string]json.RawMessage, key string) (map[string]json.RawMessage, bool) {
	raw, ok := fields[key]
	if !ok {
		return nil, false
	}
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || raw[0] != '{' {
		return nil, false
	}
	var nested map[string]json.RawMessage
	if err := json.Unmarshal(raw, &nested); err != nil {
		return nil, false
	}
	return nested, true
}

// firstScalar первое непустое строковое или числовое значение среди ключей
func firstScalar(fields map[string]json.RawMessage, keys []string) string {
	for _, key := range keys {
		raw, ok := fields[key]
		if !ok {
			continue
		}
		if v, ok := scalarString(raw); ok && v != "" {
			return v
		}
	}
	return ""
}

func scalarString(raw json.RawMessage) (string, bool) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return "", false
	}
	switch raw[0] {
	case '"':
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return "", false
		}
		return strings.TrimSpace(s), true
	case '{', '[', 'n':
		return "", false
	case 't', 'f':
		return "", false
	default:
		var n json.Number
		if err := json.Unmarshal(raw, &n); err != nil {
			return "", false
		}
		if i, err := strconv.ParseInt(n.String(), 10, 64); err == nil {
			return strconv.FormatInt(i, 10), true
		}
		return n.String(), true
	}
}

// WebhookEvent запись журнала входящих вебхуков
type WebhookEvent struct {
	ID          int64      `json:"id" db:"id"`
	Source      string     `json:"source" db:"source"`
	InvoiceID   *string    `json:"invoice_id,omitempty" db:"invoice_id"`
	Status      *string    `json:"status,omitempty" db:"status"`
	Payload     RawPayload `json:"payload" db:"payload"`
	Result      *string    `json:"result,omitempty" db:"result"`
	ReceivedAt  time.Time  `json:"received_at" db:"received_at"`
	ProcessedAt *time.Time `json:"processed_at,omitempty" db:"processed_at"`
}
