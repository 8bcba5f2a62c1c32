package domain

import (
	"errors"
	"fmt"
)

var (
	ErrNotFound          = errors.New("not found")
	ErrInvalidQuantity   = errors.New("invalid quantity")
	ErrInvalidLink       = errors.New("invalid link")
	ErrUnknownService    = errors.New("unknown service")
	ErrUnknownInvoice    = errors.New("unknown invoice")
	ErrInvalidTransition = errors.New("invalid order transition")
	ErrRateLookup        = errors.New("rate lookup failed")
	ErrEmptyCart         = errors.New("cart is empty")
	ErrForbidden         = errors.New("forbidden")
	ErrInvalidAction     = errors.New("invalid action")
	ErrInvalidReference  = errors.New("invalid reference token")
	ErrUnsupportedAsset  = errors.New("unsupported asset")
)

// GatewayError ошибка платёжного шлюза: инвойс не создан и маппинг сохранять нельзя
type GatewayError struct {
	Op         string
	StatusCode int
	Err        error
}

func (e *GatewayError) Error() string {
	if e.StatusCode > 0 {
		return fmt.Sprintf("payment gateway %s [status=%d]: %v", e.Op, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("payment gateway %s: %v", e.Op, e.Err)
}

func (e *GatewayError) Unwrap() error {
	return e.Err
}

func IsGatewayError(err error) bool {
	var gwErr *GatewayError
	return errors.As(err, &gwErr)
}

// BusinessError ошибка бизнес-логики с текстом для пользователя, уже залогирована в UseCase
type BusinessError struct {
	Err     error
	Message string
}

func (e *BusinessError) Error() string {
	if e.Message != "" {
		return e.Message + ": " + e.Err.Error()
	}
	return e.Err.Error()
}

func (e *BusinessError) Unwrap() error {
	return e.Err
}

func WrapBusinessError(err error, message string) error {
	if err == nil {
		return nil
	}
	return &BusinessError{Err: err, Message: message}
}

func IsBusinessError(err error) bool {
	var businessErr *BusinessError
	return errors.As(err, &businessErr)
}

// UserMessage достаёт текст для пользователя, если он есть
func UserMessage(err error) (string, bool) {
	var businessErr *BusinessError
	if errors.As(err, &businessErr) && businessErr.Message != "" {
		return businessErr.Message, true
	}
	return "", false
}
