package service

import "context"

// IPaymentQRService отправляет пользователю QR-код ссылки на оплату
type IPaymentQRService interface {
	SendPaymentQR(ctx context.Context, chatID int64, invoiceID, payURL string) error
}
