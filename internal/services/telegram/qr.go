package telegram

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/N1seb/Render/internal/pkg/qr"
	"github.com/N1seb/Render/internal/ports/storage"
	"github.com/N1seb/Render/internal/ports/telegram"
	"github.com/N1seb/Render/internal/usecases/texts"
)

const (
	qrContentType = "image/png"
	qrURLExpiry   = 10 * time.Minute
)

// QRService рисует QR-код ссылки на оплату. С архивом PNG кладётся в S3 и
// отправляется по presigned URL, без архива или при его ошибке файлом
type QRService struct {
	Gateway telegram.IChatGateway
	Storage storage.IObjectStorage
	Size    int
	Log     *slog.Logger
}

func NewQRService(gateway telegram.IChatGateway, objectStorage storage.IObjectStorage, size int, log *slog.Logger) *QRService {
	return &QRService{
		Gateway: gateway,
		Storage: objectStorage,
		Size:    size,
		Log:     log.With("component", "payment_qr"),
	}
}

func (s *QRService) SendPaymentQR(ctx context.Context, chatID int64, invoiceID, payURL string) error {
	png, err := qr.PNG(payURL, s.Size)
	if err != nil {
		return fmt.Errorf("render qr for invoice %s: %w", invoiceID, err)
	}

	caption := texts.FormatQRCaption(invoiceID)
	filename := "invoice-" + invoiceID + ".png"

	if s.Storage != nil {
		url, err := s.archive(ctx, chatID, filename, png)
		if err == nil {
			if err = s.Gateway.SendPhotoURL(ctx, chatID, url, caption); err == nil {
				return nil
			}
		}
		s.Log.Warn("qr archive path failed, sending file", "error", err, "invoice_id", invoiceID)
	}

	if err := s.Gateway.SendPhoto(ctx, chatID, png, filename, caption); err != nil {
		return fmt.Errorf("send qr for invoice %s: %w", invoiceID, err)
	}
	return nil
}

func (s *QRService) archive(ctx context.Context, chatID int64, filename string, png []byte) (string, error) {
	path := fmt.Sprintf("qr/%d/%s", chatID, filename)
	if err := s.Storage.PutObject(ctx, path, png, qrContentType); err != nil {
		return "", err
	}
	return s.Storage.GetPresignedURL(ctx, path, qrURLExpiry)
}
