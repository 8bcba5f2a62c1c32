package telegram

import (
	"bytes"
	"context"
	"fmt"
	"mime/multipart"
	"net/http"
	"strconv"

	"github.com/N1seb/Render/internal/domain"
)

// SendPhoto отправляет картинку из памяти (multipart/form-data)
func (c *Client) SendPhoto(ctx context.Context, chatID int64, photo []byte, filename, caption string) error {
	var requestBody bytes.Buffer
	writer := multipart.NewWriter(&requestBody)

	if err := writer.WriteField("chat_id", strconv.FormatInt(chatID, 10)); err != nil {
		return fmt.Errorf("failed to write chat_id: %w", err)
	}
	if caption != "" {
		if err := writer.WriteField("caption", caption); err != nil {
			return fmt.Errorf("failed to write caption: %w", err)
		}
	}

	photoPart, err := writer.CreateFormFile("photo", filename)
	if err != nil {
		return fmt.Errorf("failed to create photo form file: %w", err)
	}
	if _, err := photoPart.Write(photo); err != nil {
		return fmt.Errorf("failed to write photo data: %w", err)
	}

	// Закрываем writer для завершения multipart
	if err := writer.Close(); err != nil {
		return fmt.Errorf("failed to close multipart writer: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/sendPhoto", &requestBody)
	if err != nil {
		return fmt.Errorf("telegram create request failed [chat_id=%d]: %w", chatID, err)
	}
	httpReq.Header.Set("Content-Type", writer.FormDataContentType())

	c.log.Debug("sending photo to Telegram",
		"chat_id", chatID,
		"filename", filename,
		"photo_size", len(photo),
	)

	if err := c.do(httpReq, "sendPhoto", nil); err != nil {
		c.log.Error("failed to send photo",
			"error", err,
			"chat_id", chatID,
			"filename", filename,
		)
		return err
	}
	return nil
}

// SendPhotoURL отправляет картинку по ссылке, Telegram скачивает её сам
func (c *Client) SendPhotoURL(ctx context.Context, chatID int64, photoURL, caption string) error {
	reqBody := map[string]interface{}{
		"chat_id": chatID,
		"photo":   photoURL,
	}
	if caption != "" {
		reqBody["caption"] = caption
	}

	if err := c.call(ctx, "sendPhoto", reqBody, nil); err != nil {
		c.log.Error("failed to send photo by url",
			"error", err,
			"chat_id", chatID,
		)
		return err
	}
	return nil
}

// mediaMethods метод Bot API и имя поля для каждого типа вложения
var mediaMethods = map[domain.MessageKind][2]string{
	domain.MessageKindPhoto:    {"sendPhoto", "photo"},
	domain.MessageKindDocument: {"sendDocument", "document"},
	domain.MessageKindVoice:    {"sendVoice", "voice"},
	domain.MessageKindAudio:    {"sendAudio", "audio"},
	domain.MessageKindVideo:    {"sendVideo", "video"},
}

// SendMedia пересылает вложение по file_id, текст уходит обычным сообщением
func (c *Client) SendMedia(ctx context.Context, chatID int64, kind domain.MessageKind, fileID, caption string) error {
	if kind == domain.MessageKindText || fileID == "" {
		_, err := c.SendMessage(ctx, chatID, caption)
		return err
	}

	method, ok := mediaMethods[kind]
	if !ok {
		return fmt.Errorf("unsupported media kind: %s", kind)
	}

	reqBody := map[string]interface{}{
		"chat_id": chatID,
		method[1]: fileID,
	}
	if caption != "" {
		reqBody["caption"] = caption
	}

	if err := c.call(ctx, method[0], reqBody, nil); err != nil {
		c.log.Error("failed to send media",
			"error", err,
			"chat_id", chatID,
			"kind", kind,
		)
		return err
	}
	return nil
}
