package support

import (
	"context"
	"errors"
	"fmt"
	"strconv"

	"github.com/N1seb/Render/internal/domain"
	"github.com/N1seb/Render/internal/usecases/session"
	"github.com/N1seb/Render/internal/usecases/texts"
)

// Submit сообщение пользователя: дописывается в открытое обращение или открывает новое,
// затем рассылается всем операторам
func (s *Service) Submit(ctx context.Context, msg Message) (*domain.SupportRequest, error) {
	request, err := s.SupportRepo.GetOpenByChat(ctx, msg.ChatID)
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			return nil, err
		}

		request = &domain.SupportRequest{ChatID: msg.ChatID, Text: msg.Text}
		if request.Text == "" {
			request.Text = "[" + string(msg.kind()) + "]"
		}
		if err := s.SupportRepo.CreateRequest(ctx, request); err != nil {
			return nil, err
		}
		s.Log.Info("support request opened", "request_id", request.ID, "chat_id", msg.ChatID)
	}

	if err := s.record(ctx, request.ID, msg, nil, domain.DirectionUserToOperator); err != nil {
		return nil, err
	}

	s.fanOut(ctx, request, msg)
	return request, nil
}

// fanOut доставка операторам. Недоставленные сообщения только логируются
func (s *Service) fanOut(ctx context.Context, request *domain.SupportRequest, msg Message) {
	operators, err := s.OperatorChatIDs(ctx)
	if err != nil {
		s.Log.Error("failed to list operators for fan-out", "error", err, "request_id", request.ID)
		return
	}

	requestArg := strconv.FormatInt(request.ID, 10)
	keyboard := domain.InlineKeyboard{{
		{Text: texts.ButtonReply, CallbackData: session.MustEncode(session.ActionReply, requestArg)},
		{Text: texts.ButtonClose, CallbackData: session.MustEncode(session.ActionCloseTicket, requestArg)},
	}}
	text := texts.FormatSupportForOperator(request.ID, msg.From, msg.ChatID, msg.Text)

	delivered := 0
	for _, operatorID := range operators {
		if _, err := s.Gateway.SendMessageWithKeyboard(ctx, operatorID, text, keyboard); err != nil {
			s.Log.Warn("failed to deliver support message to operator",
				"error", err,
				"operator_chat_id", operatorID,
				"request_id", request.ID,
			)
			continue
		}
		if msg.hasAttachment() {
			if err := s.Gateway.SendMedia(ctx, operatorID, msg.kind(), msg.FileID, ""); err != nil {
				s.Log.Warn("failed to forward attachment to operator",
					"error", err,
					"operator_chat_id", operatorID,
					"request_id", request.ID,
				)
			}
		}
		delivered++
	}

	if delivered == 0 {
		s.Log.Warn("support message reached no operator", "request_id", request.ID, "operators", len(operators))
		return
	}
	s.Log.Debug("support message fanned out", "request_id", request.ID, "delivered", delivered)
}

// Reply ответ оператора пользователю
func (s *Service) Reply(ctx context.Context, operatorChatID, requestID int64, msg Message) (*domain.SupportRequest, error) {
	if err := s.requireOperator(ctx, operatorChatID); err != nil {
		return nil, err
	}

	request, err := s.SupportRepo.GetRequest(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if request.Status != domain.SupportStatusOpen {
		return request, fmt.Errorf("request %d: %w", requestID, ErrRequestClosed)
	}

	msg.ChatID = operatorChatID
	userChatID := request.ChatID
	if err := s.record(ctx, request.ID, msg, &userChatID, domain.DirectionOperatorToUser); err != nil {
		return nil, err
	}

	text := texts.FormatReplyForUser(request.ID, msg.Text)
	if msg.hasAttachment() {
		err = s.Gateway.SendMedia(ctx, userChatID, msg.kind(), msg.FileID, text)
	} else {
		_, err = s.Gateway.SendMessage(ctx, userChatID, text)
	}
	if err != nil {
		s.Log.Warn("failed to deliver operator reply", "error", err, "request_id", request.ID, "chat_id", userChatID)
		return request, fmt.Errorf("deliver reply: %w", err)
	}

	s.Log.Info("operator replied", "request_id", request.ID, "operator_chat_id", operatorChatID)
	return request, nil
}

// Close закрывает обращение и сообщает пользователю. false, если оно уже было закрыто
func (s *Service) Close(ctx context.Context, operatorChatID, requestID int64) (bool, error) {
	if err := s.requireOperator(ctx, operatorChatID); err != nil {
		return false, err
	}

	request, err := s.SupportRepo.GetRequest(ctx, requestID)
	if err != nil {
		return false, err
	}

	closed, err := s.SupportRepo.Close(ctx, requestID)
	if err != nil || !closed {
		return false, err
	}

	if _, err := s.Gateway.SendMessage(ctx, request.ChatID, texts.FormatRequestClosedForUser(requestID)); err != nil {
		s.Log.Warn("failed to notify user about closed request", "error", err, "request_id", requestID)
	}

	s.Log.Info("support request closed", "request_id", requestID, "operator_chat_id", operatorChatID)
	return true, nil
}

// ListOpen страница открытых обращений, page с нуля
func (s *Service) ListOpen(ctx context.Context, operatorChatID int64, page int) (domain.Page[domain.SupportRequest], error) {
	if err := s.requireOperator(ctx, operatorChatID); err != nil {
		return domain.Page[domain.SupportRequest]{}, err
	}
	if page < 0 {
		page = 0
	}

	offset := page * s.pageSize
	items, total, err := s.SupportRepo.ListOpen(ctx, offset, s.pageSize)
	if err != nil {
		return domain.Page[domain.SupportRequest]{}, err
	}

	return domain.Page[domain.SupportRequest]{
		Items:  items,
		Total:  total,
		Offset: offset,
		Limit:  s.pageSize,
	}, nil
}

func (s *Service) record(ctx context.Context, requestID int64, msg Message, to *int64, direction domain.MessageDirection) error {
	message := &domain.SupportMessage{
		RequestID:  requestID,
		FromChatID: msg.ChatID,
		ToChatID:   to,
		Direction:  direction,
		Kind:       msg.kind(),
	}
	if msg.Text != "" {
		text := msg.Text
		message.Text = &text
	}
	if msg.FileID != "" {
		fileID := msg.FileID
		message.FileID = &fileID
	}
	return s.SupportRepo.AddMessage(ctx, message)
}
