package admin

import (
	"context"
	"errors"
	"strconv"

	"github.com/N1seb/Render/internal/domain"
)

// AddOperator добавляет оператора. Если имя не передано, берём его из профиля пользователя
func (s *Service) AddOperator(ctx context.Context, actorID, chatID int64, name string) (bool, error) {
	if err := s.require(actorID, "add operator"); err != nil {
		return false, err
	}

	operator := &domain.Operator{ChatID: chatID, DisplayName: name}
	if user, err := s.UserRepo.GetByChatID(ctx, chatID); err == nil {
		operator.Username = user.Username
		if operator.DisplayName == "" {
			operator.DisplayName = user.DisplayName()
		}
	} else if !errors.Is(err, domain.ErrNotFound) {
		return false, err
	}
	if operator.DisplayName == "" {
		operator.DisplayName = "id" + strconv.FormatInt(chatID, 10)
	}

	created, err := s.OperatorRepo.Add(ctx, operator)
	if err != nil {
		return false, err
	}

	s.Log.Info("operator added", "actor_chat_id", actorID, "chat_id", chatID, "created", created)
	return created, nil
}

func (s *Service) RemoveOperator(ctx context.Context, actorID, chatID int64) (bool, error) {
	if err := s.require(actorID, "remove operator"); err != nil {
		return false, err
	}

	removed, err := s.OperatorRepo.Remove(ctx, chatID)
	if err != nil {
		return false, err
	}

	s.Log.Info("operator removed", "actor_chat_id", actorID, "chat_id", chatID, "removed", removed)
	return removed, nil
}

func (s *Service) ListOperators(ctx context.Context, actorID int64) ([]domain.Operator, error) {
	if err := s.require(actorID, "list operators"); err != nil {
		return nil, err
	}
	return s.OperatorRepo.List(ctx)
}
