package domain

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ReferenceKind что оплачивает инвойс
type ReferenceKind string

const (
	ReferenceOrder ReferenceKind = "order"
	ReferenceCart  ReferenceKind = "cart"
)

// ReferenceToken корреляционный токен, который платёжный сервис возвращает в вебхуке.
// Формат: {kind}_{chatId}_{entityId}_{unixNano}
type ReferenceToken struct {
	Kind     ReferenceKind
	ChatID   int64
	EntityID int64
	IssuedAt int64
}

func NewReferenceToken(kind ReferenceKind, chatID, entityID int64, now time.Time) ReferenceToken {
	return ReferenceToken{
		Kind:     kind,
		ChatID:   chatID,
		EntityID: entityID,
		IssuedAt: now.UnixNano(),
	}
}

func (t ReferenceToken) String() string {
	return fmt.Sprintf("%s_%d_%d_%d", t.Kind, t.ChatID, t.EntityID, t.IssuedAt)
}

func ParseReferenceToken(s string) (ReferenceToken, error) {
	parts := strings.Split(strings.TrimSpace(s), "_")
	if len(parts) != 4 {
		return ReferenceToken{}, fmt.Errorf("%w: %q", ErrInvalidReference, s)
	}

	kind := ReferenceKind(parts[0])
	if kind != ReferenceOrder && kind != ReferenceCart {
		return ReferenceToken{}, fmt.Errorf("%w: unknown kind %q", ErrInvalidReference, parts[0])
	}

	nums := make([]int64, 3)
	for i, part := range parts[1:] {
		n, err := strconv.ParseInt(part, 10, 64)
		if err != nil {
			return ReferenceToken{}, fmt.Errorf("%w: %q", ErrInvalidReference, s)
		}
		nums[i] = n
	}

	return ReferenceToken{
		Kind:     kind,
		ChatID:   nums[0],
		EntityID: nums[1],
		IssuedAt: nums[2],
	}, nil
}
