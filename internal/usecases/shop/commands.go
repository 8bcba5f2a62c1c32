package shop

import (
	"context"
	"strconv"
	"strings"

	"github.com/N1seb/Render/internal/domain"
	"github.com/N1seb/Render/internal/usecases/texts"
)

func (s *Service) HandleCommand(ctx context.Context, user *domain.User, command, args string) error {
	switch command {
	case "start", "menu":
		return s.HandleStart(ctx, user)
	case "cancel":
		return s.HandleCancel(ctx, user)
	case "cart":
		return s.showCart(ctx, user.ChatID, 0)
	case "orders":
		if s.Admin.IsAdmin(user.ChatID) {
			return s.handleRecentOrders(ctx, user, args)
		}
		return s.showProfile(ctx, user.ChatID, 0)
	case "support":
		return s.startSupport(ctx, user.ChatID)
	case "addop":
		return s.handleAddOperator(ctx, user, args)
	case "delop":
		return s.handleRemoveOperator(ctx, user, args)
	case "ops":
		return s.handleListOperators(ctx, user)
	case "tickets":
		return s.handleTickets(ctx, user, args)
	default:
		return s.sendMessage(ctx, user.ChatID, texts.FormatUnknownCommand(command))
	}
}

// HandleStart сбрасывает диалог и показывает главное меню
func (s *Service) HandleStart(ctx context.Context, user *domain.User) error {
	s.Sessions.Reset(user.ChatID)
	return s.sendKeyboard(ctx, user.ChatID, texts.Start, s.mainMenu())
}

func (s *Service) HandleCancel(ctx context.Context, user *domain.User) error {
	if s.Sessions.Get(user.ChatID).IsIdle() {
		return s.sendMessage(ctx, user.ChatID, texts.NothingToCancel)
	}
	s.Sessions.Reset(user.ChatID)
	return s.sendKeyboard(ctx, user.ChatID, texts.Cancelled, s.mainMenu())
}

func (s *Service) handleAddOperator(ctx context.Context, user *domain.User, args string) error {
	if !s.Admin.IsAdmin(user.ChatID) {
		return s.sendMessage(ctx, user.ChatID, texts.NotAdmin)
	}

	fields := strings.Fields(args)
	if len(fields) == 0 {
		return s.sendMessage(ctx, user.ChatID, texts.AddOpUsage)
	}
	chatID, err := strconv.ParseInt(fields[0], 10, 64)
	if err != nil {
		return s.sendMessage(ctx, user.ChatID, texts.AddOpUsage)
	}

	created, err := s.Admin.AddOperator(ctx, user.ChatID, chatID, strings.Join(fields[1:], " "))
	if err != nil {
		return s.fail(ctx, user.ChatID, err)
	}
	return s.sendMessage(ctx, user.ChatID, texts.FormatOperatorAdded(chatID, created))
}

func (s *Service) handleRemoveOperator(ctx context.Context, user *domain.User, args string) error {
	if !s.Admin.IsAdmin(user.ChatID) {
		return s.sendMessage(ctx, user.ChatID, texts.NotAdmin)
	}

	chatID, err := strconv.ParseInt(strings.TrimSpace(args), 10, 64)
	if err != nil {
		return s.sendMessage(ctx, user.ChatID, texts.DelOpUsage)
	}

	removed, err := s.Admin.RemoveOperator(ctx, user.ChatID, chatID)
	if err != nil {
		return s.fail(ctx, user.ChatID, err)
	}
	return s.sendMessage(ctx, user.ChatID, texts.FormatOperatorRemoved(chatID, removed))
}

func (s *Service) handleListOperators(ctx context.Context, user *domain.User) error {
	if !s.Admin.IsAdmin(user.ChatID) {
		return s.sendMessage(ctx, user.ChatID, texts.NotAdmin)
	}

	operators, err := s.Admin.ListOperators(ctx, user.ChatID)
	if err != nil {
		return s.fail(ctx, user.ChatID, err)
	}
	if len(operators) == 0 {
		return s.sendMessage(ctx, user.ChatID, texts.NoOperators)
	}
	return s.sendMessage(ctx, user.ChatID, texts.FormatOperators(operators))
}

func (s *Service) handleRecentOrders(ctx context.Context, user *domain.User, args string) error {
	limit := 0
	if args = strings.TrimSpace(args); args != "" {
		n, err := strconv.Atoi(args)
		if err != nil || n <= 0 {
			return s.sendMessage(ctx, user.ChatID, texts.OrdersUsage)
		}
		limit = n
	}

	list, err := s.Admin.RecentOrders(ctx, user.ChatID, limit)
	if err != nil {
		return s.fail(ctx, user.ChatID, err)
	}
	if len(list) == 0 {
		return s.sendMessage(ctx, user.ChatID, texts.NoRecentOrders)
	}
	return s.sendKeyboard(ctx, user.ChatID, texts.FormatRecentOrders(list), adminOrdersKeyboard(list))
}

// handleTickets страницы с единицы для людей, внутри с нуля
func (s *Service) handleTickets(ctx context.Context, user *domain.User, args string) error {
	page := 0
	if args = strings.TrimSpace(args); args != "" {
		n, err := strconv.Atoi(args)
		if err != nil || n <= 0 {
			return s.sendMessage(ctx, user.ChatID, texts.TicketsUsage)
		}
		page = n - 1
	}
	return s.showTickets(ctx, user.ChatID, 0, page)
}

func (s *Service) showTickets(ctx context.Context, chatID, messageID int64, page int) error {
	list, err := s.Support.ListOpen(ctx, chatID, page)
	if err != nil {
		return s.fail(ctx, chatID, err)
	}
	if len(list.Items) == 0 {
		return s.sendMessage(ctx, chatID, texts.TicketsEmpty)
	}
	return s.show(ctx, chatID, messageID, texts.FormatTickets(list), ticketsKeyboard(list, page))
}
