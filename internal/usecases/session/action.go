package session

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// MaxCallbackData лимит callback_data у Telegram в байтах
const MaxCallbackData = 64

var (
	ErrUnknownAction  = errors.New("unknown action")
	ErrActionArity    = errors.New("wrong number of action arguments")
	ErrActionArgument = errors.New("invalid action argument")
	ErrActionTooLong  = errors.New("callback data exceeds 64 bytes")
)

// ActionTag имя действия кнопки
type ActionTag string

const (
	ActionMenu         ActionTag = "menu"
	ActionNetwork      ActionTag = "net"
	ActionService      ActionTag = "svc"
	ActionBuyNow       ActionTag = "buy"
	ActionAddToCart    ActionTag = "add"
	ActionPayOrder     ActionTag = "pay"
	ActionCart         ActionTag = "cart"
	ActionCartRemove   ActionTag = "crm"
	ActionCartClear    ActionTag = "cclr"
	ActionCheckout     ActionTag = "chk"
	ActionCheckoutPay  ActionTag = "cpay"
	ActionProfile      ActionTag = "prof"
	ActionCancelOrder  ActionTag = "ocnl"
	ActionSupport      ActionTag = "sup"
	ActionReply        ActionTag = "rep"
	ActionCloseTicket  ActionTag = "cls"
	ActionTickets      ActionTag = "tix"
	ActionAdminPaid    ActionTag = "apd"
	ActionAdminCancel  ActionTag = "acn"
	ActionCancelDialog ActionTag = "x"
)

// arity число аргументов каждого действия. Других тегов не бывает
var arity = map[ActionTag]int{
	ActionMenu:         0,
	ActionNetwork:      1, // network
	ActionService:      2, // network, service
	ActionBuyNow:       0,
	ActionAddToCart:    0,
	ActionPayOrder:     2, // order id, asset
	ActionCart:         0,
	ActionCartRemove:   1, // item id
	ActionCartClear:    0,
	ActionCheckout:     0,
	ActionCheckoutPay:  1, // asset
	ActionProfile:      0,
	ActionCancelOrder:  1, // order id
	ActionSupport:      0,
	ActionReply:        1, // request id
	ActionCloseTicket:  1, // request id
	ActionTickets:      1, // page
	ActionAdminPaid:    1, // order id
	ActionAdminCancel:  1, // order id
	ActionCancelDialog: 0,
}

var argPattern = regexp.MustCompile(`^[A-Za-z0-9-]+$`)

// Action разобранный callback_data вида tag:arg1:arg2
type Action struct {
	Tag  ActionTag
	Args []string
}

// Arg аргумент по индексу, пустая строка если его нет
func (a Action) Arg(i int) string {
	if i < 0 || i >= len(a.Args) {
		return ""
	}
	return a.Args[i]
}

// EncodeAction собирает callback_data. Аргументы проверяются так же, как при разборе,
// поэтому закодированное всегда разбирается обратно
func EncodeAction(tag ActionTag, args ...string) (string, error) {
	want, ok := arity[tag]
	if !ok {
		return "", fmt.Errorf("%w: %q", ErrUnknownAction, tag)
	}
	if len(args) != want {
		return "", fmt.Errorf("%w: %s wants %d, got %d", ErrActionArity, tag, want, len(args))
	}
	for _, arg := range args {
		if !argPattern.MatchString(arg) {
			return "", fmt.Errorf("%w: %q", ErrActionArgument, arg)
		}
	}

	data := strings.Join(append([]string{string(tag)}, args...), ":")
	if len(data) > MaxCallbackData {
		return "", fmt.Errorf("%w: %d", ErrActionTooLong, len(data))
	}
	return data, nil
}

// MustEncode для кнопок с заведомо корректными аргументами
func MustEncode(tag ActionTag, args ...string) string {
	data, err := EncodeAction(tag, args...)
	if err != nil {
		panic(err)
	}
	return data
}

// ParseAction разбирает callback_data. Неизвестный тег, лишние или недостающие
// аргументы и посторонние символы дают ошибку
func ParseAction(data string) (Action, error) {
	if len(data) > MaxCallbackData {
		return Action{}, fmt.Errorf("%w: %d", ErrActionTooLong, len(data))
	}

	parts := strings.Split(data, ":")
	tag := ActionTag(parts[0])
	want, ok := arity[tag]
	if !ok {
		return Action{}, fmt.Errorf("%w: %q", ErrUnknownAction, parts[0])
	}

	args := parts[1:]
	if len(args) != want {
		return Action{}, fmt.Errorf("%w: %s wants %d, got %d", ErrActionArity, tag, want, len(args))
	}
	for _, arg := range args {
		if !argPattern.MatchString(arg) {
			return Action{}, fmt.Errorf("%w: %q", ErrActionArgument, arg)
		}
	}

	return Action{Tag: tag, Args: args}, nil
}
