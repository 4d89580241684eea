package service

import "fmt"

type Kind string

const (
	KindInsufficientFunds    Kind = "insufficient_funds"
	KindInsufficientHoldings Kind = "insufficient_holdings"
	KindNoPosition           Kind = "no_position"
	KindUnknownAsset         Kind = "unknown_asset"
	KindInvalidAmount        Kind = "invalid_amount"
	KindUnknownLesson        Kind = "unknown_lesson"
)

// TradeError отказ операции. Message показывается пользователю как есть.
type TradeError struct {
	Kind    Kind
	Message string
}

func (e *TradeError) Error() string { return e.Message }

// Is сравнивает по Kind, чтобы errors.Is работал с конкретными сообщениями.
func (e *TradeError) Is(target error) bool {
	t, ok := target.(*TradeError)
	return ok && t.Kind == e.Kind
}

var (
	ErrInsufficientFunds    = &TradeError{Kind: KindInsufficientFunds, Message: "Недостаточно средств для сделки"}
	ErrInsufficientHoldings = &TradeError{Kind: KindInsufficientHoldings, Message: "Недостаточно актива для продажи"}
	ErrNoPosition           = &TradeError{Kind: KindNoPosition, Message: "Нет позиции по этому активу"}
	ErrUnknownAsset         = &TradeError{Kind: KindUnknownAsset, Message: "Актив не найден в текущих данных рынка"}
	ErrInvalidAmount        = &TradeError{Kind: KindInvalidAmount, Message: "Количество и цена должны быть больше нуля"}
	ErrUnknownLesson        = &TradeError{Kind: KindUnknownLesson, Message: "Урок не найден"}
)

func tradeErrorf(kind Kind, format string, args ...any) *TradeError {
	return &TradeError{Kind: kind, Message: fmt.Sprintf(format, args...)}
}
