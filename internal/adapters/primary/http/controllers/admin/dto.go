package admin

// AddOperatorRequest запрос на добавление оператора
type AddOperatorRequest struct {
	ChatID int64  `json:"chat_id" binding:"required"`
	Name   string `json:"name"` // если пусто, берётся из профиля пользователя
}

// SetStatusRequest ручная смена статуса заказа
type SetStatusRequest struct {
	Status string `json:"status" binding:"required,oneof=paid cancelled"`
}

// ChangedResponse ответ на добавление/удаление
type ChangedResponse struct {
	OK      bool `json:"ok"`
	Changed bool `json:"changed"`
}

// ErrorResponse ошибка admin API
type ErrorResponse struct {
	OK    bool   `json:"ok"`
	Error string `json:"error"`
}
