package texts

const (
	Start = "Привет! Здесь можно заказать подписчиков, просмотры, лайки и комментарии " +
		"для Telegram, Instagram, TikTok и YouTube. Оплата в криптовалюте через CryptoBot.\n\n" +
		"Выберите соцсеть:"
	MainMenu = "Главное меню. Выберите соцсеть:"

	ButtonCart     = "🛒 Корзина"
	ButtonProfile  = "📦 Мои заказы"
	ButtonSupport  = "💬 Поддержка"
	ButtonBack     = "⬅️ Назад"
	ButtonMenu     = "🏠 Меню"
	ButtonCancel   = "✖️ Отмена"
	ButtonBuyNow   = "💳 Оплатить сейчас"
	ButtonAddCart  = "➕ В корзину"
	ButtonCheckout = "💳 Оформить"
	ButtonClear    = "🗑 Очистить"
	ButtonPay      = "Оплатить"
	ButtonReply    = "✍️ Ответить"
	ButtonClose    = "✅ Закрыть"
	ButtonPrev     = "◀️"
	ButtonNext     = "▶️"

	AskLink = "Пришлите ссылку на аккаунт или публикацию (начинается с http:// или https://):"

	InvalidLink = "Это не похоже на ссылку. Пришлите ссылку, начинающуюся с http:// или https://:"

	ChooseAsset = "Выберите валюту оплаты:"

	InvoiceFailed = "Не удалось создать счёт. Попробуйте ещё раз чуть позже или напишите в поддержку."

	UnsupportedAsset = "Эта валюта не поддерживается, выберите другую."

	CartEmpty   = "Корзина пуста. Выберите услугу в меню."
	CartCleared = "Корзина очищена."
	ItemRemoved = "Позиция удалена."

	NoOrders = "У вас пока нет заказов."

	Cancelled       = "Действие отменено."
	NothingToCancel = "Нечего отменять."

	UnknownInput    = "Не понял сообщение. Воспользуйтесь меню:"
	TooManyRequests = "Слишком много запросов, подождите немного."
	GenericError    = "Что-то пошло не так. Попробуйте ещё раз или напишите в поддержку."
	ButtonExpired   = "Кнопка устарела, откройте меню заново."
	OrderNotFound   = "Заказ не найден."
	OrderNotPayable = "Заказ уже оплачен или отменён."
	ItemNotFound    = "Позиции уже нет в корзине."

	SupportPrompt = "Опишите проблему одним сообщением. Можно приложить фото, документ, " +
		"голосовое, аудио или видео."
	SupportUnsupportedContent = "Такое вложение не поддерживается. Пришлите текст, фото, документ, голосовое, аудио или видео."
	ReplySent                 = "Ответ отправлен."
	TicketsEmpty              = "Открытых обращений нет."
	RequestAlreadyClosed      = "Обращение уже закрыто."

	NotOperator = "Команда доступна только операторам."
	NotAdmin    = "Команда доступна только администраторам."

	AddOpUsage     = "Использование: /addop <chat_id> [имя]"
	DelOpUsage     = "Использование: /delop <chat_id>"
	NoOperators    = "Операторов нет."
	OrdersUsage    = "Использование: /orders [количество]"
	TicketsUsage   = "Использование: /tickets [страница]"
	NoRecentOrders = "Заказов нет."
)
