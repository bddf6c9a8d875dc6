package models

const (
	// ChannelTelegram and ChannelWhatsApp scope session keys per transport.
	ChannelTelegram = "telegram"
	ChannelWhatsApp = "whatsapp"
)

const (
	// DefaultSessionTTL время жизни сессии диалога в Redis
	DefaultSessionTTL = 24 * 60 * 60 // 24 часа в секундах

	// ReminderHour час, в который отправляются напоминания
	ReminderHour = 8

	// DefaultReminderDays сколько дней до заезда напоминать
	DefaultReminderDays = 2

	// DefaultIcalPollMinutes интервал опроса календаря бронирований
	DefaultIcalPollMinutes = 15

	// RateLimitMessages количество сообщений в окне
	RateLimitMessages = 20

	// RateLimitWindow окно ограничения частоты сообщений
	RateLimitWindow = 60 // 1 минута в секундах
)

const (
	PaymentMethodTransfer = "Überweisung"
)
