package entity

// Subscriber чат Telegram, получающий уведомления о дефектах
type Subscriber struct {
	UserID int64 // Telegram User ID
	ChatID int64 // Telegram Chat ID
	Notify bool  // Присылать ли уведомления о новых дефектах
}

// NewSubscriber создаёт подписчика с включёнными уведомлениями
func NewSubscriber(userID, chatID int64) *Subscriber {
	return &Subscriber{
		UserID: userID,
		ChatID: chatID,
		Notify: true,
	}
}

// Mute отключает уведомления
func (s *Subscriber) Mute() {
	s.Notify = false
}

// Unmute включает уведомления
func (s *Subscriber) Unmute() {
	s.Notify = true
}
