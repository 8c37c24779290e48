package model

import "time"

type User struct {
	ID           int64     `json:"id"`
	TelegramID   int64     `json:"telegram_id"`
	Username     string    `json:"username"`
	FirstName    string    `json:"first_name"`
	LastName     string    `json:"last_name"`
	LanguageCode string    `json:"language_code"`
	APIToken     string    `json:"-"` // bearer-токен сервиса расписания, выдаётся клиникой
	CreatedAt    time.Time `json:"created_at"`
}

// IsLinked врач привязал учётную запись клиники
func (u *User) IsLinked() bool {
	return u != nil && u.APIToken != ""
}
