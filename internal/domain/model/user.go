package model

import "time"

// User — учётная запись. Пароль хранится как bcrypt-хэш и наружу
// не отдаётся никогда.
type User struct {
	// ID — непрозрачный uuid, назначается приложением при регистрации.
	ID string
	// Email — адрес электронной почты (уникален).
	Email string
	// Alias — отображаемое имя.
	Alias string
	// PasswordHash — bcrypt-хэш пароля.
	PasswordHash []byte
	// Active — активна ли учётная запись.
	Active bool
}

// Profile — профиль пользователя, создаётся пустым при регистрации.
type Profile struct {
	UserID   string `json:"-"`
	Image    string `json:"image"`
	Timezone string `json:"timezone"`
	Status   string `json:"status"`
}

// Campaign — кампания, scope всех lore-сущностей.
type Campaign struct {
	// ID — идентификатор кампании.
	ID int64
	// Name — название кампании.
	Name string
	// StartTick — начальное игровое время (первая запись хроники).
	StartTick int64
}

// CaptchaToken — выданный captcha-токен с ответом и временем выдачи.
// Протухшие токены вычищаются при проверке.
type CaptchaToken struct {
	ID       string
	Answer   string
	IssuedAt time.Time
}
