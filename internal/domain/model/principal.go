// Пакет model — доменные модели Lore Log: типизированные записи
// сущностей с дескрипторами схемы и модели пользователей.
package model

// Principal — разрешённый субъект аутентифицированного запроса.
// Формируется middleware из валидированных JWT claims и передаётся
// явным параметром во все контроллеры — никакого ambient-состояния.
type Principal struct {
	// UserID — непрозрачный стабильный идентификатор пользователя.
	UserID string
	// Email — адрес электронной почты из claims.
	Email string
	// Alias — отображаемое имя пользователя.
	Alias string
	// CampaignID — выбранная кампания (scope всех операций запроса).
	CampaignID int64
}
