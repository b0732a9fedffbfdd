package model

// Relation — строка many-to-many связи двух сущностей с собственными
// атрибутами и собственной видимостью, независимой от концов связи.
// В ответах primary_id — якорная сторона запроса, relation_id —
// противоположная, relation_name гидрируется из её таблицы.
type Relation struct {
	PrimaryID    int64  `json:"primary_id"`
	RelationID   int64  `json:"relation_id"`
	RelationName string `json:"relation_name"`
	Role         string `json:"role"`
	Reputation   int64  `json:"reputation"`
	IsPublic     bool   `json:"is_public"`
	CreatorID    string `json:"creator_id"`
}

// RelationAttrs — атрибуты создаваемой связи из payload запроса.
type RelationAttrs struct {
	Role       string `json:"role"`
	Reputation int64  `json:"reputation"`
	IsPublic   bool   `json:"is_public"`
}
