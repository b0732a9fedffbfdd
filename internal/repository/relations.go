// relations.go — персистентность many-to-many связей двух сущностей.
// Строка связи имеет собственные атрибуты и собственную видимость:
// приватная связь видна только субъекту, владеющему ОБОИМИ концами.
package repository

import (
	"context"
	"fmt"

	"github.com/grimwald/lorelog/internal/domain/model"
)

// Side — якорная сторона запроса к связи.
type Side int

const (
	// SideLeft — якорь слева (перечисляются правые концы).
	SideLeft Side = iota
	// SideRight — якорь справа (перечисляются левые концы).
	SideRight
)

// Endpoint — одна сторона связи: колонка в таблице связи и таблица
// сущности-конца для гидрации имени. Первичный ключ конца — id.
type Endpoint struct {
	Column     string
	Table      string
	NameColumn string
}

// RelationDescriptor — декларация таблицы связи и её концов.
type RelationDescriptor struct {
	Table string
	Left  Endpoint
	Right Endpoint
}

// CharacterFactions — связь «персонаж — фракция» (членство).
var CharacterFactions = RelationDescriptor{
	Table: "character_faction",
	Left:  Endpoint{Column: "character_id", Table: "character", NameColumn: "name"},
	Right: Endpoint{Column: "faction_id", Table: "faction", NameColumn: "name"},
}

// RelationRepository — запросы к одной таблице связи.
type RelationRepository struct {
	desc RelationDescriptor
	db   DBTX
}

// NewRelationRepository создаёт репозиторий для дескриптора связи.
func NewRelationRepository(desc RelationDescriptor, db DBTX) *RelationRepository {
	return &RelationRepository{desc: desc, db: db}
}

// Add создаёт строку связи. Повторная связь той же пары → ErrConflict.
func (r *RelationRepository) Add(ctx context.Context, leftID, rightID int64, attrs model.RelationAttrs, creatorID string) error {
	query := fmt.Sprintf(
		"INSERT INTO %s (%s, %s, role, reputation, is_public, creator_id) VALUES ($1, $2, $3, $4, $5, $6)",
		r.desc.Table, r.desc.Left.Column, r.desc.Right.Column)

	if _, err := r.db.Exec(ctx, query, leftID, rightID, attrs.Role, attrs.Reputation, attrs.IsPublic, creatorID); err != nil {
		if isUniqueViolation(err) {
			return fmt.Errorf("%w: связь уже существует", ErrConflict)
		}
		return fmt.Errorf("ошибка создания связи %s: %w", r.desc.Table, err)
	}
	return nil
}

// FindAll возвращает связи якорной записи, видимые субъекту.
// primary_id — якорь, relation_id — противоположный конец,
// relation_name гидрируется из его таблицы.
func (r *RelationRepository) FindAll(ctx context.Context, anchor Side, anchorID int64, p model.Principal) ([]model.Relation, error) {
	anchorEnd, farEnd := r.desc.Left, r.desc.Right
	farAlias := "rt"
	if anchor == SideRight {
		anchorEnd, farEnd = r.desc.Right, r.desc.Left
		farAlias = "lt"
	}

	query := fmt.Sprintf(`SELECT j.%s, j.%s, %s.%s, j.role, j.reputation, j.is_public, j.creator_id
		FROM %s j
		JOIN %s lt ON lt.id = j.%s
		JOIN %s rt ON rt.id = j.%s
		WHERE j.%s = $1 AND (j.is_public OR (lt.creator_id = $2 AND rt.creator_id = $2))
		ORDER BY %s.%s`,
		anchorEnd.Column, farEnd.Column, farAlias, farEnd.NameColumn,
		r.desc.Table,
		r.desc.Left.Table, r.desc.Left.Column,
		r.desc.Right.Table, r.desc.Right.Column,
		anchorEnd.Column,
		farAlias, farEnd.NameColumn)

	rows, err := r.db.Query(ctx, query, anchorID, p.UserID)
	if err != nil {
		return nil, fmt.Errorf("ошибка выборки связей %s: %w", r.desc.Table, err)
	}
	defer rows.Close()

	var out []model.Relation
	for rows.Next() {
		var rel model.Relation
		if err := rows.Scan(&rel.PrimaryID, &rel.RelationID, &rel.RelationName,
			&rel.Role, &rel.Reputation, &rel.IsPublic, &rel.CreatorID); err != nil {
			return nil, fmt.Errorf("ошибка чтения связи %s: %w", r.desc.Table, err)
		}
		out = append(out, rel)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ошибка выборки связей %s: %w", r.desc.Table, err)
	}
	return out, nil
}

// Remove удаляет строку связи. Удалить можно только собственную связь;
// чужая или отсутствующая → ErrNotFound.
func (r *RelationRepository) Remove(ctx context.Context, leftID, rightID int64, p model.Principal) error {
	query := fmt.Sprintf("DELETE FROM %s WHERE %s = $1 AND %s = $2 AND creator_id = $3",
		r.desc.Table, r.desc.Left.Column, r.desc.Right.Column)

	tag, err := r.db.Exec(ctx, query, leftID, rightID, p.UserID)
	if err != nil {
		return fmt.Errorf("ошибка удаления связи %s: %w", r.desc.Table, err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
