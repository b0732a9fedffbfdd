// chronicle.go — запросы хроники, выходящие за рамки generic-репозитория:
// таблицы связи <тип>_chronicle, вычисление игрового времени по умолчанию
// и списочная выборка с фильтром по родительской сущности.
package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/grimwald/lorelog/internal/domain/model"
)

// ChronicleRepository — персистентность связей и выборок хроники.
type ChronicleRepository struct {
	db DBTX
}

// NewChronicleRepository создаёт репозиторий хроники.
func NewChronicleRepository(db DBTX) *ChronicleRepository {
	return &ChronicleRepository{db: db}
}

// WithTx возвращает копию репозитория, выполняющую запросы в tx.
func (r *ChronicleRepository) WithTx(tx DBTX) *ChronicleRepository {
	return &ChronicleRepository{db: tx}
}

// linkTable возвращает таблицу связи для типа родительской сущности.
// Имя таблицы интерполируется в SQL, поэтому тип проверяется по
// закрытому перечню до любой подстановки.
func linkTable(relType string) (string, error) {
	if !model.ChronicleRelationTypes[relType] {
		return "", fmt.Errorf("недопустимый тип сущности хроники: %s", relType)
	}
	return relType + "_chronicle", nil
}

// LastTick возвращает игровое время последней записи хроники кампании.
// Вторым значением — признак того, что хроника не пуста.
func (r *ChronicleRepository) LastTick(ctx context.Context, campaignID int64) (int64, bool, error) {
	var tick int64
	err := r.db.QueryRow(ctx,
		"SELECT tick FROM chronicle_entry WHERE campaign_id = $1 ORDER BY tick DESC LIMIT 1",
		campaignID).Scan(&tick)
	if errors.Is(err, pgx.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("ошибка чтения хроники: %w", err)
	}
	return tick, true, nil
}

// ParentOwned проверяет, что родительская сущность существует в кампании
// субъекта и создана им. Чужая или отсутствующая → ErrNotFound.
func (r *ChronicleRepository) ParentOwned(ctx context.Context, relType string, id int64, p model.Principal) error {
	if !model.ChronicleRelationTypes[relType] {
		return fmt.Errorf("недопустимый тип сущности хроники: %s", relType)
	}
	var one int
	query := fmt.Sprintf("SELECT 1 FROM %s WHERE id = $1 AND campaign_id = $2 AND creator_id = $3", relType)
	err := r.db.QueryRow(ctx, query, id, p.CampaignID, p.UserID).Scan(&one)
	if errors.Is(err, pgx.ErrNoRows) {
		return ErrNotFound
	}
	if err != nil {
		return fmt.Errorf("ошибка проверки родителя %s: %w", relType, err)
	}
	return nil
}

// InsertLink создаёт строку связи записи хроники с родительской сущностью.
func (r *ChronicleRepository) InsertLink(ctx context.Context, relType string, relationID int64, entryID string) error {
	table, err := linkTable(relType)
	if err != nil {
		return err
	}
	query := fmt.Sprintf("INSERT INTO %s (%s_id, chronicle_id) VALUES ($1, $2)", table, relType)
	if _, err := r.db.Exec(ctx, query, relationID, entryID); err != nil {
		return fmt.Errorf("ошибка создания связи %s: %w", table, err)
	}
	return nil
}

// RelationID возвращает id родительской сущности записи хроники.
func (r *ChronicleRepository) RelationID(ctx context.Context, relType, entryID string) (int64, error) {
	table, err := linkTable(relType)
	if err != nil {
		return 0, err
	}
	var id int64
	query := fmt.Sprintf("SELECT %s_id FROM %s WHERE chronicle_id = $1", relType, table)
	if err := r.db.QueryRow(ctx, query, entryID).Scan(&id); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return 0, ErrNotFound
		}
		return 0, fmt.Errorf("ошибка чтения связи %s: %w", table, err)
	}
	return id, nil
}

// ListVisible возвращает summary видимых записей хроники в обратном
// порядке игрового времени. relType сужает выборку по типу родителя,
// relationID (вместе с relType) — по конкретной родительской сущности.
func (r *ChronicleRepository) ListVisible(ctx context.Context, p model.Principal, relType string, relationID int64) ([]*model.ChronicleEntry, error) {
	fields := model.ChronicleEntries.Summary()
	cols, err := model.ChronicleEntries.Columns(fields...)
	if err != nil {
		return nil, err
	}
	for i := range cols {
		cols[i] = "e." + cols[i]
	}

	query := "SELECT " + strings.Join(cols, ", ") + " FROM chronicle_entry e"
	args := []any{p.CampaignID, p.UserID}
	where := " WHERE e.campaign_id = $1 AND (e.is_public OR e.creator_id = $2)"

	if relationID != 0 {
		table, err := linkTable(relType)
		if err != nil {
			return nil, err
		}
		args = append(args, relationID)
		query += fmt.Sprintf(" JOIN %s lc ON lc.chronicle_id = e.id AND lc.%s_id = $%d",
			table, relType, len(args))
	} else if relType != "" {
		if !model.ChronicleRelationTypes[relType] {
			return nil, fmt.Errorf("недопустимый тип сущности хроники: %s", relType)
		}
		args = append(args, relType)
		where += fmt.Sprintf(" AND e.relation_type = $%d", len(args))
	}

	query += where + " ORDER BY e.tick DESC"

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("ошибка выборки хроники: %w", err)
	}
	defer rows.Close()

	var out []*model.ChronicleEntry
	for rows.Next() {
		entry := &model.ChronicleEntry{}
		targets, err := model.ChronicleEntries.ScanTargets(entry, fields...)
		if err != nil {
			return nil, err
		}
		if err := rows.Scan(targets...); err != nil {
			return nil, fmt.Errorf("ошибка чтения строки хроники: %w", err)
		}
		out = append(out, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ошибка выборки хроники: %w", err)
	}
	return out, nil
}
