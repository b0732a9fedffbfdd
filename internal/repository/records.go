// records.go — generic-репозиторий записей поверх дескриптора сущности.
// Авторизация чтения выражена предикатом видимости в WHERE: запись видна
// субъекту, если принадлежит его кампании и при этом публична либо
// создана им. Невидимая и несуществующая записи неразличимы (ErrNotFound).
package repository

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/grimwald/lorelog/internal/domain/model"
	"github.com/grimwald/lorelog/internal/schema"
)

// ListQuery — параметры списочной выборки.
type ListQuery struct {
	// Filters — внешнее имя поля → значение для фильтра по равенству.
	// Имя вне схемы сущности → schema.ErrInvalidField.
	Filters map[string]any
	// OrderBy — внешнее имя поля сортировки ("" — первичный ключ).
	OrderBy string
	// Desc — сортировка по убыванию.
	Desc bool
}

// RecordRepository — персистентность одного типа сущности.
// Не знает ничего о конкретной сущности: состав колонок, алиасы и
// summary-проекция приходят из дескриптора.
type RecordRepository struct {
	desc *schema.Descriptor
	db   DBTX
}

// NewRecordRepository создаёт репозиторий для дескриптора сущности.
func NewRecordRepository(desc *schema.Descriptor, db DBTX) *RecordRepository {
	return &RecordRepository{desc: desc, db: db}
}

// WithTx возвращает копию репозитория, выполняющую запросы в tx.
func (r *RecordRepository) WithTx(tx DBTX) *RecordRepository {
	return &RecordRepository{desc: r.desc, db: tx}
}

// Descriptor возвращает дескриптор сущности репозитория.
func (r *RecordRepository) Descriptor() *schema.Descriptor {
	return r.desc
}

// Insert вставляет запись; назначенный БД ключ записывается обратно.
func (r *RecordRepository) Insert(ctx context.Context, rec any) error {
	if err := r.desc.Insert(ctx, r.db, rec); err != nil {
		if errors.Is(err, schema.ErrConflict) {
			return fmt.Errorf("%w: %s", ErrConflict, conflictDetail(r.desc))
		}
		return err
	}
	return nil
}

// GetVisible читает запись целиком под предикатом видимости.
// Запись вне кампании, чужая приватная или несуществующая → ErrNotFound.
func (r *RecordRepository) GetVisible(ctx context.Context, id any, p model.Principal, rec any) error {
	cols, err := r.desc.Columns(r.desc.StoredFields()...)
	if err != nil {
		return err
	}
	args := []any{id}
	where := fmt.Sprintf("%s = $1", r.desc.PKColumn())
	where += r.visibility(p, &args)

	query := fmt.Sprintf("SELECT %s FROM %s WHERE %s",
		strings.Join(cols, ", "), r.desc.Table(), where)

	targets, err := r.desc.ScanTargets(rec)
	if err != nil {
		return err
	}
	if err := r.db.QueryRow(ctx, query, args...).Scan(targets...); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		return fmt.Errorf("ошибка чтения %s: %w", r.desc.Table(), err)
	}
	return nil
}

// GetOwned читает запись под предикатом владения: только кампания
// субъекта и только его собственные записи. Используется перед
// мутациями; чужая запись неотличима от несуществующей.
func (r *RecordRepository) GetOwned(ctx context.Context, id any, p model.Principal, rec any, fields ...string) error {
	if len(fields) == 0 {
		fields = r.desc.StoredFields()
	}
	cols, err := r.desc.Columns(fields...)
	if err != nil {
		return err
	}
	args := []any{id}
	where := fmt.Sprintf("%s = $1", r.desc.PKColumn())
	if r.desc.HasField("campaign_id") {
		args = append(args, p.CampaignID)
		where += fmt.Sprintf(" AND campaign_id = $%d", len(args))
	}
	args = append(args, p.UserID)
	where += fmt.Sprintf(" AND creator_id = $%d", len(args))

	query := fmt.Sprintf("SELECT %s FROM %s WHERE %s",
		strings.Join(cols, ", "), r.desc.Table(), where)

	targets, err := r.desc.ScanTargets(rec, fields...)
	if err != nil {
		return err
	}
	if err := r.db.QueryRow(ctx, query, args...).Scan(targets...); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ErrNotFound
		}
		return fmt.Errorf("ошибка чтения %s: %w", r.desc.Table(), err)
	}
	return nil
}

// ListVisible возвращает summary-проекции видимых записей.
// Фильтры — только по равенству; имя поля валидируется через схему.
func (r *RecordRepository) ListVisible(ctx context.Context, p model.Principal, q ListQuery) ([]any, error) {
	fields := r.desc.Summary()
	cols, err := r.desc.Columns(fields...)
	if err != nil {
		return nil, err
	}

	var args []any
	clauses := []string{"TRUE"}
	vis := r.visibility(p, &args)
	if vis != "" {
		clauses[0] = strings.TrimPrefix(vis, " AND ")
	}

	// Детерминированный порядок параметров при итерации map.
	names := make([]string, 0, len(q.Filters))
	for name := range q.Filters {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		col, err := r.desc.Column(name)
		if err != nil {
			return nil, err
		}
		args = append(args, q.Filters[name])
		clauses = append(clauses, fmt.Sprintf("%s = $%d", col, len(args)))
	}

	orderCol := r.desc.PKColumn()
	if q.OrderBy != "" {
		if orderCol, err = r.desc.Column(q.OrderBy); err != nil {
			return nil, err
		}
	}
	order := orderCol
	if q.Desc {
		order += " DESC"
	}

	query := fmt.Sprintf("SELECT %s FROM %s WHERE %s ORDER BY %s",
		strings.Join(cols, ", "), r.desc.Table(), strings.Join(clauses, " AND "), order)

	rows, err := r.db.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("ошибка выборки из %s: %w", r.desc.Table(), err)
	}
	defer rows.Close()

	var out []any
	for rows.Next() {
		rec := r.desc.New()
		targets, err := r.desc.ScanTargets(rec, fields...)
		if err != nil {
			return nil, err
		}
		if err := rows.Scan(targets...); err != nil {
			return nil, fmt.Errorf("ошибка чтения строки %s: %w", r.desc.Table(), err)
		}
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ошибка выборки из %s: %w", r.desc.Table(), err)
	}
	return out, nil
}

// UpdateSparse применяет разреженный PATCH по первичному ключу записи.
// Проверка владения выполняется отдельным GetOwned до вызова.
func (r *RecordRepository) UpdateSparse(ctx context.Context, rec any) error {
	if err := r.desc.Update(ctx, r.db, rec); err != nil {
		if errors.Is(err, schema.ErrConflict) {
			return fmt.Errorf("%w: %s", ErrConflict, conflictDetail(r.desc))
		}
		return err
	}
	return nil
}

// visibility дописывает предикат видимости к WHERE, добавляя
// параметры в args. Сущность без колонок владения видна всем.
func (r *RecordRepository) visibility(p model.Principal, args *[]any) string {
	var sb strings.Builder
	if r.desc.HasField("campaign_id") {
		*args = append(*args, p.CampaignID)
		fmt.Fprintf(&sb, " AND campaign_id = $%d", len(*args))
	}
	if r.desc.HasField("is_public") && r.desc.HasField("creator_id") {
		*args = append(*args, p.UserID)
		fmt.Fprintf(&sb, " AND (is_public OR creator_id = $%d)", len(*args))
	}
	return sb.String()
}

// conflictDetail возвращает сообщение конфликта уникальности сущности.
func conflictDetail(desc *schema.Descriptor) string {
	if msg := desc.ConflictMessage(); msg != "" {
		return msg
	}
	return desc.Table()
}
