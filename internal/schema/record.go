// record.go — generic-персистентность записей через дескриптор.
// Разрешение алиасов происходит только здесь: insert/update/project
// работают с физическими колонками, всё остальное видит лишь
// внешние имена полей.
package schema

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"reflect"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
)

// DB — минимальный интерфейс выполнения SQL-запросов.
// Реализуется *pgxpool.Pool и pgx.Tx.
type DB interface {
	Exec(ctx context.Context, sql string, arguments ...any) (pgconn.CommandTag, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
}

// FromPayload заполняет запись из JSON-тела запроса.
// Ключ вне объявленных полей сущности → ErrInvalidField, до любого
// обращения к БД. JSON null эквивалентен отсутствию ключа.
// Колонка ссылки на внешний контент — серверная: присланное в payload
// значение игнорируется.
func (d *Descriptor) FromPayload(rec any, r io.Reader) error {
	rv, err := d.recordValue(rec)
	if err != nil {
		return err
	}

	var raw map[string]json.RawMessage
	dec := json.NewDecoder(r)
	if err := dec.Decode(&raw); err != nil {
		return fmt.Errorf("некорректный JSON: %w", err)
	}

	for name, data := range raw {
		f, ok := d.byName[name]
		if !ok {
			return fmt.Errorf("%w: %s", ErrInvalidField, name)
		}
		// Ссылкой на файл контента владеет контроллер ресурса;
		// значение из payload игнорируется, как и поля владения.
		if d.externalRef != nil && f == d.externalRef {
			continue
		}
		o := d.opt(rv, f)
		um, ok := o.(json.Unmarshaler)
		if !ok {
			return fmt.Errorf("schema: поле %s не десериализуемо", name)
		}
		if err := um.UnmarshalJSON(data); err != nil {
			return fmt.Errorf("поле %s: %w", name, err)
		}
	}
	return nil
}

// Insert вставляет запись. Незаданные поля исключаются из списка
// колонок (частичная вставка опирается на DEFAULT-значения БД);
// при AutoIncrement первичный ключ исключается и назначенный БД
// ключ записывается обратно через RETURNING. Нарушение уникальности
// транслируется в ErrConflict с сообщением дескриптора, прочие
// ошибки БД пробрасываются без изменений.
func (d *Descriptor) Insert(ctx context.Context, db DB, rec any) error {
	rv, err := d.recordValue(rec)
	if err != nil {
		return err
	}

	var cols []string
	var args []any
	for _, f := range d.stored {
		if f == d.pk && d.idStrategy == AutoIncrement {
			continue
		}
		o := d.opt(rv, f)
		if !o.IsSet() {
			continue
		}
		cols = append(cols, f.column)
		args = append(args, o.anyValue())
	}
	if len(cols) == 0 {
		return fmt.Errorf("schema: вставка %s без единого заданного поля", d.table)
	}

	placeholders := make([]string, len(cols))
	for i := range cols {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
	}

	query := fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		d.table, strings.Join(cols, ", "), strings.Join(placeholders, ", "))

	if d.idStrategy == AutoIncrement {
		query += " RETURNING " + d.pk.column
		pkTarget := d.opt(rv, d.pk).scanTarget()
		if err := db.QueryRow(ctx, query, args...).Scan(pkTarget); err != nil {
			return d.translateError(err)
		}
		return nil
	}

	if _, err := db.Exec(ctx, query, args...); err != nil {
		return d.translateError(err)
	}
	return nil
}

// Update выполняет разреженный PATCH: в SET попадают только поля,
// заданные на записи в данный момент. Поле без значения не трогает
// хранимое состояние — запрос, опустивший поле, никогда его не
// обнуляет. Фильтрация — по равенству первичного ключа.
func (d *Descriptor) Update(ctx context.Context, db DB, rec any) error {
	rv, err := d.recordValue(rec)
	if err != nil {
		return err
	}

	pkOpt := d.opt(rv, d.pk)
	if !pkOpt.IsSet() {
		return fmt.Errorf("schema: обновление %s без первичного ключа", d.table)
	}

	var sets []string
	var args []any
	for _, f := range d.stored {
		if f == d.pk {
			continue
		}
		o := d.opt(rv, f)
		if !o.IsSet() {
			continue
		}
		args = append(args, o.anyValue())
		sets = append(sets, fmt.Sprintf("%s = $%d", f.column, len(args)))
	}
	if len(sets) == 0 {
		// Пустой PATCH не трогает хранилище.
		return nil
	}

	args = append(args, pkOpt.anyValue())
	query := fmt.Sprintf("UPDATE %s SET %s WHERE %s = $%d",
		d.table, strings.Join(sets, ", "), d.pk.column, len(args))

	if _, err := db.Exec(ctx, query, args...); err != nil {
		return d.translateError(err)
	}
	return nil
}

// Project заполняет запись из строки со значениями в порядке
// хранимых колонок. Несовпадение арности → ErrSchemaMismatch.
func (d *Descriptor) Project(rec any, row []any) error {
	rv, err := d.recordValue(rec)
	if err != nil {
		return err
	}
	if len(row) != len(d.stored) {
		return fmt.Errorf("%w: %s ожидает %d колонок, получено %d",
			ErrSchemaMismatch, d.table, len(d.stored), len(row))
	}
	for i, f := range d.stored {
		if err := d.opt(rv, f).setAny(row[i]); err != nil {
			return fmt.Errorf("поле %s: %w", f.name, err)
		}
	}
	return nil
}

// ScanTargets возвращает scan-указатели на поля записи для заданных
// внешних имён (по умолчанию — все хранимые поля в порядке колонок).
// SQL NULL оставляет поле незаданным.
func (d *Descriptor) ScanTargets(rec any, names ...string) ([]any, error) {
	rv, err := d.recordValue(rec)
	if err != nil {
		return nil, err
	}
	if len(names) == 0 {
		names = d.StoredFields()
	}
	targets := make([]any, len(names))
	for i, name := range names {
		f, ok := d.byName[name]
		if !ok || f.computed {
			return nil, fmt.Errorf("%w: %s", ErrInvalidField, name)
		}
		targets[i] = d.opt(rv, f).scanTarget()
	}
	return targets, nil
}

// New создаёт пустую запись типа дескриптора.
func (d *Descriptor) New() any {
	return reflect.New(d.rtype).Interface()
}

// translateError классифицирует ошибку БД один раз в точке сбоя:
// нарушение уникальности → ErrConflict с сообщением дескриптора,
// всё остальное пробрасывается без повторов.
func (d *Descriptor) translateError(err error) error {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) && pgErr.Code == "23505" { // unique_violation
		if d.conflictMessage != "" {
			return fmt.Errorf("%w: %s", ErrConflict, d.conflictMessage)
		}
		return ErrConflict
	}
	return fmt.Errorf("ошибка записи в %s: %w", d.table, err)
}
