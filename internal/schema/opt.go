// opt.go — обёртка Opt[T] для различения «поле не задано» и «поле
// имеет ложное значение» (false, 0, пустая строка). Частичные PATCH-запросы
// опираются на это различие: незаданное поле не попадает в UPDATE.
package schema

import (
	"bytes"
	"encoding/json"
	"fmt"
	"reflect"
)

// Opt — опциональное значение поля записи.
// Нулевое значение Opt — «не задано».
type Opt[T any] struct {
	value T
	set   bool
}

// Some создаёт заданное значение.
func Some[T any](v T) Opt[T] {
	return Opt[T]{value: v, set: true}
}

// Set задаёт значение поля.
func (o *Opt[T]) Set(v T) {
	o.value = v
	o.set = true
}

// Clear сбрасывает поле в состояние «не задано».
func (o *Opt[T]) Clear() {
	var zero T
	o.value = zero
	o.set = false
}

// IsSet сообщает, задано ли значение.
func (o Opt[T]) IsSet() bool {
	return o.set
}

// Get возвращает значение и признак его наличия.
func (o Opt[T]) Get() (T, bool) {
	return o.value, o.set
}

// GetOr возвращает значение либо def, если поле не задано.
func (o Opt[T]) GetOr(def T) T {
	if !o.set {
		return def
	}
	return o.value
}

// IsZero реализует контракт json omitzero: незаданные поля
// не попадают в сериализованный ответ.
func (o Opt[T]) IsZero() bool {
	return !o.set
}

// MarshalJSON сериализует значение; незаданное поле — null
// (в ответах такие поля обычно исключаются через omitzero).
func (o Opt[T]) MarshalJSON() ([]byte, error) {
	if !o.set {
		return []byte("null"), nil
	}
	return json.Marshal(o.value)
}

// UnmarshalJSON десериализует значение. JSON null эквивалентен
// отсутствию поля: запись остаётся незаданной.
func (o *Opt[T]) UnmarshalJSON(data []byte) error {
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		o.Clear()
		return nil
	}
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	o.Set(v)
	return nil
}

// Scan реализует sql.Scanner: SQL NULL оставляет поле незаданным.
func (o *Opt[T]) Scan(src any) error {
	if src == nil {
		o.Clear()
		return nil
	}
	if v, ok := src.(T); ok {
		o.Set(v)
		return nil
	}
	// Числовые и байтовые конвертации: int64 → int, []byte → string и т.п.
	sv := reflect.ValueOf(src)
	target := reflect.TypeOf(o.value)
	if sv.Type().ConvertibleTo(target) {
		o.Set(sv.Convert(target).Interface().(T))
		return nil
	}
	return fmt.Errorf("schema: невозможно сканировать %T в Opt[%T]", src, o.value)
}

// --- внутренний доступ без знания T (для Descriptor) ---

// optValue — типонезависимый доступ к Opt-полю через reflection.
type optValue interface {
	IsSet() bool
	anyValue() any
	setAny(v any) error
	scanTarget() any
	clear()
}

func (o *Opt[T]) anyValue() any {
	return o.value
}

func (o *Opt[T]) setAny(v any) error {
	if v == nil {
		o.Clear()
		return nil
	}
	if tv, ok := v.(T); ok {
		o.Set(tv)
		return nil
	}
	sv := reflect.ValueOf(v)
	target := reflect.TypeOf(o.value)
	if sv.Type().ConvertibleTo(target) {
		o.Set(sv.Convert(target).Interface().(T))
		return nil
	}
	return fmt.Errorf("schema: значение %T несовместимо с полем %T", v, o.value)
}

func (o *Opt[T]) scanTarget() any {
	return o
}

func (o *Opt[T]) clear() {
	o.Clear()
}
