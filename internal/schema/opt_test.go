package schema

import (
	"encoding/json"
	"testing"
)

// TestOpt_ZeroValue — нулевое значение Opt означает «не задано».
func TestOpt_ZeroValue(t *testing.T) {
	var o Opt[string]

	if o.IsSet() {
		t.Error("нулевой Opt не должен быть задан")
	}
	if !o.IsZero() {
		t.Error("IsZero() нулевого Opt должен быть true")
	}
	if v, ok := o.Get(); ok || v != "" {
		t.Errorf("Get() нулевого Opt = (%q, %v), ожидалось (\"\", false)", v, ok)
	}
	if got := o.GetOr("fallback"); got != "fallback" {
		t.Errorf("GetOr() = %q, ожидалось fallback", got)
	}
}

// TestOpt_SetAndClear — переходы между состояниями.
func TestOpt_SetAndClear(t *testing.T) {
	var o Opt[int64]

	o.Set(42)
	if !o.IsSet() {
		t.Fatal("после Set поле должно быть задано")
	}
	if v, _ := o.Get(); v != 42 {
		t.Errorf("Get() = %d, ожидалось 42", v)
	}

	o.Clear()
	if o.IsSet() {
		t.Error("после Clear поле не должно быть задано")
	}
}

// TestOpt_FalsyValues — ложные значения (false, 0, "") отличимы от «не задано».
func TestOpt_FalsyValues(t *testing.T) {
	var b Opt[bool]
	b.Set(false)
	if !b.IsSet() {
		t.Error("Opt[bool] со значением false должен считаться заданным")
	}

	var n Opt[int64]
	n.Set(0)
	if !n.IsSet() {
		t.Error("Opt[int64] со значением 0 должен считаться заданным")
	}

	var s Opt[string]
	s.Set("")
	if !s.IsSet() {
		t.Error("Opt[string] с пустой строкой должен считаться заданным")
	}
}

// TestOpt_MarshalJSON — сериализация значения и null для незаданного.
func TestOpt_MarshalJSON(t *testing.T) {
	data, err := json.Marshal(Some("гном"))
	if err != nil {
		t.Fatalf("Marshal вернул ошибку: %v", err)
	}
	if string(data) != `"гном"` {
		t.Errorf("Marshal = %s, ожидалось %q", data, `"гном"`)
	}

	var empty Opt[string]
	data, err = json.Marshal(empty)
	if err != nil {
		t.Fatalf("Marshal вернул ошибку: %v", err)
	}
	if string(data) != "null" {
		t.Errorf("Marshal незаданного = %s, ожидалось null", data)
	}
}

// TestOpt_MarshalJSON_Omitzero — незаданные поля исключаются из объекта.
func TestOpt_MarshalJSON_Omitzero(t *testing.T) {
	type rec struct {
		Name Opt[string] `json:"name,omitzero"`
		Race Opt[string] `json:"race,omitzero"`
	}

	r := rec{Name: Some("Торн")}
	data, err := json.Marshal(r)
	if err != nil {
		t.Fatalf("Marshal вернул ошибку: %v", err)
	}
	if string(data) != `{"name":"Торн"}` {
		t.Errorf("Marshal = %s, незаданное поле не исключено", data)
	}
}

// TestOpt_UnmarshalJSON — десериализация значения.
func TestOpt_UnmarshalJSON(t *testing.T) {
	var o Opt[int64]
	if err := json.Unmarshal([]byte("7"), &o); err != nil {
		t.Fatalf("Unmarshal вернул ошибку: %v", err)
	}
	if v, ok := o.Get(); !ok || v != 7 {
		t.Errorf("Get() = (%d, %v), ожидалось (7, true)", v, ok)
	}
}

// TestOpt_UnmarshalJSON_Null — JSON null эквивалентен отсутствию поля.
func TestOpt_UnmarshalJSON_Null(t *testing.T) {
	o := Some("старое")
	if err := json.Unmarshal([]byte("null"), &o); err != nil {
		t.Fatalf("Unmarshal вернул ошибку: %v", err)
	}
	if o.IsSet() {
		t.Error("после Unmarshal(null) поле должно быть незаданным")
	}
}

// TestOpt_UnmarshalJSON_TypeMismatch — несовместимый тип даёт ошибку.
func TestOpt_UnmarshalJSON_TypeMismatch(t *testing.T) {
	var o Opt[int64]
	if err := json.Unmarshal([]byte(`"не число"`), &o); err == nil {
		t.Error("ожидалась ошибка при десериализации строки в Opt[int64]")
	}
}

// TestOpt_Scan — sql.Scanner: значение, NULL и числовая конвертация.
func TestOpt_Scan(t *testing.T) {
	var s Opt[string]
	if err := s.Scan("эльф"); err != nil {
		t.Fatalf("Scan вернул ошибку: %v", err)
	}
	if v, _ := s.Get(); v != "эльф" {
		t.Errorf("Get() = %q, ожидалось эльф", v)
	}

	// SQL NULL оставляет поле незаданным
	if err := s.Scan(nil); err != nil {
		t.Fatalf("Scan(nil) вернул ошибку: %v", err)
	}
	if s.IsSet() {
		t.Error("после Scan(nil) поле должно быть незаданным")
	}

	// int64 из БД в Opt[int]
	var n Opt[int]
	if err := n.Scan(int64(13)); err != nil {
		t.Fatalf("Scan(int64) вернул ошибку: %v", err)
	}
	if v, _ := n.Get(); v != 13 {
		t.Errorf("Get() = %d, ожидалось 13", v)
	}

	// Несовместимый тип
	var b Opt[bool]
	if err := b.Scan("строка"); err == nil {
		t.Error("ожидалась ошибка при сканировании строки в Opt[bool]")
	}
}
