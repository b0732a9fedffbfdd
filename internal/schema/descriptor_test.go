package schema

import (
	"errors"
	"testing"
)

// testHero — запись для тестов дескриптора: алиасы, computed-поле
// внешнего контента и неявные поля владения.
type testHero struct {
	ID         Opt[int64]  `field:"id"`
	Name       Opt[string] `field:"name"`
	Class      Opt[string] `field:"class"`
	IsPublic   Opt[bool]   `field:"is_public"`
	CreatorID  Opt[string] `field:"creator_id"`
	CampaignID Opt[int64]  `field:"campaign_id"`
	Story      Opt[string] `field:"story,computed"`
	FileName   Opt[string] `field:"external_file_name"`
}

func heroDescriptor(t *testing.T) *Descriptor {
	t.Helper()
	d, err := Build[testHero](Spec{
		Table:           "hero",
		IDStrategy:      AutoIncrement,
		Aliases:         map[string]string{"class": "primary_class"},
		Summary:         []string{"id", "name", "is_public"},
		ExternalContent: "story",
		ExternalRef:     "external_file_name",
		ConflictMessage: "герой с таким именем уже существует",
	})
	if err != nil {
		t.Fatalf("Build вернул ошибку: %v", err)
	}
	return d
}

// TestBuild_Metadata — базовые метаданные дескриптора.
func TestBuild_Metadata(t *testing.T) {
	d := heroDescriptor(t)

	if d.Table() != "hero" {
		t.Errorf("Table() = %q, ожидалось hero", d.Table())
	}
	if d.PKName() != "id" || d.PKColumn() != "id" {
		t.Errorf("PK = (%q, %q), ожидалось (id, id)", d.PKName(), d.PKColumn())
	}
	if !d.HasField("class") || d.HasField("unknown") {
		t.Error("HasField работает неверно")
	}
	if !d.HasExternalContent() {
		t.Error("ожидался внешний контент")
	}
	if d.RefField() != "external_file_name" {
		t.Errorf("RefField() = %q", d.RefField())
	}
	if d.ConflictMessage() != "герой с таким именем уже существует" {
		t.Errorf("ConflictMessage() = %q", d.ConflictMessage())
	}
}

// TestBuild_AliasColumn — алиас отображается на физическую колонку,
// внешнее имя при этом не меняется.
func TestBuild_AliasColumn(t *testing.T) {
	d := heroDescriptor(t)

	col, err := d.Column("class")
	if err != nil {
		t.Fatalf("Column вернул ошибку: %v", err)
	}
	if col != "primary_class" {
		t.Errorf("Column(class) = %q, ожидалось primary_class", col)
	}

	// Неалиасированное поле — колонка совпадает с именем
	col, err = d.Column("name")
	if err != nil || col != "name" {
		t.Errorf("Column(name) = (%q, %v)", col, err)
	}

	// computed-поле не имеет колонки
	if _, err := d.Column("story"); !errors.Is(err, ErrInvalidField) {
		t.Errorf("Column(story) = %v, ожидался ErrInvalidField", err)
	}
}

// TestBuild_StoredFields — computed-поля исключаются из хранимых.
func TestBuild_StoredFields(t *testing.T) {
	d := heroDescriptor(t)

	for _, name := range d.StoredFields() {
		if name == "story" {
			t.Error("computed-поле story попало в хранимые")
		}
	}
	if len(d.StoredFields()) != 7 {
		t.Errorf("StoredFields() вернул %d полей, ожидалось 7", len(d.StoredFields()))
	}
	if len(d.Fields()) != 8 {
		t.Errorf("Fields() вернул %d полей, ожидалось 8", len(d.Fields()))
	}
}

// TestBuild_Summary — summary-проекция.
func TestBuild_Summary(t *testing.T) {
	d := heroDescriptor(t)

	s := d.Summary()
	if len(s) != 3 || s[0] != "id" || s[1] != "name" || s[2] != "is_public" {
		t.Errorf("Summary() = %v", s)
	}

	// Без явного summary — все хранимые поля
	d2, err := Build[testHero](Spec{Table: "hero"})
	if err != nil {
		t.Fatalf("Build вернул ошибку: %v", err)
	}
	if len(d2.Summary()) != len(d2.StoredFields()) {
		t.Error("пустой summary должен означать все хранимые поля")
	}
}

// TestBuild_InvalidSpecs — нарушения декларации отвергаются на старте.
func TestBuild_InvalidSpecs(t *testing.T) {
	tests := []struct {
		name string
		spec Spec
	}{
		{"пустая таблица", Spec{}},
		{"алиас несуществующего поля", Spec{
			Table: "hero", Aliases: map[string]string{"ghost": "x"},
		}},
		{"алиас первичного ключа", Spec{
			Table: "hero", Aliases: map[string]string{"id": "hero_id"},
		}},
		{"алиас computed-поля", Spec{
			Table: "hero", Aliases: map[string]string{"story": "x"},
		}},
		{"summary вне схемы", Spec{
			Table: "hero", Summary: []string{"ghost"},
		}},
		{"контент без ссылки", Spec{
			Table: "hero", ExternalContent: "story",
		}},
		{"контент на хранимом поле", Spec{
			Table: "hero", ExternalContent: "name", ExternalRef: "external_file_name",
		}},
		{"ссылка на computed-поле", Spec{
			Table: "hero", ExternalContent: "story", ExternalRef: "story",
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := Build[testHero](tt.spec); err == nil {
				t.Error("ожидалась ошибка построения дескриптора")
			}
		})
	}
}

// TestDescriptor_GetSet — доступ к полям по внешнему имени.
func TestDescriptor_GetSet(t *testing.T) {
	d := heroDescriptor(t)
	rec := &testHero{}

	if err := d.Set(rec, "name", "Торн"); err != nil {
		t.Fatalf("Set вернул ошибку: %v", err)
	}
	v, ok, err := d.Get(rec, "name")
	if err != nil || !ok || v != "Торн" {
		t.Errorf("Get(name) = (%v, %v, %v)", v, ok, err)
	}

	// Незаданное поле
	_, ok, err = d.Get(rec, "class")
	if err != nil || ok {
		t.Errorf("Get(class) незаданного = (%v, %v)", ok, err)
	}

	// Поле вне схемы
	if err := d.Set(rec, "ghost", 1); !errors.Is(err, ErrInvalidField) {
		t.Errorf("Set(ghost) = %v, ожидался ErrInvalidField", err)
	}
}

// TestDescriptor_ContentAndRef — доступ к внешнему контенту.
func TestDescriptor_ContentAndRef(t *testing.T) {
	d := heroDescriptor(t)
	rec := &testHero{}

	if err := d.SetContent(rec, "длинная история"); err != nil {
		t.Fatalf("SetContent вернул ошибку: %v", err)
	}
	text, ok, err := d.Content(rec)
	if err != nil || !ok || text != "длинная история" {
		t.Errorf("Content() = (%q, %v, %v)", text, ok, err)
	}

	if err := d.SetRef(rec, "file-uuid"); err != nil {
		t.Fatalf("SetRef вернул ошибку: %v", err)
	}
	ref, ok, err := d.Ref(rec)
	if err != nil || !ok || ref != "file-uuid" {
		t.Errorf("Ref() = (%q, %v, %v)", ref, ok, err)
	}
}

// TestDescriptor_Stamp — поля владения всегда перезаписываются,
// подделать владельца через payload невозможно.
func TestDescriptor_Stamp(t *testing.T) {
	d := heroDescriptor(t)
	rec := &testHero{}

	// Значения «из payload»
	rec.CreatorID.Set("злоумышленник")
	rec.CampaignID.Set(999)

	if err := d.Stamp(rec, "user-1", 7); err != nil {
		t.Fatalf("Stamp вернул ошибку: %v", err)
	}
	if v, _ := rec.CreatorID.Get(); v != "user-1" {
		t.Errorf("creator_id = %q, ожидалось user-1", v)
	}
	if v, _ := rec.CampaignID.Get(); v != 7 {
		t.Errorf("campaign_id = %d, ожидалось 7", v)
	}
}

// TestDescriptor_WrongRecordType — запись чужого типа отвергается.
func TestDescriptor_WrongRecordType(t *testing.T) {
	d := heroDescriptor(t)

	type other struct {
		ID Opt[int64] `field:"id"`
	}
	if _, _, err := d.Get(&other{}, "id"); err == nil {
		t.Error("ожидалась ошибка для записи чужого типа")
	}
}
