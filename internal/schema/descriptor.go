// Пакет schema — дескрипторы сущностей и generic-персистентность записей.
// Дескриптор описывает один тип сущности: упорядоченный набор полей
// (первое — первичный ключ), алиасы внешних имён на физические колонки,
// вычисляемые поля, summary-проекцию для списков и маппинг ошибок
// уникальности. Дескрипторы строятся один раз при старте процесса
// и после этого неизменяемы.
package schema

import (
	"errors"
	"fmt"
	"reflect"
	"strings"
)

// Ошибки уровня схемы.
var (
	// ErrInvalidField — payload ссылается на поле вне схемы сущности.
	ErrInvalidField = errors.New("неизвестное поле")
	// ErrSchemaMismatch — арность строки не совпадает с набором колонок.
	ErrSchemaMismatch = errors.New("строка не соответствует схеме")
	// ErrConflict — нарушение уникальности, транслируется в сообщение дескриптора.
	ErrConflict = errors.New("конфликт — запись уже существует")
)

// IDStrategy — стратегия назначения первичного ключа.
type IDStrategy int

const (
	// AutoIncrement — ключ назначает БД при вставке (bigserial + RETURNING).
	AutoIncrement IDStrategy = iota
	// ApplicationGenerated — непрозрачный уникальный id назначает приложение
	// до вставки (uuid, без обращения к БД).
	ApplicationGenerated
)

// Имена неявных полей, штампуемых из аутентифицированного контекста.
const (
	fieldCreator  = "creator_id"
	fieldCampaign = "campaign_id"
)

// Spec — декларация дескриптора, передаётся в Build/MustBuild.
type Spec struct {
	// Table — имя таблицы.
	Table string
	// IDStrategy — стратегия первичного ключа.
	IDStrategy IDStrategy
	// Aliases — внешнее имя поля → физическая колонка.
	// Применимо только к не-ключевым хранимым полям.
	Aliases map[string]string
	// Summary — подмножество полей для списочных представлений.
	Summary []string
	// ExternalContent — вычисляемое поле с крупным текстом,
	// хранимым вне БД ("" — сущность без внешнего контента).
	ExternalContent string
	// ExternalRef — хранимая колонка с непрозрачным id файла контента.
	ExternalRef string
	// ConflictMessage — пользовательское сообщение при нарушении уникальности.
	ConflictMessage string
}

// field — метаданные одного поля записи.
type field struct {
	// name — внешнее имя поля (из тега `field`).
	name string
	// column — физическая колонка (после алиасинга); "" для computed.
	column string
	// index — индекс поля в структуре записи.
	index int
	// computed — поле не хранится в БД, заполняется side-логикой.
	computed bool
}

// Descriptor — неизменяемые метаданные одного типа сущности.
// Строится один раз через MustBuild и передаётся по ссылке
// во все контроллеры; после построения не мутирует.
type Descriptor struct {
	table           string
	idStrategy      IDStrategy
	fields          []field // порядок структуры; первое хранимое — PK
	byName          map[string]*field
	stored          []*field // только хранимые, в порядке колонок
	pk              *field
	summary         []string
	externalContent *field
	externalRef     *field
	conflictMessage string
	rtype           reflect.Type // тип структуры записи
}

// MustBuild строит дескриптор для типа записи R, паникуя при ошибке
// декларации. Нарушение инвариантов схемы — дефект конструирования,
// процесс должен падать на старте, а не в рантайме.
func MustBuild[R any](spec Spec) *Descriptor {
	d, err := Build[R](spec)
	if err != nil {
		panic(fmt.Sprintf("schema: дескриптор %q: %v", spec.Table, err))
	}
	return d
}

// Build строит и валидирует дескриптор для типа записи R.
// Поля записи — экспортируемые Opt[T] с тегом `field:"имя"`;
// вычисляемые поля помечаются опцией `,computed`.
func Build[R any](spec Spec) (*Descriptor, error) {
	var zero R
	rtype := reflect.TypeOf(zero)
	if rtype == nil || rtype.Kind() != reflect.Struct {
		return nil, fmt.Errorf("тип записи должен быть структурой, получен %T", zero)
	}
	if spec.Table == "" {
		return nil, errors.New("имя таблицы не задано")
	}

	d := &Descriptor{
		table:           spec.Table,
		idStrategy:      spec.IDStrategy,
		byName:          make(map[string]*field),
		summary:         append([]string(nil), spec.Summary...),
		conflictMessage: spec.ConflictMessage,
		rtype:           rtype,
	}

	optIface := reflect.TypeOf((*optValue)(nil)).Elem()
	seen := make(map[string]bool)
	for i := 0; i < rtype.NumField(); i++ {
		sf := rtype.Field(i)
		tag, ok := sf.Tag.Lookup("field")
		if !ok || tag == "-" {
			continue
		}
		name, opts, _ := strings.Cut(tag, ",")
		if name == "" {
			return nil, fmt.Errorf("поле %s: пустое имя в теге field", sf.Name)
		}
		if !sf.IsExported() {
			return nil, fmt.Errorf("поле %s: field-тег на неэкспортируемом поле", sf.Name)
		}
		if !reflect.PointerTo(sf.Type).Implements(optIface) {
			return nil, fmt.Errorf("поле %s: тип должен быть schema.Opt[T]", sf.Name)
		}
		if seen[name] {
			return nil, fmt.Errorf("поле %q объявлено дважды", name)
		}
		seen[name] = true
		f := field{
			name:     name,
			index:    i,
			computed: opts == "computed",
		}
		if !f.computed {
			f.column = name
		}
		d.fields = append(d.fields, f)
	}
	// Указатели фиксируются после завершения всех append.
	for i := range d.fields {
		f := &d.fields[i]
		d.byName[f.name] = f
		if !f.computed {
			d.stored = append(d.stored, f)
		}
	}

	if len(d.stored) == 0 {
		return nil, errors.New("нет хранимых полей")
	}
	d.pk = d.stored[0]

	// Алиасы: только существующие не-ключевые хранимые поля.
	for name, column := range spec.Aliases {
		f, ok := d.byName[name]
		if !ok {
			return nil, fmt.Errorf("алиас %q: поле не объявлено", name)
		}
		if f.computed {
			return nil, fmt.Errorf("алиас %q: вычисляемое поле не имеет колонки", name)
		}
		if f == d.pk {
			return nil, fmt.Errorf("алиас %q: первичный ключ не алиасится", name)
		}
		if column == "" {
			return nil, fmt.Errorf("алиас %q: пустая колонка", name)
		}
		f.column = column
	}

	// Summary-проекция: только объявленные поля.
	for _, name := range d.summary {
		if _, ok := d.byName[name]; !ok {
			return nil, fmt.Errorf("summary-поле %q не объявлено", name)
		}
	}

	// Внешний контент: пара «вычисляемое поле + хранимая ссылка».
	if (spec.ExternalContent == "") != (spec.ExternalRef == "") {
		return nil, errors.New("external content: поле контента и колонка ссылки задаются вместе")
	}
	if spec.ExternalContent != "" {
		cf, ok := d.byName[spec.ExternalContent]
		if !ok || !cf.computed {
			return nil, fmt.Errorf("поле контента %q должно быть объявленным computed-полем", spec.ExternalContent)
		}
		rf, ok := d.byName[spec.ExternalRef]
		if !ok || rf.computed {
			return nil, fmt.Errorf("колонка ссылки %q должна быть объявленным хранимым полем", spec.ExternalRef)
		}
		d.externalContent = cf
		d.externalRef = rf
	}

	return d, nil
}

// Table возвращает имя таблицы сущности.
func (d *Descriptor) Table() string {
	return d.table
}

// IDStrategy возвращает стратегию первичного ключа.
func (d *Descriptor) IDStrategy() IDStrategy {
	return d.idStrategy
}

// PKColumn возвращает физическую колонку первичного ключа.
func (d *Descriptor) PKColumn() string {
	return d.pk.column
}

// PKName возвращает внешнее имя поля первичного ключа.
func (d *Descriptor) PKName() string {
	return d.pk.name
}

// Fields возвращает внешние имена всех полей (хранимых и вычисляемых)
// в порядке объявления.
func (d *Descriptor) Fields() []string {
	names := make([]string, len(d.fields))
	for i := range d.fields {
		names[i] = d.fields[i].name
	}
	return names
}

// StoredFields возвращает внешние имена хранимых полей в порядке колонок.
func (d *Descriptor) StoredFields() []string {
	names := make([]string, len(d.stored))
	for i, f := range d.stored {
		names[i] = f.name
	}
	return names
}

// Summary возвращает поля summary-проекции для списочных представлений.
// Пустой список означает «все хранимые поля».
func (d *Descriptor) Summary() []string {
	if len(d.summary) == 0 {
		return d.StoredFields()
	}
	return append([]string(nil), d.summary...)
}

// Column возвращает физическую колонку для внешнего имени поля.
func (d *Descriptor) Column(name string) (string, error) {
	f, ok := d.byName[name]
	if !ok || f.computed {
		return "", fmt.Errorf("%w: %s", ErrInvalidField, name)
	}
	return f.column, nil
}

// Columns возвращает физические колонки для набора внешних имён.
func (d *Descriptor) Columns(names ...string) ([]string, error) {
	cols := make([]string, len(names))
	for i, name := range names {
		col, err := d.Column(name)
		if err != nil {
			return nil, err
		}
		cols[i] = col
	}
	return cols, nil
}

// HasField сообщает, объявлено ли поле (хранимое или вычисляемое).
func (d *Descriptor) HasField(name string) bool {
	_, ok := d.byName[name]
	return ok
}

// HasExternalContent сообщает, есть ли у сущности внешний контент.
func (d *Descriptor) HasExternalContent() bool {
	return d.externalContent != nil
}

// ConflictMessage возвращает пользовательское сообщение при
// нарушении уникальности ("" — нет специального маппинга).
func (d *Descriptor) ConflictMessage() string {
	return d.conflictMessage
}

// --- доступ к полям записи ---

// recordValue возвращает reflect.Value структуры записи,
// проверяя соответствие типа дескриптору.
func (d *Descriptor) recordValue(rec any) (reflect.Value, error) {
	v := reflect.ValueOf(rec)
	if v.Kind() != reflect.Pointer || v.IsNil() || v.Elem().Type() != d.rtype {
		return reflect.Value{}, fmt.Errorf("schema: запись %T не соответствует дескриптору %s", rec, d.table)
	}
	return v.Elem(), nil
}

// opt возвращает optValue-доступ к полю записи.
func (d *Descriptor) opt(rv reflect.Value, f *field) optValue {
	return rv.Field(f.index).Addr().Interface().(optValue)
}

// Get возвращает значение поля и признак его наличия.
func (d *Descriptor) Get(rec any, name string) (any, bool, error) {
	rv, err := d.recordValue(rec)
	if err != nil {
		return nil, false, err
	}
	f, ok := d.byName[name]
	if !ok {
		return nil, false, fmt.Errorf("%w: %s", ErrInvalidField, name)
	}
	o := d.opt(rv, f)
	if !o.IsSet() {
		return nil, false, nil
	}
	return o.anyValue(), true, nil
}

// Set задаёт значение поля записи по внешнему имени.
func (d *Descriptor) Set(rec any, name string, value any) error {
	rv, err := d.recordValue(rec)
	if err != nil {
		return err
	}
	f, ok := d.byName[name]
	if !ok {
		return fmt.Errorf("%w: %s", ErrInvalidField, name)
	}
	return d.opt(rv, f).setAny(value)
}

// PK возвращает значение первичного ключа записи.
func (d *Descriptor) PK(rec any) (any, bool, error) {
	return d.Get(rec, d.pk.name)
}

// SetPK задаёт первичный ключ записи (ApplicationGenerated id).
func (d *Descriptor) SetPK(rec any, value any) error {
	return d.Set(rec, d.pk.name, value)
}

// Content возвращает значение поля внешнего контента.
func (d *Descriptor) Content(rec any) (string, bool, error) {
	if d.externalContent == nil {
		return "", false, nil
	}
	v, ok, err := d.Get(rec, d.externalContent.name)
	if err != nil || !ok {
		return "", ok, err
	}
	s, _ := v.(string)
	return s, true, nil
}

// SetContent задаёт поле внешнего контента.
func (d *Descriptor) SetContent(rec any, content string) error {
	if d.externalContent == nil {
		return fmt.Errorf("schema: %s не имеет внешнего контента", d.table)
	}
	return d.Set(rec, d.externalContent.name, content)
}

// Ref возвращает непрозрачный id файла контента ("" — контента нет).
func (d *Descriptor) Ref(rec any) (string, bool, error) {
	if d.externalRef == nil {
		return "", false, nil
	}
	v, ok, err := d.Get(rec, d.externalRef.name)
	if err != nil || !ok {
		return "", ok, err
	}
	s, _ := v.(string)
	return s, true, nil
}

// SetRef задаёт id файла контента в записи.
func (d *Descriptor) SetRef(rec any, ref string) error {
	if d.externalRef == nil {
		return fmt.Errorf("schema: %s не имеет внешнего контента", d.table)
	}
	return d.Set(rec, d.externalRef.name, ref)
}

// RefField возвращает внешнее имя колонки ссылки на контент.
func (d *Descriptor) RefField() string {
	if d.externalRef == nil {
		return ""
	}
	return d.externalRef.name
}

// Stamp записывает неявные поля владения из аутентифицированного
// контекста, если дескриптор их объявляет. Значения из payload
// при этом всегда перезаписываются: подделать владельца или
// кампанию через тело запроса невозможно.
func (d *Descriptor) Stamp(rec any, creatorID string, campaignID int64) error {
	if _, ok := d.byName[fieldCreator]; ok {
		if err := d.Set(rec, fieldCreator, creatorID); err != nil {
			return err
		}
	}
	if _, ok := d.byName[fieldCampaign]; ok {
		if err := d.Set(rec, fieldCampaign, campaignID); err != nil {
			return err
		}
	}
	return nil
}
