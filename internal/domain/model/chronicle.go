package model

import "github.com/grimwald/lorelog/internal/schema"

// Типы сущностей, к которым привязывается запись хроники.
// Для каждого типа существует таблица связи <тип>_chronicle.
var ChronicleRelationTypes = map[string]bool{
	"character": true,
	"faction":   true,
	"place":     true,
	"thing":     true,
}

// ChronicleEntry — запись хроники кампании. Id назначает приложение
// (uuid), порядок задаётся игровым временем tick. Описание всегда
// хранится во внешнем файле, relation_id указывает на родительскую
// сущность и заполняется из таблицы связи.
type ChronicleEntry struct {
	ID               schema.Opt[string] `field:"id" json:"id,omitzero"`
	Title            schema.Opt[string] `field:"title" json:"title,omitzero"`
	Tick             schema.Opt[int64]  `field:"tick" json:"tick,omitzero"`
	RelationType     schema.Opt[string] `field:"relation_type" json:"relation_type,omitzero"`
	ExternalFileName schema.Opt[string] `field:"external_file_name" json:"-"`
	CampaignID       schema.Opt[int64]  `field:"campaign_id" json:"campaign_id,omitzero"`
	CreatorID        schema.Opt[string] `field:"creator_id" json:"creator_id,omitzero"`
	IsPublic         schema.Opt[bool]   `field:"is_public" json:"is_public,omitzero"`
	RichDescription  schema.Opt[string] `field:"rich_description,computed" json:"rich_description,omitzero"`
	RelationID       schema.Opt[int64]  `field:"relation_id,computed" json:"relation_id,omitzero"`
}

// ChronicleEntries — дескриптор записей хроники.
var ChronicleEntries = schema.MustBuild[ChronicleEntry](schema.Spec{
	Table:           "chronicle_entry",
	IDStrategy:      schema.ApplicationGenerated,
	Summary:         []string{"id", "title", "tick", "is_public", "relation_type"},
	ExternalContent: "rich_description",
	ExternalRef:     "external_file_name",
})
