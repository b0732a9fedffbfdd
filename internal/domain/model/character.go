package model

import "github.com/grimwald/lorelog/internal/schema"

// Character — персонаж кампании. Характеристики (str..cha) хранятся
// в колонках attr_*_N, наружу видны только внешние имена полей.
type Character struct {
	ID                  schema.Opt[int64]  `field:"id" json:"id,omitzero"`
	Name                schema.Opt[string] `field:"name" json:"name,omitzero"`
	Race                schema.Opt[string] `field:"race" json:"race,omitzero"`
	Level               schema.Opt[int64]  `field:"level" json:"level,omitzero"`
	Class               schema.Opt[string] `field:"class" json:"class,omitzero"`
	ClassLevel          schema.Opt[int64]  `field:"class_level" json:"class_level,omitzero"`
	SecondaryClass      schema.Opt[string] `field:"secondary_class" json:"secondary_class,omitzero"`
	SecondaryClassLevel schema.Opt[int64]  `field:"secondary_class_level" json:"secondary_class_level,omitzero"`
	Alignment           schema.Opt[string] `field:"alignment" json:"alignment,omitzero"`
	Str                 schema.Opt[int64]  `field:"str" json:"str,omitzero"`
	Dex                 schema.Opt[int64]  `field:"dex" json:"dex,omitzero"`
	Con                 schema.Opt[int64]  `field:"con" json:"con,omitzero"`
	Int                 schema.Opt[int64]  `field:"int" json:"int,omitzero"`
	Wis                 schema.Opt[int64]  `field:"wis" json:"wis,omitzero"`
	Cha                 schema.Opt[int64]  `field:"cha" json:"cha,omitzero"`
	AttrStatsOther      schema.Opt[string] `field:"attr_stats_other" json:"attr_stats_other,omitzero"`
	AttributesPublic    schema.Opt[bool]   `field:"attributes_public" json:"attributes_public,omitzero"`
	IsPublic            schema.Opt[bool]   `field:"is_public" json:"is_public,omitzero"`
	IsPC                schema.Opt[bool]   `field:"is_pc" json:"is_pc,omitzero"`
	CreatorID           schema.Opt[string] `field:"creator_id" json:"creator_id,omitzero"`
	CampaignID          schema.Opt[int64]  `field:"campaign_id" json:"campaign_id,omitzero"`
	Description         schema.Opt[string] `field:"description" json:"description,omitzero"`
	Notes               schema.Opt[string] `field:"notes" json:"notes,omitzero"`
	SheetURL            schema.Opt[string] `field:"sheet_url" json:"sheet_url,omitzero"`
}

// Characters — дескриптор персонажей. Строится один раз при старте;
// некорректная декларация валит процесс немедленно.
var Characters = schema.MustBuild[Character](schema.Spec{
	Table:      "character",
	IDStrategy: schema.AutoIncrement,
	Aliases: map[string]string{
		"class":       "primary_class",
		"class_level": "primary_class_level",
		"str":         "attr_str_1",
		"dex":         "attr_dex_2",
		"con":         "attr_con_3",
		"int":         "attr_int_4",
		"wis":         "attr_wis_5",
		"cha":         "attr_cha_6",
	},
	Summary:         []string{"id", "name", "race", "level", "class", "class_level", "is_pc", "is_public"},
	ConflictMessage: "персонаж с таким именем уже существует в этой кампании",
})
