package model

import "github.com/grimwald/lorelog/internal/schema"

// Faction — фракция кампании. Крупный rich-текст хранится вне БД,
// в строке остаётся только непрозрачная ссылка external_file_name.
type Faction struct {
	ID               schema.Opt[int64]  `field:"id" json:"id,omitzero"`
	Name             schema.Opt[string] `field:"name" json:"name,omitzero"`
	Description      schema.Opt[string] `field:"description" json:"description,omitzero"`
	ExternalFileName schema.Opt[string] `field:"external_file_name" json:"-"`
	IsPublic         schema.Opt[bool]   `field:"is_public" json:"is_public,omitzero"`
	CampaignID       schema.Opt[int64]  `field:"campaign_id" json:"campaign_id,omitzero"`
	CreatorID        schema.Opt[string] `field:"creator_id" json:"creator_id,omitzero"`
	RichDescription  schema.Opt[string] `field:"rich_description,computed" json:"rich_description,omitzero"`
}

// Factions — дескриптор фракций.
var Factions = schema.MustBuild[Faction](schema.Spec{
	Table:           "faction",
	IDStrategy:      schema.AutoIncrement,
	Summary:         []string{"id", "name", "description", "is_public"},
	ExternalContent: "rich_description",
	ExternalRef:     "external_file_name",
})
