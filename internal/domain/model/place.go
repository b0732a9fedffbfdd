package model

import "github.com/grimwald/lorelog/internal/schema"

// Типы мест. Домен создаётся миграцией кампании и существует
// в единственном экземпляре — через API он не создаётся.
const (
	PlaceTypeDomain  = "domain"
	PlaceTypeRegion  = "region"
	PlaceTypeCity    = "city"
	PlaceTypeDungeon = "dungeon"
)

// ValidPlaceType проверяет допустимость типа места.
func ValidPlaceType(t string) bool {
	switch t {
	case PlaceTypeDomain, PlaceTypeRegion, PlaceTypeCity, PlaceTypeDungeon:
		return true
	}
	return false
}

// Place — место кампании (домен, регион, город, подземелье).
type Place struct {
	ID               schema.Opt[int64]  `field:"id" json:"id,omitzero"`
	Name             schema.Opt[string] `field:"name" json:"name,omitzero"`
	Type             schema.Opt[string] `field:"type" json:"type,omitzero"`
	MapURL           schema.Opt[string] `field:"map_url" json:"map_url,omitzero"`
	Description      schema.Opt[string] `field:"description" json:"description,omitzero"`
	ExternalFileName schema.Opt[string] `field:"external_file_name" json:"-"`
	IsPublic         schema.Opt[bool]   `field:"is_public" json:"is_public,omitzero"`
	CampaignID       schema.Opt[int64]  `field:"campaign_id" json:"campaign_id,omitzero"`
	CreatorID        schema.Opt[string] `field:"creator_id" json:"creator_id,omitzero"`
	RichDescription  schema.Opt[string] `field:"rich_description,computed" json:"rich_description,omitzero"`
}

// Places — дескриптор мест.
var Places = schema.MustBuild[Place](schema.Spec{
	Table:           "place",
	IDStrategy:      schema.AutoIncrement,
	Summary:         []string{"id", "name", "type", "description", "is_public"},
	ExternalContent: "rich_description",
	ExternalRef:     "external_file_name",
})
