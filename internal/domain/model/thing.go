package model

import "github.com/grimwald/lorelog/internal/schema"

// Thing — предмет кампании: артефакт, снаряжение, товар.
type Thing struct {
	ID               schema.Opt[int64]   `field:"id" json:"id,omitzero"`
	Name             schema.Opt[string]  `field:"name" json:"name,omitzero"`
	Type             schema.Opt[string]  `field:"type" json:"type,omitzero"`
	Weight           schema.Opt[float64] `field:"weight" json:"weight,omitzero"`
	Price            schema.Opt[float64] `field:"price" json:"price,omitzero"`
	PriceUnit        schema.Opt[string]  `field:"price_unit" json:"price_unit,omitzero"`
	Description      schema.Opt[string]  `field:"description" json:"description,omitzero"`
	ExternalFileName schema.Opt[string]  `field:"external_file_name" json:"-"`
	IsPublic         schema.Opt[bool]    `field:"is_public" json:"is_public,omitzero"`
	OwnerID          schema.Opt[int64]   `field:"owner_id" json:"owner_id,omitzero"`
	CampaignID       schema.Opt[int64]   `field:"campaign_id" json:"campaign_id,omitzero"`
	CreatorID        schema.Opt[string]  `field:"creator_id" json:"creator_id,omitzero"`
	RichDescription  schema.Opt[string]  `field:"rich_description,computed" json:"rich_description,omitzero"`
}

// Things — дескриптор предметов.
var Things = schema.MustBuild[Thing](schema.Spec{
	Table:           "thing",
	IDStrategy:      schema.AutoIncrement,
	Summary:         []string{"id", "name", "type", "weight", "price", "price_unit", "description"},
	ExternalContent: "rich_description",
	ExternalRef:     "external_file_name",
})
