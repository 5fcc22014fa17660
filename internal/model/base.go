package model

import "time"

// Base is an organizational unit that owns assets and personnel.
type Base struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Location  string    `json:"location"`
	CreatedAt time.Time `json:"created_at"`
}

// AssetType is an entry of the asset taxonomy.
type AssetType struct {
	ID          int64  `json:"id"`
	Name        string `json:"name"`
	Category    string `json:"category"`
	Description string `json:"description,omitempty"`
}

// Personnel is a service member stationed at a base who can be assigned assets.
type Personnel struct {
	ID        int64     `json:"id"`
	Name      string    `json:"name"`
	Rank      string    `json:"rank"`
	Unit      string    `json:"unit,omitempty"`
	BaseID    int64     `json:"base_id"`
	CreatedBy *int64    `json:"created_by,omitempty"`
	CreatedAt time.Time `json:"created_at"`

	BaseName string `json:"base_name,omitempty"`
}
