package domain

import "errors"

// Stat counts how often a style produced a stored result.
type Stat struct {
	StyleID string `gorm:"primaryKey;type:varchar(64)"`
	Count   int64  `gorm:"not null;default:0"`
}

// TableName sets the database table name.
func (Stat) TableName() string { return "style_stats" }

// Directive is the resolved generation instruction for one job, including
// the variant picked from each pool.
type Directive struct {
	StyleID   string `json:"style_id"`
	Prompt    string `json:"prompt"`
	Furniture string `json:"furniture,omitempty"`
	Walls     string `json:"walls,omitempty"`
	Lighting  string `json:"lighting,omitempty"`
	Camera    string `json:"camera,omitempty"`
}

// Metadata returns the variant choices reported to clients. Prompts stay
// server side.
func (d Directive) Metadata() map[string]string {
	meta := map[string]string{"style_id": d.StyleID}
	for key, value := range map[string]string{
		"furniture": d.Furniture,
		"walls":     d.Walls,
		"lighting":  d.Lighting,
		"camera":    d.Camera,
	} {
		if value != "" {
			meta[key] = value
		}
	}
	return meta
}

// PublicStyle is the listing entry; it never carries prompts.
type PublicStyle struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

var (
	ErrUnknownStyle = errors.New("unknown_style")
	ErrInvalidStyle = errors.New("invalid_style")
)
