package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// Ward is a geographic administrative unit. Boundary holds the GeoJSON
// geometry (Polygon or MultiPolygon, coordinates in lon/lat order) used for
// coordinate-to-ward resolution.
type Ward struct {
	ID        uuid.UUID      `gorm:"type:uuid;primaryKey;default:uuid_generate_v4()" json:"id"`
	WardNo    string         `gorm:"type:varchar(10);not null;uniqueIndex" json:"ward_no"`
	Name      string         `gorm:"type:varchar(100);not null" json:"name"`
	AdminName string         `gorm:"type:varchar(100)" json:"admin_name"`
	AdminNo   string         `gorm:"type:varchar(15)" json:"admin_no"`
	Address   string         `gorm:"type:text" json:"address"`
	Boundary  datatypes.JSON `gorm:"type:jsonb" json:"boundary,omitempty"`
	CreatedAt time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime" json:"updated_at"`

	Contractors []Contractor `gorm:"many2many:ward_contractors" json:"-"`
}

func (Ward) TableName() string {
	return "wards"
}

func (w *Ward) BeforeCreate(tx *gorm.DB) error {
	if w.ID == uuid.Nil {
		w.ID = uuid.New()
	}
	return nil
}

// Contractor performs the work on assigned tickets. Rating is derived from
// citizen ratings and never set directly.
type Contractor struct {
	ID         uuid.UUID  `gorm:"type:uuid;primaryKey;default:uuid_generate_v4()" json:"id"`
	UserID     uuid.UUID  `gorm:"type:uuid;not null;uniqueIndex" json:"user_id"`
	Name       string     `gorm:"type:varchar(150);not null" json:"name"`
	Phone      string     `gorm:"type:varchar(15)" json:"phone"`
	Email      string     `gorm:"type:varchar(254)" json:"email"`
	Department Department `gorm:"type:varchar(100);not null" json:"department"`
	Rating     float64    `gorm:"type:numeric(3,2);not null;default:0" json:"rating"`
	Active     bool       `gorm:"not null;default:true" json:"active"`
	CreatedAt  time.Time  `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt  time.Time  `gorm:"autoUpdateTime" json:"updated_at"`

	Wards []Ward `gorm:"many2many:ward_contractors" json:"-"`
}

func (Contractor) TableName() string {
	return "contractors"
}

func (c *Contractor) BeforeCreate(tx *gorm.DB) error {
	if c.ID == uuid.Nil {
		c.ID = uuid.New()
	}
	return nil
}
