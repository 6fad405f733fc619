package models

import (
	"database/sql/driver"
	"encoding/json"
	"fmt"
	"time"

	"gorm.io/gorm"
)

// Pricing is the monetary breakdown of a stitching order
type Pricing struct {
	BasePrice      float64 `gorm:"not null;default:0" json:"base_price"`
	DeliveryCharge float64 `gorm:"not null;default:0" json:"delivery_charge"`
	RushCharge     float64 `gorm:"not null;default:0" json:"rush_charge"`
	Discount       float64 `gorm:"not null;default:0" json:"discount"`
	Tax            float64 `gorm:"not null;default:0" json:"tax"`
}

// Commission is the platform's cut of a stitching order
type Commission struct {
	Percentage float64 `gorm:"not null;default:0" json:"percentage"`
	Amount     float64 `gorm:"not null;default:0" json:"amount"`
}

// StitchingOrder represents a custom stitching order in the system.
// Status holds the canonical production-stage status (see status.go);
// PaymentStatus is tracked independently of the production stage.
type StitchingOrder struct {
	ID              uint   `gorm:"primaryKey" json:"id"`
	OrderNumber     string `gorm:"uniqueIndex;not null" json:"order_number"` // human-readable id, "STG-..."
	CustomerID      uint   `gorm:"not null;index" json:"customer_id"`
	Customer        User   `gorm:"foreignKey:CustomerID" json:"customer,omitempty"`
	TailorID        *uint  `gorm:"index" json:"tailor_id"` // nullable until assignment
	Tailor          *User  `gorm:"foreignKey:TailorID" json:"tailor,omitempty"`
	PickupPartnerID *uint  `gorm:"index" json:"pickup_partner_id"`
	DropPartnerID   *uint  `gorm:"index" json:"drop_partner_id"`

	Status              string `gorm:"not null;default:'pending';index" json:"status"`
	PaymentStatus       string `gorm:"not null;default:'PENDING';index" json:"payment_status"` // PENDING, PAID, FAILED, REFUNDED
	PaymentID           *uint  `gorm:"index" json:"payment_id"`                                // back-reference once paid
	DeliveryType        string `gorm:"not null;default:'normal'" json:"delivery_type"`         // normal, express, premium
	FabricSource        string `gorm:"not null;default:'CUSTOMER'" json:"fabric_source"`       // CUSTOMER or PLATFORM
	SpecialInstructions string `json:"special_instructions"`

	Pricing     Pricing    `gorm:"embedded;embeddedPrefix:pricing_" json:"pricing"`
	Commission  Commission `gorm:"embedded;embeddedPrefix:commission_" json:"commission"`
	TotalAmount float64    `gorm:"not null;check:total_amount >= 0" json:"total_amount"`

	DesignImages     StringList `json:"design_images"`
	CompletionPhotos StringList `json:"completion_photos"`

	IsAlterationRequested bool   `gorm:"not null;default:false" json:"is_alteration_requested"`
	RejectionReason       string `json:"rejection_reason"`
	CancellationReason    string `json:"cancellation_reason"`

	EstimatedDeliveryDate *time.Time     `json:"estimated_delivery_date"`
	CreatedAt             time.Time      `json:"created_at"`
	UpdatedAt             time.Time      `json:"updated_at"`
	DeletedAt             gorm.DeletedAt `gorm:"index" json:"-"`
}

// TableName specifies the table name for the StitchingOrder model
func (StitchingOrder) TableName() string {
	return "stitching_orders"
}

// StringList is a JSON-serialized list of strings (image keys etc.). It
// implements driver.Valuer and sql.Scanner so the JSON encoding applies on
// every write path, including column-level updates.
type StringList []string

// GormDataType tells the migrator to back the list with a text column.
func (StringList) GormDataType() string {
	return "text"
}

// Value serializes the list as JSON for storage.
func (l StringList) Value() (driver.Value, error) {
	if l == nil {
		return "[]", nil
	}
	data, err := json.Marshal(l)
	if err != nil {
		return nil, err
	}
	return string(data), nil
}

// Scan deserializes a stored JSON list.
func (l *StringList) Scan(value interface{}) error {
	if value == nil {
		*l = nil
		return nil
	}

	var data []byte
	switch v := value.(type) {
	case []byte:
		data = v
	case string:
		data = []byte(v)
	default:
		return fmt.Errorf("cannot scan %T into StringList", value)
	}

	if len(data) == 0 {
		*l = nil
		return nil
	}
	return json.Unmarshal(data, l)
}
