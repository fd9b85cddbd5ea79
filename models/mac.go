package models

import "time"

// MAC is a Ministry, Agency or Commission. Each MAC owns zero or more
// officer accounts and zero or more submissions.
type MAC struct {
	MACID       uint       `gorm:"primaryKey;column:mac_id" json:"mac_id"`
	Name        string     `gorm:"column:name;unique" json:"name"`
	Acronym     string     `gorm:"column:acronym;unique" json:"acronym"`
	Description string     `gorm:"column:description" json:"description"`
	Email       string     `gorm:"column:email" json:"email"`
	Phone       string     `gorm:"column:phone" json:"phone"`
	Address     string     `gorm:"column:address" json:"address"`
	IsActive    bool       `gorm:"column:is_active" json:"is_active"`
	CreatedAt   time.Time  `gorm:"column:created_at" json:"created_at"`
	UpdatedAt   time.Time  `gorm:"column:updated_at" json:"updated_at"`
	DeletedAt   *time.Time `gorm:"column:deleted_at" json:"deleted_at,omitempty"`
}

func (MAC) TableName() string {
	return "macs"
}
