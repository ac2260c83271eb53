package model

import "gorm.io/gorm"

// Advocate represents an IP advocate available for enforcement referrals.
// Records are sourced from the admin import and are read-only for the
// matching flow.
type Advocate struct {
	gorm.Model
	SlNo        int     `gorm:"uniqueIndex;not null" json:"sl_no"`
	Name        string  `gorm:"type:varchar(255);not null;index" json:"name"`
	Description string  `gorm:"type:text" json:"short_description"`
	Skills      string  `gorm:"type:text" json:"skills"`
	Experience  int     `gorm:"default:0;not null" json:"experience"`
	Gender      string  `gorm:"type:varchar(50)" json:"gender"`
	Rating      float64 `gorm:"default:0;not null" json:"rating"`
	Country     string  `gorm:"type:varchar(100);not null;index" json:"country"`
	Email       string  `gorm:"type:varchar(255)" json:"email"`
}
