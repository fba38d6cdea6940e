package Models

import "gorm.io/gorm"

type Location struct {
	gorm.Model
	Name    string `json:"name" gorm:"uniqueIndex;not null"`
	Address string `json:"address"`
	// WhatsappGroup receives escalations for the site when set
	WhatsappGroup string `json:"whatsapp_group"`
}
