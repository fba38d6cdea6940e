package Models

import (
	"crypto/sha256"
	"fmt"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const (
	ChannelWhatsapp = "whatsapp"
	ChannelPush     = "push"
	ChannelSlack    = "slack"
	ChannelEmail    = "email"
)

// NotificationLog remembers what was sent so a sweep never alerts twice
type NotificationLog struct {
	gorm.Model
	OccurrenceKey string         `json:"occurrence_key" gorm:"index"`
	Channel       string         `json:"channel"`
	Recipient     string         `json:"recipient"`
	SentAt        time.Time      `json:"sent_at"`
	Payload       datatypes.JSON `json:"payload"`
	Hash          string         `gorm:"uniqueIndex;size:64"`
}

func NotificationHash(occurrenceKey, channel, recipient string) string {
	data := fmt.Sprintf("%s|%s|%s", occurrenceKey, channel, recipient)
	return fmt.Sprintf("%x", sha256.Sum256([]byte(data)))
}

// BeforeCreate automatically generates hash before saving
func (n *NotificationLog) BeforeCreate(tx *gorm.DB) error {
	if n.Hash == "" {
		n.Hash = NotificationHash(n.OccurrenceKey, n.Channel, n.Recipient)
	}
	return nil
}

// AlreadyNotified reports whether occurrenceKey went out on channel to recipient
func AlreadyNotified(db *gorm.DB, occurrenceKey, channel, recipient string) (bool, error) {
	var count int64
	err := db.Model(&NotificationLog{}).
		Where("hash = ?", NotificationHash(occurrenceKey, channel, recipient)).
		Count(&count).Error
	return count > 0, err
}
