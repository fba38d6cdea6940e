package Models

import (
	"time"

	"Dashspect/TaskEngine"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// TaskCompletion marks one occurrence of a task as done
type TaskCompletion struct {
	gorm.Model
	TaskID          uint           `json:"task_id" gorm:"not null;index"`
	OccurrenceDate  datatypes.Date `json:"occurrence_date" gorm:"not null;index"`
	OccurrenceKey   string         `json:"occurrence_key" gorm:"uniqueIndex;size:64"`
	CompletedBy     uint           `json:"completed_by"`
	CompletedByName string         `json:"completed_by_name"`
	CompletedAt     time.Time      `json:"completed_at"`
	Notes           string         `json:"notes"`
}

// BeforeCreate fills the occurrence key from the task and date
func (c *TaskCompletion) BeforeCreate(tx *gorm.DB) error {
	if c.OccurrenceKey == "" {
		c.OccurrenceKey = TaskEngine.OccurrenceKey(c.TaskID, time.Time(c.OccurrenceDate).UTC())
	}
	return nil
}

func (c TaskCompletion) ToEngine() TaskEngine.Completion {
	return TaskEngine.Completion{
		Key:         c.OccurrenceKey,
		CompletedBy: c.CompletedBy,
		CompletedAt: c.CompletedAt,
	}
}
