package model

import (
	"time"

	"gorm.io/gorm"
)

type Level string

const (
	LevelCritical Level = "CRITICAL"
	LevelDebug    Level = "DEBUG"
	LevelError    Level = "ERROR"
	LevelWarning  Level = "WARNING"
	LevelInfo     Level = "INFO"
)

var Levels = []string{
	string(LevelCritical),
	string(LevelDebug),
	string(LevelError),
	string(LevelWarning),
	string(LevelInfo),
}

// Event is a single log record reported by an agent.
type Event struct {
	ID          uint       `gorm:"primaryKey;autoIncrement:false"`
	Level       string     `gorm:"size:20;not null;index"`
	Description string     `gorm:"type:text;not null"`
	Details     string     `gorm:"type:text;not null"`
	Datetime    *time.Time `gorm:"index"`
	Archived    bool       `gorm:"not null;default:false;index"`
	AgentID     *uint      `gorm:"index"`
	Agent       *Agent     `gorm:"constraint:OnUpdate:CASCADE,OnDelete:SET NULL"`
	UserID      *uint      `gorm:"index"`
	User        *User      `gorm:"constraint:OnUpdate:CASCADE,OnDelete:SET NULL"`
}

func (e *Event) BeforeCreate(tx *gorm.DB) error {
	if e.ID == 0 {
		e.ID = GenerateID()
	}
	return nil
}

// Source is the name of the reporting agent, if any.
func (e *Event) Source() *string {
	if e.Agent == nil {
		return nil
	}
	return &e.Agent.Name
}

// CollectedBy is the display name of the collecting user, if any.
func (e *Event) CollectedBy() *string {
	if e.User == nil {
		return nil
	}
	name := e.User.DisplayName()
	return &name
}
