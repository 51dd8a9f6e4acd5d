package model

type Environment string

const (
	EnvironmentDevelopment Environment = "development"
	EnvironmentTesting     Environment = "testing"
	EnvironmentProduction  Environment = "production"
)

var Environments = []string{
	string(EnvironmentDevelopment),
	string(EnvironmentTesting),
	string(EnvironmentProduction),
}

// Agent is a registered source system that reports events.
type Agent struct {
	ID          uint    `gorm:"primarykey"`
	Name        string  `gorm:"size:256;not null"`
	Environment string  `gorm:"size:20;not null;index"`
	UserID      *uint   `gorm:"index"`
	User        *User   `gorm:"constraint:OnUpdate:CASCADE,OnDelete:SET NULL"`
	Address     *string `gorm:"size:39"`
}
