package model

import (
	"fmt"

	"github.com/bwmarrin/snowflake"
	"github.com/khanghh/kcentral/params"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

var snowflakeNode *snowflake.Node

var Models = []interface{}{
	&Permission{}, &Group{}, &User{}, &Agent{}, &Event{},
}

func init() {
	var err error
	snowflakeNode, err = snowflake.NewNode(params.SnowflakeNodeID)
	if err != nil {
		panic(err)
	}
}

func GenerateID() uint {
	return uint(snowflakeNode.Generate())
}

// AutoMigrate creates the schema and makes sure every model permission exists.
func AutoMigrate(db *gorm.DB) error {
	if err := db.AutoMigrate(Models...); err != nil {
		return err
	}
	return SeedPermissions(db)
}

func SeedPermissions(db *gorm.DB) error {
	perms := DefaultPermissions()
	err := db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "codename"}},
		DoNothing: true,
	}).Create(&perms).Error
	if err != nil {
		return fmt.Errorf("seed permissions: %w", err)
	}
	return nil
}

// DefaultPermissions lists one permission per action for every resource.
func DefaultPermissions() []Permission {
	perms := make([]Permission, 0, len(Resources)*len(Actions))
	for _, resource := range Resources {
		for _, action := range Actions {
			perms = append(perms, Permission{
				Name:        fmt.Sprintf("Can %s %s", action, resource),
				Codename:    PermissionCodename(action, resource),
				ContentType: string(resource),
			})
		}
	}
	return perms
}
