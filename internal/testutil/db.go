// Package testutil holds fixtures shared by package tests.
package testutil

import (
	"testing"

	"github.com/khanghh/kcentral/model"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
	"gorm.io/gorm/schema"
)

// NewDB opens a migrated in-memory sqlite database that lives as long as the test.
func NewDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		NamingStrategy: schema.NamingStrategy{
			SingularTable: true,
		},
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	// every connection to :memory: is a separate database
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { sqlDB.Close() })

	require.NoError(t, model.AutoMigrate(db))
	return db
}

// PermissionIDs resolves permission codenames to their seeded ids.
func PermissionIDs(t *testing.T, db *gorm.DB, codenames ...string) []uint {
	t.Helper()
	var ids []uint
	for _, code := range codenames {
		var perm model.Permission
		require.NoError(t, db.Where("codename = ?", code).First(&perm).Error)
		ids = append(ids, perm.ID)
	}
	return ids
}
