package users

import (
	"context"

	"github.com/khanghh/kcentral/model"
	"gorm.io/gorm"
)

type PermissionRepository interface {
	First(ctx context.Context, scopes ...Scope) (*model.Permission, error)
	Find(ctx context.Context, scopes ...Scope) ([]*model.Permission, error)
	FindByIDs(ctx context.Context, ids []uint) ([]model.Permission, error)
}

type permissionRepository struct {
	db *gorm.DB
}

func (r *permissionRepository) First(ctx context.Context, scopes ...Scope) (*model.Permission, error) {
	var perm model.Permission
	err := r.db.WithContext(ctx).Scopes(scopes...).First(&perm).Error
	if err != nil {
		return nil, err
	}
	return &perm, nil
}

func (r *permissionRepository) Find(ctx context.Context, scopes ...Scope) ([]*model.Permission, error) {
	var perms []*model.Permission
	err := r.db.WithContext(ctx).Model(&model.Permission{}).Scopes(scopes...).Find(&perms).Error
	return perms, err
}

func (r *permissionRepository) FindByIDs(ctx context.Context, ids []uint) ([]model.Permission, error) {
	var perms []model.Permission
	if len(ids) == 0 {
		return perms, nil
	}
	err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&perms).Error
	return perms, err
}

func NewPermissionRepository(db *gorm.DB) PermissionRepository {
	return &permissionRepository{db}
}
