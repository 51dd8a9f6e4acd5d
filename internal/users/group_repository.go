package users

import (
	"context"

	"github.com/khanghh/kcentral/model"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type GroupRepository interface {
	WithTx(tx *gorm.DB) GroupRepository
	Transaction(ctx context.Context, fn func(repo GroupRepository) error) error
	First(ctx context.Context, scopes ...Scope) (*model.Group, error)
	Find(ctx context.Context, scopes ...Scope) ([]*model.Group, error)
	FindByIDs(ctx context.Context, ids []uint) ([]model.Group, error)
	Create(ctx context.Context, group *model.Group) error
	Updates(ctx context.Context, group *model.Group, columns map[string]interface{}) error
	ReplacePermissions(ctx context.Context, group *model.Group, perms []model.Permission) error
	Delete(ctx context.Context, groupID uint) error
}

type groupRepository struct {
	db *gorm.DB
}

func preloadGroupPermissions(db *gorm.DB) *gorm.DB {
	return db.Preload("Permissions", func(db *gorm.DB) *gorm.DB {
		return db.Order("id")
	})
}

func (r *groupRepository) WithTx(tx *gorm.DB) GroupRepository {
	return NewGroupRepository(tx)
}

func (r *groupRepository) Transaction(ctx context.Context, fn func(repo GroupRepository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(r.WithTx(tx))
	})
}

func (r *groupRepository) First(ctx context.Context, scopes ...Scope) (*model.Group, error) {
	var group model.Group
	err := r.db.WithContext(ctx).Scopes(preloadGroupPermissions).Scopes(scopes...).First(&group).Error
	if err != nil {
		return nil, err
	}
	return &group, nil
}

func (r *groupRepository) Find(ctx context.Context, scopes ...Scope) ([]*model.Group, error) {
	var groups []*model.Group
	err := r.db.WithContext(ctx).Model(&model.Group{}).Scopes(preloadGroupPermissions).Scopes(scopes...).Find(&groups).Error
	return groups, err
}

func (r *groupRepository) FindByIDs(ctx context.Context, ids []uint) ([]model.Group, error) {
	var groups []model.Group
	if len(ids) == 0 {
		return groups, nil
	}
	err := r.db.WithContext(ctx).Where("id IN ?", ids).Find(&groups).Error
	return groups, err
}

func (r *groupRepository) Create(ctx context.Context, group *model.Group) error {
	return r.db.WithContext(ctx).Omit("Permissions.*").Create(group).Error
}

func (r *groupRepository) Updates(ctx context.Context, group *model.Group, columns map[string]interface{}) error {
	if len(columns) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Model(group).Omit("Permissions").Updates(columns).Error
}

func (r *groupRepository) ReplacePermissions(ctx context.Context, group *model.Group, perms []model.Permission) error {
	assoc := r.db.WithContext(ctx).Model(group).Association("Permissions")
	if len(perms) == 0 {
		return assoc.Clear()
	}
	return assoc.Replace(perms)
}

func (r *groupRepository) Delete(ctx context.Context, groupID uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		userGroups := tx.NamingStrategy.JoinTableName("user_groups")
		if err := tx.Exec("DELETE FROM ? WHERE group_id = ?", clause.Table{Name: userGroups}, groupID).Error; err != nil {
			return err
		}
		if err := tx.Model(&model.Group{ID: groupID}).Association("Permissions").Clear(); err != nil {
			return err
		}
		ret := tx.Delete(&model.Group{}, groupID)
		if ret.Error != nil {
			return ret.Error
		}
		if ret.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}

func NewGroupRepository(db *gorm.DB) GroupRepository {
	return &groupRepository{db}
}
