package users

import (
	"context"

	"github.com/khanghh/kcentral/model"
	"gorm.io/gorm"
)

type Scope = func(*gorm.DB) *gorm.DB

type UserRepository interface {
	WithTx(tx *gorm.DB) UserRepository
	Transaction(ctx context.Context, fn func(repo UserRepository) error) error
	First(ctx context.Context, scopes ...Scope) (*model.User, error)
	FirstPreload(ctx context.Context, scopes ...Scope) (*model.User, error)
	Find(ctx context.Context, scopes ...Scope) ([]*model.User, error)
	Create(ctx context.Context, user *model.User) error
	Updates(ctx context.Context, user *model.User, columns map[string]interface{}) error
	ReplaceGroups(ctx context.Context, user *model.User, groups []model.Group) error
	ReplacePermissions(ctx context.Context, user *model.User, perms []model.Permission) error
	Delete(ctx context.Context, userID uint) error
}

type userRepository struct {
	db *gorm.DB
}

func preloadUserRelations(db *gorm.DB) *gorm.DB {
	return db.Preload("Groups", func(db *gorm.DB) *gorm.DB {
		return db.Order("id")
	}).Preload("Groups.Permissions").Preload("Permissions", func(db *gorm.DB) *gorm.DB {
		return db.Order("id")
	})
}

func (r *userRepository) WithTx(tx *gorm.DB) UserRepository {
	return NewUserRepository(tx)
}

func (r *userRepository) Transaction(ctx context.Context, fn func(repo UserRepository) error) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(r.WithTx(tx))
	})
}

func (r *userRepository) First(ctx context.Context, scopes ...Scope) (*model.User, error) {
	var user model.User
	err := r.db.WithContext(ctx).Scopes(scopes...).First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) FirstPreload(ctx context.Context, scopes ...Scope) (*model.User, error) {
	var user model.User
	err := r.db.WithContext(ctx).Scopes(preloadUserRelations).Scopes(scopes...).First(&user).Error
	if err != nil {
		return nil, err
	}
	return &user, nil
}

func (r *userRepository) Find(ctx context.Context, scopes ...Scope) ([]*model.User, error) {
	var users []*model.User
	err := r.db.WithContext(ctx).Model(&model.User{}).Scopes(preloadUserRelations).Scopes(scopes...).Find(&users).Error
	return users, err
}

func (r *userRepository) Create(ctx context.Context, user *model.User) error {
	return r.db.WithContext(ctx).Omit("Groups.*", "Permissions.*").Create(user).Error
}

func (r *userRepository) Updates(ctx context.Context, user *model.User, columns map[string]interface{}) error {
	if len(columns) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Model(user).Omit("Groups", "Permissions").Updates(columns).Error
}

func (r *userRepository) ReplaceGroups(ctx context.Context, user *model.User, groups []model.Group) error {
	assoc := r.db.WithContext(ctx).Model(user).Association("Groups")
	if len(groups) == 0 {
		return assoc.Clear()
	}
	return assoc.Replace(groups)
}

func (r *userRepository) ReplacePermissions(ctx context.Context, user *model.User, perms []model.Permission) error {
	assoc := r.db.WithContext(ctx).Model(user).Association("Permissions")
	if len(perms) == 0 {
		return assoc.Clear()
	}
	return assoc.Replace(perms)
}

// Delete removes the user and detaches the agents and events referencing it.
func (r *userRepository) Delete(ctx context.Context, userID uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&model.Agent{}).Where("user_id = ?", userID).Update("user_id", nil).Error; err != nil {
			return err
		}
		if err := tx.Model(&model.Event{}).Where("user_id = ?", userID).Update("user_id", nil).Error; err != nil {
			return err
		}
		user := &model.User{ID: userID}
		if err := tx.Model(user).Association("Groups").Clear(); err != nil {
			return err
		}
		if err := tx.Model(user).Association("Permissions").Clear(); err != nil {
			return err
		}
		ret := tx.Delete(&model.User{}, userID)
		if ret.Error != nil {
			return ret.Error
		}
		if ret.RowsAffected == 0 {
			return gorm.ErrRecordNotFound
		}
		return nil
	})
}

func NewUserRepository(db *gorm.DB) UserRepository {
	return &userRepository{db}
}
