package users

import (
	"context"
	"errors"

	"github.com/khanghh/kcentral/model"
	"gorm.io/gorm"
)

// PermissionService exposes the seeded permissions. They are read only.
type PermissionService struct {
	permRepo PermissionRepository
}

func (s *PermissionService) GetPermissionByID(ctx context.Context, permID uint) (*model.Permission, error) {
	perm, err := s.permRepo.First(ctx, byID(permID))
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrPermissionNotFound
	}
	return perm, err
}

func (s *PermissionService) ListPermissions(ctx context.Context, scopes ...Scope) ([]*model.Permission, error) {
	return s.permRepo.Find(ctx, scopes...)
}

func NewPermissionService(permRepo PermissionRepository) *PermissionService {
	return &PermissionService{permRepo: permRepo}
}
