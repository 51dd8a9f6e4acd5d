package users

import (
	"context"
	"errors"

	"github.com/khanghh/kcentral/internal/validation"
	"github.com/khanghh/kcentral/model"
	"gorm.io/gorm"
)

type GroupInput struct {
	Name          *string
	PermissionIDs []uint
	SetPerms      bool
}

type GroupService struct {
	groupRepo GroupRepository
	permRepo  PermissionRepository
}

func (s *GroupService) GetGroupByID(ctx context.Context, groupID uint) (*model.Group, error) {
	group, err := s.groupRepo.First(ctx, byID(groupID))
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrGroupNotFound
	}
	return group, err
}

func (s *GroupService) ListGroups(ctx context.Context, scopes ...Scope) ([]*model.Group, error) {
	return s.groupRepo.Find(ctx, scopes...)
}

func (s *GroupService) ValidateGroup(ctx context.Context, existing *model.Group, in GroupInput) (validation.Errors, error) {
	errs := validation.Errors{}
	if in.Name != nil {
		_, err := s.groupRepo.First(ctx, func(db *gorm.DB) *gorm.DB {
			db = db.Where("name = ?", *in.Name)
			if existing != nil {
				db = db.Where("id <> ?", existing.ID)
			}
			return db
		})
		if err == nil {
			errs.Add("name", MsgGroupNameTaken)
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
	}
	if in.SetPerms {
		perms, err := s.permRepo.FindByIDs(ctx, in.PermissionIDs)
		if err != nil {
			return nil, err
		}
		found := make(map[uint]bool, len(perms))
		for _, p := range perms {
			found[p.ID] = true
		}
		if missing, ok := firstMissingID(in.PermissionIDs, found); ok {
			errs.Add("permissions", validationPKNotFound(missing))
		}
	}
	return errs, nil
}

func duplicateGroupErrors(err error) error {
	if _, ok := duplicateIndex(err, model.IdxGroupName); ok {
		return validation.FieldError("name", MsgGroupNameTaken)
	}
	return err
}

func (s *GroupService) CreateGroup(ctx context.Context, in GroupInput) (*model.Group, error) {
	if in.Name == nil {
		return nil, errors.New("create group: name is required")
	}
	errs, err := s.ValidateGroup(ctx, nil, in)
	if err != nil {
		return nil, err
	}
	if !errs.Empty() {
		return nil, errs
	}
	group := model.Group{Name: *in.Name}
	if in.SetPerms {
		if group.Permissions, err = s.permRepo.FindByIDs(ctx, in.PermissionIDs); err != nil {
			return nil, err
		}
	}
	if err := s.groupRepo.Create(ctx, &group); err != nil {
		return nil, duplicateGroupErrors(err)
	}
	return s.GetGroupByID(ctx, group.ID)
}

func (s *GroupService) UpdateGroup(ctx context.Context, group *model.Group, in GroupInput) (*model.Group, error) {
	errs, err := s.ValidateGroup(ctx, group, in)
	if err != nil {
		return nil, err
	}
	if !errs.Empty() {
		return nil, errs
	}
	var perms []model.Permission
	if in.SetPerms {
		if perms, err = s.permRepo.FindByIDs(ctx, in.PermissionIDs); err != nil {
			return nil, err
		}
	}
	err = s.groupRepo.Transaction(ctx, func(repo GroupRepository) error {
		if in.Name != nil {
			if err := repo.Updates(ctx, group, map[string]interface{}{"name": *in.Name}); err != nil {
				return err
			}
		}
		if in.SetPerms {
			return repo.ReplacePermissions(ctx, group, perms)
		}
		return nil
	})
	if err != nil {
		return nil, duplicateGroupErrors(err)
	}
	return s.GetGroupByID(ctx, group.ID)
}

func (s *GroupService) DeleteGroup(ctx context.Context, groupID uint) error {
	err := s.groupRepo.Delete(ctx, groupID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrGroupNotFound
	}
	return err
}

func NewGroupService(groupRepo GroupRepository, permRepo PermissionRepository) *GroupService {
	return &GroupService{
		groupRepo: groupRepo,
		permRepo:  permRepo,
	}
}
