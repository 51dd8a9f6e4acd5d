package users

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/khanghh/kcentral/internal/validation"
	"github.com/khanghh/kcentral/model"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// UserInput carries the client supplied user fields. Nil fields are left
// untouched on update and take their defaults on create.
type UserInput struct {
	Username      *string
	Email         *string
	Password      *string
	FirstName     *string
	LastName      *string
	IsActive      *bool
	IsStaff       *bool
	IsSuperuser   *bool
	GroupIDs      []uint
	SetGroups     bool
	PermissionIDs []uint
	SetPerms      bool
}

type UserService struct {
	userRepo  UserRepository
	groupRepo GroupRepository
	permRepo  PermissionRepository
}

var (
	dummyHash     []byte
	dummyHashOnce sync.Once
)

// compareDummyPassword burns the same time as a real password check so a
// failed login does not reveal whether the account exists.
func compareDummyPassword(password string) {
	dummyHashOnce.Do(func() {
		dummyHash, _ = bcrypt.GenerateFromPassword([]byte("kcentral-dummy-password"), bcrypt.DefaultCost)
	})
	bcrypt.CompareHashAndPassword(dummyHash, []byte(password))
}

func hashPassword(password string) (string, error) {
	passwordHash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(passwordHash), nil
}

func byID(id uint) Scope {
	return func(db *gorm.DB) *gorm.DB {
		return db.Where("id = ?", id)
	}
}

func (s *UserService) GetUserByID(ctx context.Context, userID uint) (*model.User, error) {
	user, err := s.userRepo.FirstPreload(ctx, byID(userID))
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrUserNotFound
	}
	return user, err
}

func (s *UserService) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	if !validation.IsEmail(email) {
		return nil, ErrUserNotFound
	}
	user, err := s.userRepo.First(ctx, func(db *gorm.DB) *gorm.DB {
		return db.Where("email = ?", email)
	})
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrUserNotFound
	}
	return user, err
}

func (s *UserService) GetUserByUsernameOrEmail(ctx context.Context, identifier string) (*model.User, error) {
	column := model.ColUserUsername
	if strings.Contains(identifier, "@") && validation.IsEmail(identifier) {
		column = model.ColUserEmail
	}
	user, err := s.userRepo.First(ctx, func(db *gorm.DB) *gorm.DB {
		return db.Where(column+" = ?", identifier)
	})
	if errors.Is(err, gorm.ErrRecordNotFound) && column == model.ColUserEmail {
		user, err = s.userRepo.First(ctx, func(db *gorm.DB) *gorm.DB {
			return db.Where(model.ColUserUsername+" = ?", identifier)
		})
	}
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrUserNotFound
	}
	return user, err
}

func (s *UserService) ListUsers(ctx context.Context, scopes ...Scope) ([]*model.User, error) {
	return s.userRepo.Find(ctx, scopes...)
}

func (s *UserService) isTaken(ctx context.Context, column string, value string, exclude *model.User) (bool, error) {
	_, err := s.userRepo.First(ctx, func(db *gorm.DB) *gorm.DB {
		db = db.Where(column+" = ?", value)
		if exclude != nil {
			db = db.Where("id <> ?", exclude.ID)
		}
		return db
	})
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	return err == nil, err
}

func firstMissingID(ids []uint, found map[uint]bool) (uint, bool) {
	for _, id := range ids {
		if !found[id] {
			return id, true
		}
	}
	return 0, false
}

func (s *UserService) loadGroups(ctx context.Context, ids []uint, errs validation.Errors) ([]model.Group, error) {
	groups, err := s.groupRepo.FindByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	found := make(map[uint]bool, len(groups))
	for _, g := range groups {
		found[g.ID] = true
	}
	if missing, ok := firstMissingID(ids, found); ok {
		errs.Add("groups", validationPKNotFound(missing))
	}
	return groups, nil
}

func (s *UserService) loadPermissions(ctx context.Context, field string, ids []uint, errs validation.Errors) ([]model.Permission, error) {
	perms, err := s.permRepo.FindByIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	found := make(map[uint]bool, len(perms))
	for _, p := range perms {
		found[p.ID] = true
	}
	if missing, ok := firstMissingID(ids, found); ok {
		errs.Add(field, validationPKNotFound(missing))
	}
	return perms, nil
}

func validationPKNotFound(id uint) string {
	return fmt.Sprintf(validation.MsgPKNotFound, id)
}

func pick(val *string, fallback string) string {
	if val != nil {
		return *val
	}
	return fallback
}

// ValidateUser runs the checks that need the database or the other fields of
// the record: uniqueness, related rows and password strength. existing is nil
// when a new user is being created.
func (s *UserService) ValidateUser(ctx context.Context, existing *model.User, in UserInput) (validation.Errors, error) {
	errs := validation.Errors{}
	var current model.User
	if existing != nil {
		current = *existing
	}

	// input that did not come through a Form, e.g. the CLI, is checked here
	if in.Username != nil && !validation.IsUsername(*in.Username) {
		errs.Add("username", validation.MsgInvalidUsername)
	} else if in.Username != nil {
		taken, err := s.isTaken(ctx, model.ColUserUsername, *in.Username, existing)
		if err != nil {
			return nil, err
		}
		if taken {
			errs.Add("username", MsgUsernameTaken)
		}
	}
	if in.Email != nil && !validation.IsEmail(*in.Email) {
		errs.Add("email", validation.MsgInvalidEmail)
	} else if in.Email != nil {
		taken, err := s.isTaken(ctx, model.ColUserEmail, *in.Email, existing)
		if err != nil {
			return nil, err
		}
		if taken {
			errs.Add("email", MsgEmailRegistred)
		}
	}
	if in.Password != nil {
		attrs := []validation.UserAttribute{
			{Name: "username", Value: pick(in.Username, current.Username)},
			{Name: "email", Value: pick(in.Email, current.Email)},
			{Name: "first name", Value: pick(in.FirstName, current.FirstName)},
			{Name: "last name", Value: pick(in.LastName, current.LastName)},
		}
		for _, msg := range validation.ValidatePassword(*in.Password, attrs...) {
			errs.Add("password", msg)
		}
	}
	if in.SetGroups {
		if _, err := s.loadGroups(ctx, in.GroupIDs, errs); err != nil {
			return nil, err
		}
	}
	if in.SetPerms {
		if _, err := s.loadPermissions(ctx, "user_permissions", in.PermissionIDs, errs); err != nil {
			return nil, err
		}
	}
	return errs, nil
}

func duplicateUserErrors(err error) error {
	idx, ok := duplicateIndex(err, model.IdxUserUsername, model.IdxUserEmail, "user.email")
	if !ok {
		return err
	}
	switch idx {
	case model.IdxUserEmail, "user.email":
		return validation.FieldError("email", MsgEmailRegistred)
	default:
		return validation.FieldError("username", MsgUsernameTaken)
	}
}

func (s *UserService) CreateUser(ctx context.Context, in UserInput) (*model.User, error) {
	if in.Username == nil || in.Email == nil || in.Password == nil {
		return nil, fmt.Errorf("create user: username, email and password are required")
	}
	errs, err := s.ValidateUser(ctx, nil, in)
	if err != nil {
		return nil, err
	}
	if !errs.Empty() {
		return nil, errs
	}

	passwordHash, err := hashPassword(*in.Password)
	if err != nil {
		return nil, err
	}

	user := model.User{
		Username:  *in.Username,
		Email:     *in.Email,
		Password:  passwordHash,
		FirstName: pick(in.FirstName, ""),
		LastName:  pick(in.LastName, ""),
		IsActive:  true,
	}
	if in.IsActive != nil {
		user.IsActive = *in.IsActive
	}
	if in.IsStaff != nil {
		user.IsStaff = *in.IsStaff
	}
	if in.IsSuperuser != nil {
		user.IsSuperuser = *in.IsSuperuser
	}
	if in.SetGroups {
		if user.Groups, err = s.groupRepo.FindByIDs(ctx, in.GroupIDs); err != nil {
			return nil, err
		}
	}
	if in.SetPerms {
		if user.Permissions, err = s.permRepo.FindByIDs(ctx, in.PermissionIDs); err != nil {
			return nil, err
		}
	}

	if err := s.userRepo.Create(ctx, &user); err != nil {
		return nil, duplicateUserErrors(err)
	}
	return s.GetUserByID(ctx, user.ID)
}

func (s *UserService) UpdateUser(ctx context.Context, user *model.User, in UserInput) (*model.User, error) {
	errs, err := s.ValidateUser(ctx, user, in)
	if err != nil {
		return nil, err
	}
	if !errs.Empty() {
		return nil, errs
	}

	columns := make(map[string]interface{})
	setString := func(col string, val *string) {
		if val != nil {
			columns[col] = *val
		}
	}
	setBool := func(col string, val *bool) {
		if val != nil {
			columns[col] = *val
		}
	}
	setString(model.ColUserUsername, in.Username)
	setString(model.ColUserEmail, in.Email)
	setString(model.ColUserFirstName, in.FirstName)
	setString(model.ColUserLastName, in.LastName)
	setBool(model.ColUserIsActive, in.IsActive)
	setBool(model.ColUserIsStaff, in.IsStaff)
	setBool(model.ColUserIsSuperuser, in.IsSuperuser)
	if in.Password != nil {
		passwordHash, err := hashPassword(*in.Password)
		if err != nil {
			return nil, err
		}
		columns[model.ColUserPassword] = passwordHash
	}

	var (
		groups []model.Group
		perms  []model.Permission
	)
	if in.SetGroups {
		if groups, err = s.groupRepo.FindByIDs(ctx, in.GroupIDs); err != nil {
			return nil, err
		}
	}
	if in.SetPerms {
		if perms, err = s.permRepo.FindByIDs(ctx, in.PermissionIDs); err != nil {
			return nil, err
		}
	}

	err = s.userRepo.Transaction(ctx, func(repo UserRepository) error {
		if err := repo.Updates(ctx, user, columns); err != nil {
			return err
		}
		if in.SetGroups {
			if err := repo.ReplaceGroups(ctx, user, groups); err != nil {
				return err
			}
		}
		if in.SetPerms {
			if err := repo.ReplacePermissions(ctx, user, perms); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, duplicateUserErrors(err)
	}
	return s.GetUserByID(ctx, user.ID)
}

func (s *UserService) DeleteUser(ctx context.Context, userID uint) error {
	err := s.userRepo.Delete(ctx, userID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return ErrUserNotFound
	}
	return err
}

// Authenticate checks the credentials and records the login time.
func (s *UserService) Authenticate(ctx context.Context, identifier string, password string) (*model.User, error) {
	user, err := s.GetUserByUsernameOrEmail(ctx, identifier)
	if errors.Is(err, ErrUserNotFound) {
		compareDummyPassword(password)
		return nil, ErrInvalidCredentials
	}
	if err != nil {
		return nil, err
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)); err != nil {
		return nil, ErrInvalidCredentials
	}
	if !user.IsActive {
		return nil, ErrInvalidCredentials
	}

	now := time.Now()
	if err := s.userRepo.Updates(ctx, user, map[string]interface{}{model.ColUserLastLogin: now}); err != nil {
		return nil, err
	}
	user.LastLogin = &now
	return user, nil
}

// CheckPassword reports whether password matches the stored hash of the user.
func (s *UserService) CheckPassword(user *model.User, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(password)) == nil
}

// UpdatePassword validates the new password against the strength rules and
// stores its hash.
func (s *UserService) UpdatePassword(ctx context.Context, user *model.User, newPassword string) error {
	attrs := []validation.UserAttribute{
		{Name: "username", Value: user.Username},
		{Name: "email", Value: user.Email},
		{Name: "first name", Value: user.FirstName},
		{Name: "last name", Value: user.LastName},
	}
	if msgs := validation.ValidatePassword(newPassword, attrs...); len(msgs) > 0 {
		return validation.Errors{"password": msgs}
	}
	passwordHash, err := hashPassword(newPassword)
	if err != nil {
		return err
	}
	updates := map[string]interface{}{
		model.ColUserPassword: passwordHash,
	}
	if err := s.userRepo.Updates(ctx, user, updates); err != nil {
		return err
	}
	user.Password = passwordHash
	return nil
}

func NewUserService(userRepo UserRepository, groupRepo GroupRepository, permRepo PermissionRepository) *UserService {
	return &UserService{
		userRepo:  userRepo,
		groupRepo: groupRepo,
		permRepo:  permRepo,
	}
}
