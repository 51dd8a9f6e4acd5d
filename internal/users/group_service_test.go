package users

import (
	"context"
	"testing"

	"github.com/khanghh/kcentral/internal/testutil"
	"github.com/khanghh/kcentral/internal/validation"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGroupLifecycle(t *testing.T) {
	ctx := context.Background()
	db, userSvc, svc := newTestServices(t)

	group, err := svc.CreateGroup(ctx, GroupInput{Name: strPtr("operators")})
	require.NoError(t, err)
	assert.Empty(t, group.Permissions)

	_, err = svc.CreateGroup(ctx, GroupInput{Name: strPtr("operators")})
	var errs validation.Errors
	require.ErrorAs(t, err, &errs)
	assert.Equal(t, []string{MsgGroupNameTaken}, errs["name"])

	_, err = svc.UpdateGroup(ctx, group, GroupInput{PermissionIDs: []uint{9999}, SetPerms: true})
	require.ErrorAs(t, err, &errs)
	assert.Equal(t, []string{`Invalid pk "9999" - object does not exist.`}, errs["permissions"])

	group, err = svc.UpdateGroup(ctx, group, GroupInput{
		Name:          strPtr("ops"),
		PermissionIDs: testutil.PermissionIDs(t, db, "view_agent", "change_agent"),
		SetPerms:      true,
	})
	require.NoError(t, err)
	assert.Equal(t, "ops", group.Name)
	assert.Len(t, group.Permissions, 2)

	user := createTestUser(t, userSvc, "alice")
	_, err = userSvc.UpdateUser(ctx, user, UserInput{GroupIDs: []uint{group.ID}, SetGroups: true})
	require.NoError(t, err)

	require.NoError(t, svc.DeleteGroup(ctx, group.ID))
	assert.ErrorIs(t, svc.DeleteGroup(ctx, group.ID), ErrGroupNotFound)

	user, err = userSvc.GetUserByID(ctx, user.ID)
	require.NoError(t, err)
	assert.Empty(t, user.Groups)
}

func TestPermissionService(t *testing.T) {
	ctx := context.Background()
	db := testutil.NewDB(t)
	svc := NewPermissionService(NewPermissionRepository(db))

	perms, err := svc.ListPermissions(ctx)
	require.NoError(t, err)
	assert.Len(t, perms, 20)

	perm, err := svc.GetPermissionByID(ctx, perms[0].ID)
	require.NoError(t, err)
	assert.Equal(t, perms[0].Codename, perm.Codename)

	_, err = svc.GetPermissionByID(ctx, 100000)
	assert.ErrorIs(t, err, ErrPermissionNotFound)
}
