package service

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pawhub/internal/domain"
	resp "pawhub/internal/transport/http/response"
	"pawhub/pkg/utils"
)

func TestRegisterAndLogin(t *testing.T) {
	db := newTestDB(t)
	accounts, _, _, mail := newServices(t, db)
	ctx := context.Background()

	u, err := accounts.Register(ctx, RegisterInput{
		Username:        "alice",
		Email:           "alice@example.com",
		Password:        "password123",
		PasswordConfirm: "password123",
	})
	require.NoError(t, err)
	assert.Equal(t, domain.RoleUser, u.Role)
	assert.True(t, u.IsActive)
	assert.NotEqual(t, "password123", u.PasswordHash)

	// 注册触发欢迎邮件
	msgs := mail.messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, "alice@example.com", msgs[0].To)

	got, err := accounts.Login(ctx, "alice", "password123")
	require.NoError(t, err)
	assert.Equal(t, u.ID, got.ID)

	_, err = accounts.Login(ctx, "alice", "wrongpass")
	require.Error(t, err)
	var ae *resp.AErr
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, 401, ae.Code)
}

func TestRegisterValidationAccumulates(t *testing.T) {
	db := newTestDB(t)
	accounts, _, _, _ := newServices(t, db)

	_, err := accounts.Register(context.Background(), RegisterInput{
		Username:        "",
		Email:           "not-an-email",
		Password:        "short",
		PasswordConfirm: "short",
	})
	require.Error(t, err)
	msg := err.Error()
	assert.Contains(t, msg, "username is required")
	assert.Contains(t, msg, "valid email")
	assert.Contains(t, msg, "at least 8 characters")
}

func TestRegisterDuplicateUsername(t *testing.T) {
	db := newTestDB(t)
	accounts, _, _, _ := newServices(t, db)
	ctx := context.Background()

	in := RegisterInput{
		Username:        "bob",
		Email:           "bob@example.com",
		Password:        "password123",
		PasswordConfirm: "password123",
	}
	_, err := accounts.Register(ctx, in)
	require.NoError(t, err)

	_, err = accounts.Register(ctx, in)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already taken")
}

func TestLoginDisabledAccount(t *testing.T) {
	db := newTestDB(t)
	accounts, _, _, _ := newServices(t, db)
	ctx := context.Background()

	u := seedUser(t, db, "ghost", "ghost@example.com", domain.RoleUser)
	u.IsActive = false
	require.NoError(t, db.Save(u).Error)

	_, err := accounts.Login(ctx, "ghost", "password123")
	require.Error(t, err)
	var ae *resp.AErr
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, 403, ae.Code)
}

func TestUpdateProfileUsernameConflict(t *testing.T) {
	db := newTestDB(t)
	accounts, _, _, _ := newServices(t, db)
	ctx := context.Background()

	seedUser(t, db, "taken", "t@example.com", domain.RoleUser)
	u := seedUser(t, db, "carol", "c@example.com", domain.RoleUser)

	_, err := accounts.UpdateProfile(ctx, u.ID, UpdateProfileInput{Username: "taken", Email: u.Email})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already taken")

	// 改回自己的名字不算冲突
	got, err := accounts.UpdateProfile(ctx, u.ID, UpdateProfileInput{Username: "carol", Email: u.Email, Bio: "hi"})
	require.NoError(t, err)
	assert.Equal(t, "hi", got.Bio)
}

func TestUpdateProfileRemovesReplacedAvatar(t *testing.T) {
	db := newTestDB(t)
	accounts, _, _, _, store := newServicesFull(t, db)
	ctx := context.Background()

	u := seedUser(t, db, "frank", "f@example.com", domain.RoleUser)
	oldRel := "avatars/old.png"
	newRel := "avatars/new.png"
	for _, rel := range []string{oldRel, newRel} {
		require.NoError(t, os.WriteFile(filepath.Join(store.Root(), filepath.FromSlash(rel)), []byte("img"), 0o644))
	}
	u.Avatar = oldRel
	require.NoError(t, db.Save(u).Error)

	got, err := accounts.UpdateProfile(ctx, u.ID, UpdateProfileInput{
		Username: "frank", Email: u.Email, AvatarPath: &newRel,
	})
	require.NoError(t, err)
	assert.Equal(t, newRel, got.Avatar)

	_, err = os.Stat(filepath.Join(store.Root(), filepath.FromSlash(oldRel)))
	assert.True(t, os.IsNotExist(err))

	// 不换头像的编辑不动文件
	_, err = accounts.UpdateProfile(ctx, u.ID, UpdateProfileInput{Username: "frank", Email: u.Email})
	require.NoError(t, err)
	_, err = os.Stat(filepath.Join(store.Root(), filepath.FromSlash(newRel)))
	require.NoError(t, err)
}

func TestChangePasswordManualRules(t *testing.T) {
	db := newTestDB(t)
	accounts, _, _, _ := newServices(t, db)
	ctx := context.Background()
	u := seedUser(t, db, "dave", "d@example.com", domain.RoleUser)

	require.Error(t, accounts.ChangePasswordManual(ctx, u.ID, "short", "short"))
	require.Error(t, accounts.ChangePasswordManual(ctx, u.ID, "longenough1", "different1"))

	require.NoError(t, accounts.ChangePasswordManual(ctx, u.ID, "newpassword1", "newpassword1"))
	_, err := accounts.Login(ctx, "dave", "newpassword1")
	require.NoError(t, err)
	_, err = accounts.Login(ctx, "dave", "password123")
	require.Error(t, err)
}

func TestResetPasswordGenerated(t *testing.T) {
	db := newTestDB(t)
	accounts, _, _, mail := newServices(t, db)
	ctx := context.Background()
	u := seedUser(t, db, "erin", "erin@example.com", domain.RoleUser)

	require.NoError(t, accounts.ResetPasswordGenerated(ctx, u.ID))

	msgs := mail.messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, "erin@example.com", msgs[0].To)

	// 邮件正文里的新密码能登录
	idx := strings.LastIndex(msgs[0].Body, ": ")
	require.Greater(t, idx, 0)
	newPass := msgs[0].Body[idx+2:]
	assert.Len(t, newPass, 12)
	_, err := accounts.Login(ctx, "erin", newPass)
	require.NoError(t, err)
}

func TestResetPasswordNoEmail(t *testing.T) {
	db := newTestDB(t)
	accounts, _, _, _ := newServices(t, db)
	ctx := context.Background()

	u := &domain.User{
		ID:           utils.NewID(),
		Username:     "noaddr",
		PasswordHash: utils.HashPassword("password123"),
		Role:         domain.RoleUser,
		IsActive:     true,
	}
	require.NoError(t, db.Create(u).Error)

	err := accounts.ResetPasswordGenerated(ctx, u.ID)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no email address")
}

func TestListPublicOnlyActiveUsers(t *testing.T) {
	db := newTestDB(t)
	accounts, _, _, _ := newServices(t, db)
	ctx := context.Background()

	seedUser(t, db, "zoe", "z@example.com", domain.RoleUser)
	seedUser(t, db, "adam", "a@example.com", domain.RoleAdmin)
	off := seedUser(t, db, "offline", "off@example.com", domain.RoleUser)
	off.IsActive = false
	require.NoError(t, db.Save(off).Error)

	users, err := accounts.ListPublic(ctx)
	require.NoError(t, err)
	require.Len(t, users, 2)
	// 按用户名排序，停用账号不出现
	assert.Equal(t, "adam", users[0].Username)
	assert.Equal(t, "zoe", users[1].Username)
}

func TestListNonAdminExcludesAdmins(t *testing.T) {
	db := newTestDB(t)
	accounts, _, _, _ := newServices(t, db)
	ctx := context.Background()

	seedUser(t, db, "root", "root@example.com", domain.RoleAdmin)
	seedUser(t, db, "mod", "mod@example.com", domain.RoleModerator)
	seedUser(t, db, "plain", "plain@example.com", domain.RoleUser)

	users, err := accounts.ListNonAdmin(ctx)
	require.NoError(t, err)
	require.Len(t, users, 2)
	for _, u := range users {
		assert.False(t, u.Role.IsAdmin())
	}
}
