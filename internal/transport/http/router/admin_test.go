package router

import (
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"pawhub/internal/core/auth"
	"pawhub/internal/core/cache"
	"pawhub/internal/domain"
	"pawhub/internal/mailer"
	"pawhub/internal/storage"
	"pawhub/pkg/utils"
)

func newTestAdmin(t *testing.T) (*gin.Engine, *gorm.DB, *auth.JWTer) {
	t.Helper()
	gin.SetMode(gin.TestMode)

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(domain.All()...))

	media, err := storage.NewMediaStore(t.TempDir())
	require.NoError(t, err)

	log := zap.NewNop()
	jwter := &auth.JWTer{Secret: []byte("test-secret"), Issuer: "test", TTL: time.Hour}
	r := NewAdminEngine(Deps{
		Log:   log,
		DB:    db,
		JWT:   jwter,
		Cache: cache.New("127.0.0.1:1", "", 0),
		Mail:  &mailer.LogMailer{Log: log},
		Media: media,
		Env:   "dev",
	})
	return r, db, jwter
}

func seedRoleUser(t *testing.T, db *gorm.DB, username string, role domain.Role) *domain.User {
	t.Helper()
	u := &domain.User{
		ID:           utils.NewID(),
		Username:     username,
		Email:        username + "@example.com",
		PasswordHash: utils.HashPassword("password123"),
		Role:         role,
		IsActive:     true,
	}
	require.NoError(t, db.Create(u).Error)
	return u
}

func TestAdminPlaneRequiresAdminRole(t *testing.T) {
	r, db, jwter := newTestAdmin(t)

	mod := seedRoleUser(t, db, "mod", domain.RoleModerator)
	tok, err := jwter.Issue(mod.ID, mod.Username, string(mod.Role))
	require.NoError(t, err)

	env := doJSON(t, r, "GET", "/admin/v1/users", tok, nil)
	assert.Equal(t, 403, env.Code)

	env = doJSON(t, r, "GET", "/admin/v1/users", "", nil)
	assert.Equal(t, 401, env.Code)
}

func TestAdminBulkActivate(t *testing.T) {
	r, db, jwter := newTestAdmin(t)

	admin := seedRoleUser(t, db, "root", domain.RoleAdmin)
	tok, err := jwter.Issue(admin.ID, admin.Username, string(admin.Role))
	require.NoError(t, err)

	a := seedRoleUser(t, db, "a", domain.RoleUser)
	b := seedRoleUser(t, db, "b", domain.RoleUser)

	env := doJSON(t, r, "POST", "/admin/v1/users/deactivate", tok, gin.H{
		"ids": []string{a.ID, b.ID, "missing-id"},
	})
	require.Equal(t, 0, env.Code, env.Msg)
	var res struct {
		Updated int64 `json:"updated"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &res))
	assert.EqualValues(t, 2, res.Updated) // 不存在的 id 不计入

	var got domain.User
	require.NoError(t, db.First(&got, "id = ?", a.ID).Error)
	assert.False(t, got.IsActive)

	env = doJSON(t, r, "POST", "/admin/v1/users/activate", tok, gin.H{
		"ids": []string{a.ID},
	})
	require.Equal(t, 0, env.Code)
	require.NoError(t, db.First(&got, "id = ?", a.ID).Error)
	assert.True(t, got.IsActive)
}

func TestAdminUserRoleEdit(t *testing.T) {
	r, db, jwter := newTestAdmin(t)

	admin := seedRoleUser(t, db, "root", domain.RoleAdmin)
	tok, err := jwter.Issue(admin.ID, admin.Username, string(admin.Role))
	require.NoError(t, err)
	u := seedRoleUser(t, db, "plain", domain.RoleUser)

	env := doJSON(t, r, "POST", "/admin/v1/users/"+u.ID, tok, gin.H{"role": "superhero"})
	assert.Equal(t, 400, env.Code)

	env = doJSON(t, r, "POST", "/admin/v1/users/"+u.ID, tok, gin.H{"role": "moderator"})
	require.Equal(t, 0, env.Code, env.Msg)

	var got domain.User
	require.NoError(t, db.First(&got, "id = ?", u.ID).Error)
	assert.Equal(t, domain.RoleModerator, got.Role)
}

func TestAdminBreedCRUD(t *testing.T) {
	r, db, jwter := newTestAdmin(t)

	admin := seedRoleUser(t, db, "root", domain.RoleAdmin)
	tok, err := jwter.Issue(admin.ID, admin.Username, string(admin.Role))
	require.NoError(t, err)

	env := doJSON(t, r, "POST", "/admin/v1/breeds", tok, gin.H{"name": "Samoyed"})
	require.Equal(t, 0, env.Code, env.Msg)
	var created struct {
		Breed domain.Breed `json:"breed"`
	}
	require.NoError(t, json.Unmarshal(env.Data, &created))

	env = doJSON(t, r, "POST", "/admin/v1/breeds/"+created.Breed.ID, tok, gin.H{
		"description": "fluffy",
	})
	require.Equal(t, 0, env.Code)

	env = doJSON(t, r, "DELETE", "/admin/v1/breeds/"+created.Breed.ID, tok, nil)
	require.Equal(t, 0, env.Code)

	env = doJSON(t, r, "DELETE", "/admin/v1/breeds/"+created.Breed.ID, tok, nil)
	assert.Equal(t, 404, env.Code)

	var count int64
	require.NoError(t, db.Model(&domain.Breed{}).Count(&count).Error)
	assert.EqualValues(t, 0, count)
}

func TestAdminDogEditRestrictedColumns(t *testing.T) {
	r, db, jwter := newTestAdmin(t)

	admin := seedRoleUser(t, db, "root", domain.RoleAdmin)
	tok, err := jwter.Issue(admin.ID, admin.Username, string(admin.Role))
	require.NoError(t, err)

	owner := seedRoleUser(t, db, "owner", domain.RoleUser)
	breed := &domain.Breed{ID: utils.NewID(), Name: "Husky"}
	require.NoError(t, db.Create(breed).Error)
	d := &domain.Dog{
		ID: utils.NewID(), Name: "Rex", Age: 3, BreedID: breed.ID,
		OwnerID: &owner.ID, Views: 0, IsActive: true,
	}
	require.NoError(t, db.Create(d).Error)

	// 管理端可以直接改 views/is_active
	env := doJSON(t, r, "POST", "/admin/v1/dogs/"+d.ID, tok, gin.H{
		"views": 42, "isActive": false,
	})
	require.Equal(t, 0, env.Code, env.Msg)

	var got domain.Dog
	require.NoError(t, db.First(&got, "id = ?", d.ID).Error)
	assert.EqualValues(t, 42, got.Views)
	assert.False(t, got.IsActive)

	env = doJSON(t, r, "POST", "/admin/v1/dogs/"+d.ID, tok, gin.H{"views": -1})
	assert.Equal(t, 400, env.Code)

	env = doJSON(t, r, "POST", "/admin/v1/dogs/"+d.ID, tok, gin.H{})
	assert.Equal(t, 400, env.Code) // 空更新显式报错
}
