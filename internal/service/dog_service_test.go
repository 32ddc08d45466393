package service

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pawhub/internal/domain"
	resp "pawhub/internal/transport/http/response"
)

func intp(v int) *int { return &v }

func TestCreateDogForcedDefaults(t *testing.T) {
	db := newTestDB(t)
	_, dogs, _, mail := newServices(t, db)
	ctx := context.Background()

	owner := seedUser(t, db, "owner", "owner@example.com", domain.RoleUser)
	breed := seedBreed(t, db, "Husky")

	d, err := dogs.Create(ctx, owner.ID, DogInput{
		Name:    "Rex",
		BreedID: breed.ID,
		Age:     intp(3),
		Pedigree: []PedigreeInput{
			{AncestorName: "Old Rex", Relationship: "father", BirthYear: intp(2018)},
		},
	})
	require.NoError(t, err)

	// owner/views/is_active 由服务端强制，调用方给不了别的值
	require.NotNil(t, d.OwnerID)
	assert.Equal(t, owner.ID, *d.OwnerID)
	assert.EqualValues(t, 0, d.Views)
	assert.True(t, d.IsActive)

	var rows []domain.Pedigree
	require.NoError(t, db.Where("dog_id = ?", d.ID).Find(&rows).Error)
	require.Len(t, rows, 1)
	assert.Equal(t, "Old Rex", rows[0].AncestorName)

	msgs := mail.messages()
	require.Len(t, msgs, 1)
	assert.Equal(t, "owner@example.com", msgs[0].To)
}

func TestCreateDogValidationAllOrNothing(t *testing.T) {
	db := newTestDB(t)
	_, dogs, _, _ := newServices(t, db)
	ctx := context.Background()

	owner := seedUser(t, db, "owner", "o@example.com", domain.RoleUser)
	breed := seedBreed(t, db, "Beagle")

	// 血统行校验失败整体拒绝，狗也不落库
	_, err := dogs.Create(ctx, owner.ID, DogInput{
		Name:    "Spot",
		BreedID: breed.ID,
		Age:     intp(2),
		Pedigree: []PedigreeInput{
			{AncestorName: ""},
			{AncestorName: "Gran", BirthYear: intp(99999)},
		},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "pedigree row 1")
	assert.Contains(t, err.Error(), "pedigree row 2")

	var count int64
	require.NoError(t, db.Model(&domain.Dog{}).Count(&count).Error)
	assert.EqualValues(t, 0, count)
}

func TestCreateDogUnknownBreed(t *testing.T) {
	db := newTestDB(t)
	_, dogs, _, _ := newServices(t, db)
	owner := seedUser(t, db, "owner", "o@example.com", domain.RoleUser)

	_, err := dogs.Create(context.Background(), owner.ID, DogInput{
		Name:    "Spot",
		BreedID: "nope",
		Age:     intp(1),
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown breed")
}

func TestViewCountsOnlyStrangers(t *testing.T) {
	db := newTestDB(t)
	_, dogs, _, _ := newServices(t, db)
	ctx := context.Background()

	owner := seedUser(t, db, "owner", "o@example.com", domain.RoleUser)
	stranger := seedUser(t, db, "visitor", "v@example.com", domain.RoleUser)
	breed := seedBreed(t, db, "Corgi")
	d, err := dogs.Create(ctx, owner.ID, DogInput{Name: "Miso", BreedID: breed.ID, Age: intp(1)})
	require.NoError(t, err)

	// 主人自己看不计数
	got, err := dogs.View(ctx, d.ID, owner.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 0, got.Views)

	// 登录的陌生人和匿名都计数
	got, err = dogs.View(ctx, d.ID, stranger.ID)
	require.NoError(t, err)
	assert.EqualValues(t, 1, got.Views)

	got, err = dogs.View(ctx, d.ID, "")
	require.NoError(t, err)
	assert.EqualValues(t, 2, got.Views)
}

func TestViewMilestoneEmailAtHundred(t *testing.T) {
	db := newTestDB(t)
	_, dogs, _, mail := newServices(t, db)
	ctx := context.Background()

	owner := seedUser(t, db, "owner", "o@example.com", domain.RoleUser)
	breed := seedBreed(t, db, "Akita")
	d, err := dogs.Create(ctx, owner.ID, DogInput{Name: "Hachi", BreedID: breed.ID, Age: intp(5)})
	require.NoError(t, err)
	baseline := len(mail.messages()) // 建狗邮件

	for i := 0; i < 100; i++ {
		_, err := dogs.View(ctx, d.ID, "")
		require.NoError(t, err)
	}

	msgs := mail.messages()[baseline:]
	require.Len(t, msgs, 1)
	assert.Contains(t, msgs[0].Subject, "100")
	assert.Equal(t, "o@example.com", msgs[0].To)

	// 101 次不再发
	_, err = dogs.View(ctx, d.ID, "")
	require.NoError(t, err)
	assert.Len(t, mail.messages()[baseline:], 1)
}

func TestUpdateDogPermissions(t *testing.T) {
	db := newTestDB(t)
	_, dogs, _, _ := newServices(t, db)
	ctx := context.Background()

	owner := seedUser(t, db, "owner", "o@example.com", domain.RoleUser)
	other := seedUser(t, db, "other", "x@example.com", domain.RoleUser)
	mod := seedUser(t, db, "mod", "m@example.com", domain.RoleModerator)
	breed := seedBreed(t, db, "Pug")
	d, err := dogs.Create(ctx, owner.ID, DogInput{Name: "Bean", BreedID: breed.ID, Age: intp(2)})
	require.NoError(t, err)

	in := DogInput{Name: "Bean II", BreedID: breed.ID, Age: intp(3)}

	// 陌生人明确 403
	_, err = dogs.Update(ctx, d.ID, other.ID, other.Role, in)
	require.Error(t, err)
	var ae *resp.AErr
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, 403, ae.Code)

	// 主人可以
	got, err := dogs.Update(ctx, d.ID, owner.ID, owner.Role, in)
	require.NoError(t, err)
	assert.Equal(t, "Bean II", got.Name)
	assert.Equal(t, 3, got.Age)

	// 版主也可以
	_, err = dogs.Update(ctx, d.ID, mod.ID, mod.Role, DogInput{Name: "Bean III", BreedID: breed.ID, Age: intp(3)})
	require.NoError(t, err)
}

func TestUpdateDogWhitelistAndPedigreeReplace(t *testing.T) {
	db := newTestDB(t)
	_, dogs, _, _ := newServices(t, db)
	ctx := context.Background()

	owner := seedUser(t, db, "owner", "o@example.com", domain.RoleUser)
	breed := seedBreed(t, db, "Shiba")
	d, err := dogs.Create(ctx, owner.ID, DogInput{
		Name: "Momo", BreedID: breed.ID, Age: intp(2),
		Pedigree: []PedigreeInput{{AncestorName: "Papa"}},
	})
	require.NoError(t, err)

	// 先灌点浏览量
	_, err = dogs.View(ctx, d.ID, "")
	require.NoError(t, err)

	got, err := dogs.Update(ctx, d.ID, owner.ID, owner.Role, DogInput{
		Name: "Momo", BreedID: breed.ID, Age: intp(3),
		Pedigree: []PedigreeInput{{AncestorName: "Mama"}, {AncestorName: "Papa"}},
	})
	require.NoError(t, err)

	// 计数器不被编辑覆盖，血统整组替换
	assert.EqualValues(t, 1, got.Views)
	assert.True(t, got.IsActive)
	require.Len(t, got.Pedigree, 2)
}

func TestUpdateDogRemovesReplacedImage(t *testing.T) {
	db := newTestDB(t)
	_, dogs, _, _, store := newServicesFull(t, db)
	ctx := context.Background()

	owner := seedUser(t, db, "owner", "o@example.com", domain.RoleUser)
	breed := seedBreed(t, db, "Vizsla")

	oldRel := "dog_photos/old.png"
	newRel := "dog_photos/new.png"
	for _, rel := range []string{oldRel, newRel} {
		require.NoError(t, os.WriteFile(filepath.Join(store.Root(), filepath.FromSlash(rel)), []byte("img"), 0o644))
	}

	d, err := dogs.Create(ctx, owner.ID, DogInput{Name: "Ziggy", BreedID: breed.ID, Age: intp(2), ImagePath: oldRel})
	require.NoError(t, err)

	got, err := dogs.Update(ctx, d.ID, owner.ID, owner.Role, DogInput{
		Name: "Ziggy", BreedID: breed.ID, Age: intp(2), ImagePath: newRel,
	})
	require.NoError(t, err)
	assert.Equal(t, newRel, got.Image)

	// 旧图被清掉，新图还在
	_, err = os.Stat(filepath.Join(store.Root(), filepath.FromSlash(oldRel)))
	assert.True(t, os.IsNotExist(err))
	_, err = os.Stat(filepath.Join(store.Root(), filepath.FromSlash(newRel)))
	require.NoError(t, err)

	// 不带图的编辑不动现有文件
	_, err = dogs.Update(ctx, d.ID, owner.ID, owner.Role, DogInput{
		Name: "Ziggy", BreedID: breed.ID, Age: intp(3),
	})
	require.NoError(t, err)
	_, err = os.Stat(filepath.Join(store.Root(), filepath.FromSlash(newRel)))
	require.NoError(t, err)
}

func TestDeleteDogCascadesPedigree(t *testing.T) {
	db := newTestDB(t)
	_, dogs, _, _ := newServices(t, db)
	ctx := context.Background()

	owner := seedUser(t, db, "owner", "o@example.com", domain.RoleUser)
	other := seedUser(t, db, "other", "x@example.com", domain.RoleUser)
	breed := seedBreed(t, db, "Lab")
	d, err := dogs.Create(ctx, owner.ID, DogInput{
		Name: "Sunny", BreedID: breed.ID, Age: intp(4),
		Pedigree: []PedigreeInput{{AncestorName: "Ray"}},
	})
	require.NoError(t, err)

	require.Error(t, dogs.Delete(ctx, d.ID, other.ID, other.Role))
	require.NoError(t, dogs.Delete(ctx, d.ID, owner.ID, owner.Role))

	var count int64
	require.NoError(t, db.Model(&domain.Pedigree{}).Where("dog_id = ?", d.ID).Count(&count).Error)
	assert.EqualValues(t, 0, count)

	_, err = dogs.View(ctx, d.ID, "")
	require.Error(t, err)
}

func TestSearchDogsMatchesNameAndBreed(t *testing.T) {
	db := newTestDB(t)
	_, dogs, _, _ := newServices(t, db)
	ctx := context.Background()

	owner := seedUser(t, db, "owner", "o@example.com", domain.RoleUser)
	husky := seedBreed(t, db, "Husky")
	pug := seedBreed(t, db, "Pug")
	_, err := dogs.Create(ctx, owner.ID, DogInput{Name: "Storm", BreedID: husky.ID, Age: intp(2)})
	require.NoError(t, err)
	_, err = dogs.Create(ctx, owner.ID, DogInput{Name: "Pickle", BreedID: pug.ID, Age: intp(1)})
	require.NoError(t, err)

	// 按名字
	got, err := dogs.Search(ctx, "storm")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Storm", got[0].Name)

	// 按品种名，大小写不敏感
	got, err = dogs.Search(ctx, "HUSKY")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "Storm", got[0].Name)

	got, err = dogs.Search(ctx, "zzz")
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestSearchBreeds(t *testing.T) {
	db := newTestDB(t)
	_, dogs, _, _ := newServices(t, db)
	ctx := context.Background()

	seedBreed(t, db, "Golden Retriever")
	seedBreed(t, db, "Border Collie")

	got, err := dogs.SearchBreeds(ctx, "gold")
	require.NoError(t, err)
	require.Len(t, got, 1)

	// 空串返回全部
	got, err = dogs.SearchBreeds(ctx, "")
	require.NoError(t, err)
	assert.Len(t, got, 2)
}
