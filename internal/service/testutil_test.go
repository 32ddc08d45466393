package service

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"pawhub/internal/domain"
	"pawhub/internal/mailer"
	"pawhub/internal/repo"
	"pawhub/internal/storage"
	"pawhub/pkg/utils"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("open sqlite: %v", err)
	}
	if err := db.AutoMigrate(domain.All()...); err != nil {
		t.Fatalf("automigrate: %v", err)
	}
	return db
}

// captureMailer 记录发出的每封邮件
type captureMailer struct {
	mu   sync.Mutex
	sent []mailer.Message
}

func (m *captureMailer) Send(_ context.Context, msg mailer.Message) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sent = append(m.sent, msg)
	return nil
}

func (m *captureMailer) messages() []mailer.Message {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]mailer.Message, len(m.sent))
	copy(out, m.sent)
	return out
}

func seedUser(t *testing.T, db *gorm.DB, username, email string, role domain.Role) *domain.User {
	t.Helper()
	u := &domain.User{
		ID:           utils.NewID(),
		Username:     username,
		Email:        email,
		PasswordHash: utils.HashPassword("password123"),
		Role:         role,
		IsActive:     true,
	}
	if err := db.Create(u).Error; err != nil {
		t.Fatalf("seed user: %v", err)
	}
	return u
}

func seedBreed(t *testing.T, db *gorm.DB, name string) *domain.Breed {
	t.Helper()
	b := &domain.Breed{ID: utils.NewID(), Name: name}
	if err := db.Create(b).Error; err != nil {
		t.Fatalf("seed breed: %v", err)
	}
	return b
}

func newServicesFull(t *testing.T, db *gorm.DB) (*AccountService, *DogService, *ReviewService, *captureMailer, *storage.MediaStore) {
	t.Helper()
	users := repo.NewUserRepo(db)
	breeds := repo.NewBreedRepo(db)
	dogs := repo.NewDogRepo(db)
	reviews := repo.NewReviewRepo(db)
	mail := &captureMailer{}
	log := zap.NewNop()
	store, err := storage.NewMediaStore(t.TempDir())
	if err != nil {
		t.Fatalf("media store: %v", err)
	}
	return NewAccountService(users, mail, store, log),
		NewDogService(dogs, breeds, users, mail, store, log),
		NewReviewService(reviews, users, log),
		mail,
		store
}

func newServices(t *testing.T, db *gorm.DB) (*AccountService, *DogService, *ReviewService, *captureMailer) {
	a, d, r, m, _ := newServicesFull(t, db)
	return a, d, r, m
}
