package service

import (
	"context"
	"strings"

	"github.com/gosimple/slug"
	"go.uber.org/zap"

	"pawhub/internal/domain"
	"pawhub/internal/repo"
	resp "pawhub/internal/transport/http/response"
	"pawhub/pkg/utils"
)

type ReviewService struct {
	reviews *repo.ReviewRepo
	users   *repo.UserRepo
	log     *zap.Logger
}

func NewReviewService(reviews *repo.ReviewRepo, users *repo.UserRepo, log *zap.Logger) *ReviewService {
	return &ReviewService{reviews: reviews, users: users, log: log}
}

type ReviewInput struct {
	Text   string `json:"text" form:"text"`
	Rating int    `json:"rating" form:"rating"`
	Slug   string `json:"slug" form:"slug"`
}

// Create 未给 slug 时由作者名 + 随机后缀生成，同作者连发也不会撞
func (s *ReviewService) Create(ctx context.Context, authorID, subjectUsername string, in ReviewInput) (*domain.Review, error) {
	subject, err := s.users.FindByUsername(ctx, subjectUsername)
	if err != nil {
		return nil, resp.Internal("lookup user failed", err)
	}
	if subject == nil {
		return nil, resp.NotFound("user not found")
	}
	author, err := s.users.FindByID(ctx, authorID)
	if err != nil {
		return nil, resp.Internal("lookup author failed", err)
	}
	if author == nil {
		return nil, resp.Unauthorized("unauthorized")
	}
	// 评价只能写在别人的资料页上
	if author.ID == subject.ID {
		return nil, resp.BadRequest("you cannot review your own profile")
	}

	in.Text = strings.TrimSpace(in.Text)
	if in.Text == "" {
		return nil, resp.BadRequest("review text is required")
	}
	if in.Rating == 0 {
		in.Rating = 5
	}
	if in.Rating < 1 || in.Rating > 5 {
		return nil, resp.BadRequest("rating must be between 1 and 5")
	}

	reviewSlug := strings.TrimSpace(in.Slug)
	if reviewSlug == "" {
		reviewSlug, err = s.generateSlug(ctx, author.Username)
		if err != nil {
			return nil, err
		}
	} else {
		exists, err := s.reviews.SlugExists(ctx, reviewSlug)
		if err != nil {
			return nil, resp.Internal("check slug failed", err)
		}
		if exists {
			return nil, resp.BadRequest("slug already in use")
		}
	}

	rv := &domain.Review{
		ID:       utils.NewID(),
		UserID:   subject.ID,
		AuthorID: author.ID,
		Text:     in.Text,
		Rating:   in.Rating,
		Slug:     reviewSlug,
	}
	if err := s.reviews.Create(ctx, rv); err != nil {
		return nil, resp.Internal("create review failed", err)
	}
	rv.Author = author
	return rv, nil
}

func (s *ReviewService) generateSlug(ctx context.Context, authorName string) (string, error) {
	base := slug.Make(authorName)
	for i := 0; i < 10; i++ {
		cand := base + "-" + utils.RandomSuffix(6)
		exists, err := s.reviews.SlugExists(ctx, cand)
		if err != nil {
			return "", resp.Internal("check slug failed", err)
		}
		if !exists {
			return cand, nil
		}
	}
	return "", resp.Internal("slug space exhausted", nil)
}

// ListForUser 5 条一页
func (s *ReviewService) ListForUser(ctx context.Context, username string, page int) ([]domain.Review, int64, error) {
	subject, err := s.users.FindByUsername(ctx, username)
	if err != nil {
		return nil, 0, resp.Internal("lookup user failed", err)
	}
	if subject == nil {
		return nil, 0, resp.NotFound("user not found")
	}
	reviews, total, err := s.reviews.ListBySubject(ctx, subject.ID, page)
	if err != nil {
		return nil, 0, resp.Internal("list reviews failed", err)
	}
	return reviews, total, nil
}
