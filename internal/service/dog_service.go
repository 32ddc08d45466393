package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"pawhub/internal/domain"
	"pawhub/internal/mailer"
	"pawhub/internal/repo"
	resp "pawhub/internal/transport/http/response"
	"pawhub/pkg/utils"
)

type DogService struct {
	dogs   *repo.DogRepo
	breeds *repo.BreedRepo
	users  *repo.UserRepo
	mail   mailer.Mailer
	media  MediaRemover
	log    *zap.Logger
}

func NewDogService(dogs *repo.DogRepo, breeds *repo.BreedRepo, users *repo.UserRepo, m mailer.Mailer, media MediaRemover, log *zap.Logger) *DogService {
	return &DogService{dogs: dogs, breeds: breeds, users: users, mail: m, media: media, log: log}
}

type PedigreeInput struct {
	AncestorName string `json:"ancestorName" form:"ancestor_name"`
	Relationship string `json:"relationship" form:"relationship"`
	BirthYear    *int   `json:"birthYear" form:"birth_year"`
}

type DogInput struct {
	Name      string
	BreedID   string
	Age       *int
	ImagePath string // 已落盘的相对路径，空表示没传
	Pedigree  []PedigreeInput
}

// validate 狗和血统行一起校验，错误合并返回
func (s *DogService) validate(ctx context.Context, in *DogInput) []string {
	var errs []string
	in.Name = strings.TrimSpace(in.Name)
	if in.Name == "" {
		errs = append(errs, "name is required")
	} else if len(in.Name) > 255 {
		errs = append(errs, "name is too long")
	}
	if in.Age == nil {
		errs = append(errs, "age is required")
	} else if *in.Age < 0 {
		errs = append(errs, "age cannot be negative")
	}
	if in.BreedID == "" {
		errs = append(errs, "breed is required")
	} else {
		b, err := s.breeds.FindByID(ctx, in.BreedID)
		if err != nil {
			errs = append(errs, "breed lookup failed")
		} else if b == nil {
			errs = append(errs, "unknown breed")
		}
	}
	thisYear := time.Now().Year()
	for i, p := range in.Pedigree {
		if strings.TrimSpace(p.AncestorName) == "" {
			errs = append(errs, fmt.Sprintf("pedigree row %d: ancestor name is required", i+1))
		}
		if p.BirthYear != nil && (*p.BirthYear <= 0 || *p.BirthYear > thisYear) {
			errs = append(errs, fmt.Sprintf("pedigree row %d: invalid birth year", i+1))
		}
	}
	return errs
}

func pedigreeRows(in []PedigreeInput) []domain.Pedigree {
	rows := make([]domain.Pedigree, 0, len(in))
	for _, p := range in {
		rows = append(rows, domain.Pedigree{
			ID:           utils.NewID(),
			AncestorName: strings.TrimSpace(p.AncestorName),
			Relationship: strings.TrimSpace(p.Relationship),
			BirthYear:    p.BirthYear,
		})
	}
	return rows
}

// Create 强制 owner=操作者、views=0、is_active=true；狗和血统同事务落库
func (s *DogService) Create(ctx context.Context, ownerID string, in DogInput) (*domain.Dog, error) {
	if errs := s.validate(ctx, &in); len(errs) > 0 {
		return nil, resp.BadRequest(strings.Join(errs, "; "))
	}

	d := &domain.Dog{
		ID:       utils.NewID(),
		Name:     in.Name,
		Age:      *in.Age,
		BreedID:  in.BreedID,
		Image:    in.ImagePath,
		OwnerID:  &ownerID,
		Views:    0,
		IsActive: true,
	}
	if err := s.dogs.CreateWithPedigree(ctx, d, pedigreeRows(in.Pedigree)); err != nil {
		return nil, resp.Internal("create dog failed", err)
	}

	if owner, err := s.users.FindByID(ctx, ownerID); err == nil && owner != nil && owner.Email != "" {
		subject, body := mailer.PetCreated(owner.Username, d.Name)
		if err := s.mail.Send(ctx, mailer.Message{To: owner.Email, Subject: subject, Body: body}); err != nil {
			s.log.Warn("pet creation mail failed", zap.String("dog", d.ID), zap.Error(err))
		}
	}
	return d, nil
}

// View 非主人访问（含匿名）才计数：存储层自增后回读权威值再做里程碑判断
func (s *DogService) View(ctx context.Context, id, viewerID string) (*domain.Dog, error) {
	d, err := s.dogs.FindByID(ctx, id)
	if err != nil {
		return nil, resp.Internal("lookup dog failed", err)
	}
	if d == nil {
		return nil, resp.NotFound("dog not found")
	}

	ownerViewing := d.OwnerID != nil && viewerID != "" && *d.OwnerID == viewerID
	if ownerViewing {
		return d, nil
	}

	views, err := s.dogs.IncrementViews(ctx, id)
	if err != nil {
		return nil, resp.Internal("count view failed", err)
	}
	d.Views = views

	if views%100 == 0 && d.Owner != nil && d.Owner.Email != "" {
		subject, body := mailer.ViewMilestone(d.Name, views)
		if err := s.mail.Send(ctx, mailer.Message{To: d.Owner.Email, Subject: subject, Body: body}); err != nil {
			s.log.Warn("milestone mail failed", zap.String("dog", d.ID), zap.Error(err))
		}
	}
	return d, nil
}

func (s *DogService) canModify(d *domain.Dog, actorID string, role domain.Role) bool {
	if role.Privileged() {
		return true
	}
	return d.OwnerID != nil && *d.OwnerID == actorID
}

// Update 服务端白名单：无论角色，只写 name/age/breed/image/pedigree
func (s *DogService) Update(ctx context.Context, id, actorID string, role domain.Role, in DogInput) (*domain.Dog, error) {
	d, err := s.dogs.FindByID(ctx, id)
	if err != nil {
		return nil, resp.Internal("lookup dog failed", err)
	}
	if d == nil {
		return nil, resp.NotFound("dog not found")
	}
	if !s.canModify(d, actorID, role) {
		return nil, resp.Forbidden("you can only edit your own dogs")
	}
	if errs := s.validate(ctx, &in); len(errs) > 0 {
		return nil, resp.BadRequest(strings.Join(errs, "; "))
	}

	oldImage := d.Image
	d.Name = in.Name
	d.Age = *in.Age
	d.BreedID = in.BreedID
	if in.ImagePath != "" {
		d.Image = in.ImagePath
	}
	if err := s.dogs.UpdateWithPedigree(ctx, d, pedigreeRows(in.Pedigree)); err != nil {
		return nil, resp.Internal("update dog failed", err)
	}
	// 换图成功后清掉旧文件
	if in.ImagePath != "" && oldImage != "" && oldImage != in.ImagePath {
		if err := s.media.Remove(oldImage); err != nil {
			s.log.Warn("remove old image failed", zap.String("path", oldImage), zap.Error(err))
		}
	}
	return s.dogs.FindByID(ctx, id)
}

func (s *DogService) Delete(ctx context.Context, id, actorID string, role domain.Role) error {
	d, err := s.dogs.FindByID(ctx, id)
	if err != nil {
		return resp.Internal("lookup dog failed", err)
	}
	if d == nil {
		return resp.NotFound("dog not found")
	}
	if !s.canModify(d, actorID, role) {
		return resp.Forbidden("you can only delete your own dogs")
	}
	if _, err := s.dogs.Delete(ctx, id); err != nil {
		return resp.Internal("delete dog failed", err)
	}
	return nil
}

func (s *DogService) List(ctx context.Context) ([]domain.Dog, error) {
	dogs, err := s.dogs.List(ctx)
	if err != nil {
		return nil, resp.Internal("list dogs failed", err)
	}
	return dogs, nil
}

func (s *DogService) Search(ctx context.Context, q string) ([]domain.Dog, error) {
	dogs, err := s.dogs.Search(ctx, q)
	if err != nil {
		return nil, resp.Internal("search dogs failed", err)
	}
	return dogs, nil
}

func (s *DogService) SearchBreeds(ctx context.Context, q string) ([]domain.Breed, error) {
	breeds, err := s.breeds.Search(ctx, q)
	if err != nil {
		return nil, resp.Internal("search breeds failed", err)
	}
	return breeds, nil
}
