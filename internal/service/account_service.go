package service

import (
	"context"
	"net/mail"
	"strings"
	"time"

	"go.uber.org/zap"

	"pawhub/internal/domain"
	"pawhub/internal/mailer"
	"pawhub/internal/repo"
	resp "pawhub/internal/transport/http/response"
	"pawhub/pkg/utils"
)

const MinPasswordLen = 8

// MediaRemover 替换图片后清掉旧文件用
type MediaRemover interface {
	Remove(rel string) error
}

type AccountService struct {
	users *repo.UserRepo
	mail  mailer.Mailer
	media MediaRemover
	log   *zap.Logger
}

func NewAccountService(users *repo.UserRepo, m mailer.Mailer, media MediaRemover, log *zap.Logger) *AccountService {
	return &AccountService{users: users, mail: m, media: media, log: log}
}

type RegisterInput struct {
	Username        string
	Email           string
	Password        string
	PasswordConfirm string
	Age             *int
	Bio             string
	AvatarPath      string
	BirthDate       *time.Time
}

func (s *AccountService) Register(ctx context.Context, in RegisterInput) (*domain.User, error) {
	var errs []string
	in.Username = strings.TrimSpace(in.Username)
	in.Email = strings.TrimSpace(in.Email)

	if in.Username == "" {
		errs = append(errs, "username is required")
	} else if len(in.Username) > 150 {
		errs = append(errs, "username is too long")
	}
	if in.Email == "" {
		errs = append(errs, "email is required")
	} else if _, err := mail.ParseAddress(in.Email); err != nil {
		errs = append(errs, "enter a valid email address")
	}
	if len(in.Password) < MinPasswordLen {
		errs = append(errs, "password must contain at least 8 characters")
	} else if in.Password != in.PasswordConfirm {
		errs = append(errs, "passwords do not match")
	}
	if in.Age != nil && *in.Age < 0 {
		errs = append(errs, "age cannot be negative")
	}
	if len(errs) > 0 {
		return nil, resp.BadRequest(strings.Join(errs, "; "))
	}

	existing, err := s.users.FindByUsername(ctx, in.Username)
	if err != nil {
		return nil, resp.Internal("lookup username failed", err)
	}
	if existing != nil {
		return nil, resp.BadRequest("username already taken")
	}

	u := &domain.User{
		ID:           utils.NewID(),
		Username:     in.Username,
		Email:        in.Email,
		PasswordHash: utils.HashPassword(in.Password),
		Role:         domain.RoleUser,
		Age:          in.Age,
		Bio:          in.Bio,
		Avatar:       in.AvatarPath,
		BirthDate:    in.BirthDate,
		IsActive:     true,
	}
	if err := s.users.Create(ctx, u); err != nil {
		return nil, resp.Internal("create account failed", err)
	}

	subject, body := mailer.Welcome(u.Username)
	if err := s.mail.Send(ctx, mailer.Message{To: u.Email, Subject: subject, Body: body}); err != nil {
		s.log.Warn("welcome mail failed", zap.String("user", u.Username), zap.Error(err))
	}
	return u, nil
}

func (s *AccountService) Login(ctx context.Context, username, password string) (*domain.User, error) {
	u, err := s.users.FindByUsername(ctx, strings.TrimSpace(username))
	if err != nil {
		return nil, resp.Internal("lookup user failed", err)
	}
	if u == nil || !utils.CheckPassword(password, u.PasswordHash) {
		return nil, resp.Unauthorized("invalid credentials")
	}
	if !u.IsActive {
		return nil, resp.Forbidden("account is disabled")
	}
	return u, nil
}

func (s *AccountService) GetByUsername(ctx context.Context, username string) (*domain.User, error) {
	u, err := s.users.FindByUsername(ctx, username)
	if err != nil {
		return nil, resp.Internal("lookup user failed", err)
	}
	if u == nil {
		return nil, resp.NotFound("user not found")
	}
	return u, nil
}

type UpdateProfileInput struct {
	Username   string
	Email      string
	Age        *int
	Bio        string
	AvatarPath *string // nil 表示不换头像
	BirthDate  *time.Time
}

func (s *AccountService) UpdateProfile(ctx context.Context, userID string, in UpdateProfileInput) (*domain.User, error) {
	u, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return nil, resp.Internal("lookup user failed", err)
	}
	if u == nil {
		return nil, resp.NotFound("user not found")
	}

	var errs []string
	in.Username = strings.TrimSpace(in.Username)
	in.Email = strings.TrimSpace(in.Email)
	if in.Username == "" {
		errs = append(errs, "username is required")
	} else if len(in.Username) > 150 {
		errs = append(errs, "username is too long")
	}
	if in.Email != "" {
		if _, err := mail.ParseAddress(in.Email); err != nil {
			errs = append(errs, "enter a valid email address")
		}
	}
	if in.Age != nil && *in.Age < 0 {
		errs = append(errs, "age cannot be negative")
	}
	if len(errs) > 0 {
		return nil, resp.BadRequest(strings.Join(errs, "; "))
	}

	if in.Username != u.Username {
		dup, err := s.users.FindByUsername(ctx, in.Username)
		if err != nil {
			return nil, resp.Internal("lookup username failed", err)
		}
		if dup != nil {
			return nil, resp.BadRequest("username already taken")
		}
	}

	oldAvatar := u.Avatar
	u.Username = in.Username
	u.Email = in.Email
	u.Age = in.Age
	u.Bio = in.Bio
	u.BirthDate = in.BirthDate
	if in.AvatarPath != nil {
		u.Avatar = *in.AvatarPath
	}
	if err := s.users.Update(ctx, u); err != nil {
		return nil, resp.Internal("update profile failed", err)
	}
	// 换头像成功后清掉旧文件
	if in.AvatarPath != nil && oldAvatar != "" && oldAvatar != u.Avatar {
		if err := s.media.Remove(oldAvatar); err != nil {
			s.log.Warn("remove old avatar failed", zap.String("path", oldAvatar), zap.Error(err))
		}
	}
	return u, nil
}

// ChangePasswordManual 手动改密：长度 ≥8 且两次一致
func (s *AccountService) ChangePasswordManual(ctx context.Context, userID, newPassword, confirm string) error {
	if len(newPassword) < MinPasswordLen {
		return resp.BadRequest("password must contain at least 8 characters")
	}
	if newPassword != confirm {
		return resp.BadRequest("passwords do not match")
	}
	u, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return resp.Internal("lookup user failed", err)
	}
	if u == nil {
		return resp.NotFound("user not found")
	}
	u.PasswordHash = utils.HashPassword(newPassword)
	if err := s.users.Update(ctx, u); err != nil {
		return resp.Internal("change password failed", err)
	}
	return nil
}

// ResetPasswordGenerated 生成 12 位密码并邮件告知
func (s *AccountService) ResetPasswordGenerated(ctx context.Context, userID string) error {
	u, err := s.users.FindByID(ctx, userID)
	if err != nil {
		return resp.Internal("lookup user failed", err)
	}
	if u == nil {
		return resp.NotFound("user not found")
	}
	if u.Email == "" {
		return resp.BadRequest("no email address on file")
	}

	newPassword := utils.GeneratePassword()
	u.PasswordHash = utils.HashPassword(newPassword)
	if err := s.users.Update(ctx, u); err != nil {
		return resp.Internal("reset password failed", err)
	}

	subject, body := mailer.NewPassword(u.Username, newPassword)
	if err := s.mail.Send(ctx, mailer.Message{To: u.Email, Subject: subject, Body: body}); err != nil {
		s.log.Warn("password mail failed", zap.String("user", u.Username), zap.Error(err))
	}
	return nil
}

// ListPublic 用户目录页：激活账号，按用户名排序
func (s *AccountService) ListPublic(ctx context.Context) ([]domain.User, error) {
	users, err := s.users.ListActive(ctx)
	if err != nil {
		return nil, resp.Internal("list users failed", err)
	}
	return users, nil
}

// ListNonAdmin 管理员的用户管理页：不含管理员账号
func (s *AccountService) ListNonAdmin(ctx context.Context) ([]domain.User, error) {
	users, err := s.users.ListNonAdmin(ctx)
	if err != nil {
		return nil, resp.Internal("list users failed", err)
	}
	return users, nil
}
