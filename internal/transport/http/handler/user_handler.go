package handler

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"pawhub/internal/core/auth"
	"pawhub/internal/domain"
	"pawhub/internal/repo"
	"pawhub/internal/service"
	"pawhub/internal/storage"
	mdw "pawhub/internal/transport/http/middleware"
	resp "pawhub/internal/transport/http/response"
)

const birthDateLayout = "2006-01-02"

type UserHandler struct {
	accounts *service.AccountService
	reviews  *service.ReviewService
	jwter    *auth.JWTer
	media    *storage.MediaStore
	log      *zap.Logger
}

func NewUserHandler(accounts *service.AccountService, reviews *service.ReviewService, jwter *auth.JWTer, media *storage.MediaStore, log *zap.Logger) *UserHandler {
	return &UserHandler{accounts: accounts, reviews: reviews, jwter: jwter, media: media, log: log}
}

func (h *UserHandler) Mount(public, authed *gin.RouterGroup) {
	public.GET("", h.List)
	public.POST("/register", h.Register)
	public.POST("/login", h.Login)
	public.GET("/profile/:username", h.Profile)
	public.GET("/:username/reviews", h.Reviews)

	authed.POST("/logout", h.Logout)
	authed.POST("/profile/:username/update", h.UpdateProfile)
	authed.POST("/profile/:username/manage_password", h.ManagePassword)
	authed.GET("/manage-users", h.ManageUsers)
	authed.POST("/:username/add_review", h.AddReview)
}

func (h *UserHandler) issueToken(c *gin.Context, u *domain.User) (string, bool) {
	tok, err := h.jwter.Issue(u.ID, u.Username, string(u.Role))
	if err != nil || tok == "" {
		resp.JSONError(c, resp.Internal("issue token failed", err))
		return "", false
	}
	return tok, true
}

func (h *UserHandler) bindRegisterInput(c *gin.Context) (service.RegisterInput, error) {
	var in service.RegisterInput

	if strings.HasPrefix(c.ContentType(), "multipart/form-data") {
		in.Username = c.PostForm("username")
		in.Email = c.PostForm("email")
		in.Password = c.PostForm("password")
		in.PasswordConfirm = c.PostForm("password_confirm")
		in.Bio = c.PostForm("bio")
		if s := c.PostForm("age"); s != "" {
			age, err := strconv.Atoi(s)
			if err != nil {
				return in, resp.BadRequest("age must be a number")
			}
			in.Age = &age
		}
		if s := c.PostForm("birth_date"); s != "" {
			d, err := time.Parse(birthDateLayout, s)
			if err != nil {
				return in, resp.BadRequest("enter a valid birth date (YYYY-MM-DD)")
			}
			in.BirthDate = &d
		}
		fh, err := c.FormFile("avatar")
		switch {
		case err == nil:
			rel, err := h.media.SaveImage(fh, storage.SubdirAvatars)
			if err != nil {
				if errors.Is(err, storage.ErrTooLarge) || errors.Is(err, storage.ErrNotImage) {
					return in, resp.BadRequest(err.Error())
				}
				return in, resp.Internal("store avatar failed", err)
			}
			in.AvatarPath = rel
		case errors.Is(err, http.ErrMissingFile):
		default:
			return in, resp.BadRequest("invalid avatar upload")
		}
		return in, nil
	}

	var body struct {
		Username        string `json:"username"`
		Email           string `json:"email"`
		Password        string `json:"password"`
		PasswordConfirm string `json:"passwordConfirm"`
		Age             *int   `json:"age"`
		Bio             string `json:"bio"`
		BirthDate       string `json:"birthDate"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		return in, resp.BadRequest(err.Error())
	}
	in.Username = body.Username
	in.Email = body.Email
	in.Password = body.Password
	in.PasswordConfirm = body.PasswordConfirm
	in.Age = body.Age
	in.Bio = body.Bio
	if body.BirthDate != "" {
		d, err := time.Parse(birthDateLayout, body.BirthDate)
		if err != nil {
			return in, resp.BadRequest("enter a valid birth date (YYYY-MM-DD)")
		}
		in.BirthDate = &d
	}
	return in, nil
}

// List 公开用户目录
func (h *UserHandler) List(c *gin.Context) {
	users, err := h.accounts.ListPublic(c.Request.Context())
	if err != nil {
		resp.JSONError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp.OK(gin.H{"users": users}))
}

// Register 成功即登录（发 token），并指向自己的资料页
func (h *UserHandler) Register(c *gin.Context) {
	in, err := h.bindRegisterInput(c)
	if err != nil {
		resp.JSONError(c, err)
		return
	}
	u, err := h.accounts.Register(c.Request.Context(), in)
	if err != nil {
		if in.AvatarPath != "" {
			_ = h.media.Remove(in.AvatarPath)
		}
		resp.JSONError(c, err)
		return
	}
	tok, ok := h.issueToken(c, u)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, resp.OKMsg(
		fmt.Sprintf("Registration successful! Welcome, %s.", u.Username),
		gin.H{
			"token":      tok,
			"user":       u,
			"profileUrl": "/api/v1/users/profile/" + u.Username,
		},
	))
}

func (h *UserHandler) Login(c *gin.Context) {
	var body struct {
		Username string `json:"username" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		resp.JSONError(c, resp.BadRequest(err.Error()))
		return
	}
	u, err := h.accounts.Login(c.Request.Context(), body.Username, body.Password)
	if err != nil {
		resp.JSONError(c, err)
		return
	}
	tok, ok := h.issueToken(c, u)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, resp.OKMsg(
		fmt.Sprintf("Welcome, %s!", u.Username),
		gin.H{"token": tok, "user": u},
	))
}

// Logout 无状态 token 没有服务端注销，保留确认提示
func (h *UserHandler) Logout(c *gin.Context) {
	c.JSON(http.StatusOK, resp.OKMsg("You have been signed out.", gin.H{
		"redirect": "/api/v1/users/login",
	}))
}

// Profile 任何人可看任意资料页，内嵌第一页评价
func (h *UserHandler) Profile(c *gin.Context) {
	username := c.Param("username")
	u, err := h.accounts.GetByUsername(c.Request.Context(), username)
	if err != nil {
		resp.JSONError(c, err)
		return
	}
	reviews, total, err := h.reviews.ListForUser(c.Request.Context(), username, 1)
	if err != nil {
		resp.JSONError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp.OK(gin.H{
		"user":         u,
		"isOwnProfile": c.GetString(mdw.KeyUsername) == u.Username,
		"reviews":      reviews,
		"reviewsTotal": total,
	}))
}

// UpdateProfile 只能改自己的，不做静默替换，别人的直接 403
func (h *UserHandler) UpdateProfile(c *gin.Context) {
	if c.Param("username") != c.GetString(mdw.KeyUsername) {
		resp.JSONError(c, resp.Forbidden("you can only edit your own profile"))
		return
	}

	var in service.UpdateProfileInput
	if strings.HasPrefix(c.ContentType(), "multipart/form-data") {
		in.Username = c.PostForm("username")
		in.Email = c.PostForm("email")
		in.Bio = c.PostForm("bio")
		if s := c.PostForm("age"); s != "" {
			age, err := strconv.Atoi(s)
			if err != nil {
				resp.JSONError(c, resp.BadRequest("age must be a number"))
				return
			}
			in.Age = &age
		}
		if s := c.PostForm("birth_date"); s != "" {
			d, err := time.Parse(birthDateLayout, s)
			if err != nil {
				resp.JSONError(c, resp.BadRequest("enter a valid birth date (YYYY-MM-DD)"))
				return
			}
			in.BirthDate = &d
		}
		if fh, err := c.FormFile("avatar"); err == nil {
			rel, err := h.media.SaveImage(fh, storage.SubdirAvatars)
			if err != nil {
				if errors.Is(err, storage.ErrTooLarge) || errors.Is(err, storage.ErrNotImage) {
					resp.JSONError(c, resp.BadRequest(err.Error()))
					return
				}
				resp.JSONError(c, resp.Internal("store avatar failed", err))
				return
			}
			in.AvatarPath = &rel
		}
	} else {
		var body struct {
			Username  string `json:"username"`
			Email     string `json:"email"`
			Age       *int   `json:"age"`
			Bio       string `json:"bio"`
			BirthDate string `json:"birthDate"`
		}
		if err := c.ShouldBindJSON(&body); err != nil {
			resp.JSONError(c, resp.BadRequest(err.Error()))
			return
		}
		in.Username = body.Username
		in.Email = body.Email
		in.Age = body.Age
		in.Bio = body.Bio
		if body.BirthDate != "" {
			d, err := time.Parse(birthDateLayout, body.BirthDate)
			if err != nil {
				resp.JSONError(c, resp.BadRequest("enter a valid birth date (YYYY-MM-DD)"))
				return
			}
			in.BirthDate = &d
		}
	}

	u, err := h.accounts.UpdateProfile(c.Request.Context(), c.GetString(mdw.KeyUserID), in)
	if err != nil {
		resp.JSONError(c, err)
		return
	}
	// 用户名可能变了，补发 token 保持会话
	tok, ok := h.issueToken(c, u)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, resp.OKMsg("Your profile has been updated.", gin.H{"user": u, "token": tok}))
}

// ManagePassword action=manual 手动改，action=generate 生成并寄出；都会补发 token
func (h *UserHandler) ManagePassword(c *gin.Context) {
	if c.Param("username") != c.GetString(mdw.KeyUsername) {
		resp.JSONError(c, resp.Forbidden("you can only manage your own password"))
		return
	}

	var body struct {
		Action          string `json:"action" form:"action"`
		NewPassword     string `json:"newPassword" form:"new_password"`
		ConfirmPassword string `json:"confirmPassword" form:"confirm_password"`
	}
	if err := c.ShouldBind(&body); err != nil {
		resp.JSONError(c, resp.BadRequest(err.Error()))
		return
	}

	uid := c.GetString(mdw.KeyUserID)
	var msg string
	switch body.Action {
	case "manual":
		if err := h.accounts.ChangePasswordManual(c.Request.Context(), uid, body.NewPassword, body.ConfirmPassword); err != nil {
			resp.JSONError(c, err)
			return
		}
		msg = "Your password has been changed."
	case "generate":
		if err := h.accounts.ResetPasswordGenerated(c.Request.Context(), uid); err != nil {
			resp.JSONError(c, err)
			return
		}
		msg = "Your password has been reset. The new password was sent to your email."
	default:
		resp.JSONError(c, resp.BadRequest("action must be manual or generate"))
		return
	}

	u, err := h.accounts.GetByUsername(c.Request.Context(), c.GetString(mdw.KeyUsername))
	if err != nil {
		resp.JSONError(c, err)
		return
	}
	tok, ok := h.issueToken(c, u)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, resp.OKMsg(msg, gin.H{"token": tok}))
}

// ManageUsers 仅 admin；越权是显式 403 而不是跳转
func (h *UserHandler) ManageUsers(c *gin.Context) {
	if !domain.Role(c.GetString(mdw.KeyRole)).IsAdmin() {
		resp.JSONError(c, resp.Forbidden("access denied"))
		return
	}
	users, err := h.accounts.ListNonAdmin(c.Request.Context())
	if err != nil {
		resp.JSONError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp.OK(gin.H{"users": users}))
}

func (h *UserHandler) Reviews(c *gin.Context) {
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	reviews, total, err := h.reviews.ListForUser(c.Request.Context(), c.Param("username"), page)
	if err != nil {
		resp.JSONError(c, err)
		return
	}
	if page < 1 {
		page = 1
	}
	c.JSON(http.StatusOK, resp.OK(gin.H{
		"reviews": reviews,
		"total":   total,
		"page":    page,
		"size":    repo.ReviewPageSize,
	}))
}

func (h *UserHandler) AddReview(c *gin.Context) {
	var in service.ReviewInput
	if err := c.ShouldBind(&in); err != nil {
		resp.JSONError(c, resp.BadRequest(err.Error()))
		return
	}
	rv, err := h.reviews.Create(c.Request.Context(), c.GetString(mdw.KeyUserID), c.Param("username"), in)
	if err != nil {
		resp.JSONError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp.OKMsg("Your review has been posted.", gin.H{"review": rv}))
}
