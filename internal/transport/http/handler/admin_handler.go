package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"pawhub/internal/domain"
	"pawhub/internal/repo"
	resp "pawhub/internal/transport/http/response"
	"pawhub/pkg/utils"
)

// AdminHandler 管理端实体维护：列表/详情/编辑/批量启停
type AdminHandler struct {
	users  *repo.UserRepo
	dogs   *repo.DogRepo
	breeds *repo.BreedRepo
	log    *zap.Logger
}

func NewAdminHandler(users *repo.UserRepo, dogs *repo.DogRepo, breeds *repo.BreedRepo, log *zap.Logger) *AdminHandler {
	return &AdminHandler{users: users, dogs: dogs, breeds: breeds, log: log}
}

func (h *AdminHandler) Mount(admin *gin.RouterGroup) {
	admin.GET("/users", h.ListUsers)
	admin.GET("/users/:id", h.GetUser)
	admin.POST("/users/:id", h.UpdateUser)
	admin.POST("/users/activate", h.BulkActivate(true))
	admin.POST("/users/deactivate", h.BulkActivate(false))

	admin.GET("/dogs", h.ListDogs)
	admin.GET("/dogs/:id", h.GetDog)
	admin.POST("/dogs/:id", h.UpdateDog)
	admin.DELETE("/dogs/:id", h.DeleteDog)

	admin.GET("/breeds", h.ListBreeds)
	admin.POST("/breeds", h.CreateBreed)
	admin.GET("/breeds/:id", h.GetBreed)
	admin.POST("/breeds/:id", h.UpdateBreed)
	admin.DELETE("/breeds/:id", h.DeleteBreed)
}

func clampLimit(limit int) int {
	if limit <= 0 || limit > 100 {
		return 20
	}
	return limit
}

// ---------- users ----------

func (h *AdminHandler) ListUsers(c *gin.Context) {
	var q struct {
		Offset   int    `form:"offset,default=0"`
		Limit    int    `form:"limit,default=20"`
		Q        string `form:"q"`
		Role     string `form:"role"`
		IsActive *bool  `form:"is_active"`
	}
	if err := c.ShouldBindQuery(&q); err != nil {
		resp.JSONError(c, resp.BadRequest(err.Error()))
		return
	}
	users, total, err := h.users.List(c.Request.Context(), repo.UserFilter{
		Q:        strings.TrimSpace(q.Q),
		Role:     q.Role,
		IsActive: q.IsActive,
		Offset:   q.Offset,
		Limit:    clampLimit(q.Limit),
	})
	if err != nil {
		resp.JSONError(c, resp.Internal("list users failed", err))
		return
	}
	c.JSON(http.StatusOK, resp.OK(gin.H{"total": total, "items": users}))
}

func (h *AdminHandler) GetUser(c *gin.Context) {
	u, err := h.users.FindByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		resp.JSONError(c, resp.Internal("lookup user failed", err))
		return
	}
	if u == nil {
		resp.JSONError(c, resp.NotFound("user not found"))
		return
	}
	c.JSON(http.StatusOK, resp.OK(gin.H{"user": u}))
}

// UpdateUser 字段级编辑；角色限定在闭合枚举内
func (h *AdminHandler) UpdateUser(c *gin.Context) {
	var body struct {
		Role     *string `json:"role"`
		IsActive *bool   `json:"isActive"`
		Age      *int    `json:"age"`
		Bio      *string `json:"bio"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		resp.JSONError(c, resp.BadRequest(err.Error()))
		return
	}
	u, err := h.users.FindByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		resp.JSONError(c, resp.Internal("lookup user failed", err))
		return
	}
	if u == nil {
		resp.JSONError(c, resp.NotFound("user not found"))
		return
	}
	if body.Role != nil {
		r := domain.Role(*body.Role)
		if !r.Valid() {
			resp.JSONError(c, resp.BadRequest("unknown role"))
			return
		}
		u.Role = r
	}
	if body.IsActive != nil {
		u.IsActive = *body.IsActive
	}
	if body.Age != nil {
		u.Age = body.Age
	}
	if body.Bio != nil {
		u.Bio = *body.Bio
	}
	if err := h.users.Update(c.Request.Context(), u); err != nil {
		resp.JSONError(c, resp.Internal("update user failed", err))
		return
	}
	c.JSON(http.StatusOK, resp.OK(gin.H{"user": u}))
}

// BulkActivate 批量激活/停用
func (h *AdminHandler) BulkActivate(active bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		var body struct {
			IDs []string `json:"ids" binding:"required,min=1"`
		}
		if err := c.ShouldBindJSON(&body); err != nil {
			resp.JSONError(c, resp.BadRequest(err.Error()))
			return
		}
		n, err := h.users.BulkSetActive(c.Request.Context(), body.IDs, active)
		if err != nil {
			resp.JSONError(c, resp.Internal("bulk update failed", err))
			return
		}
		verb := "deactivated"
		if active {
			verb = "activated"
		}
		h.log.Info("bulk user state change", zap.Int64("count", n), zap.Bool("active", active))
		c.JSON(http.StatusOK, resp.OK(gin.H{"updated": n, "action": verb}))
	}
}

// ---------- dogs ----------

func (h *AdminHandler) ListDogs(c *gin.Context) {
	var q struct {
		Offset  int    `form:"offset,default=0"`
		Limit   int    `form:"limit,default=20"`
		Q       string `form:"q"`
		BreedID string `form:"breed_id"`
		Age     *int   `form:"age"`
	}
	if err := c.ShouldBindQuery(&q); err != nil {
		resp.JSONError(c, resp.BadRequest(err.Error()))
		return
	}
	dogs, total, err := h.dogs.AdminList(c.Request.Context(), repo.DogFilter{
		Q:       q.Q,
		BreedID: q.BreedID,
		Age:     q.Age,
		Offset:  q.Offset,
		Limit:   clampLimit(q.Limit),
	})
	if err != nil {
		resp.JSONError(c, resp.Internal("list dogs failed", err))
		return
	}
	c.JSON(http.StatusOK, resp.OK(gin.H{"total": total, "items": dogs}))
}

func (h *AdminHandler) GetDog(c *gin.Context) {
	d, err := h.dogs.FindByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		resp.JSONError(c, resp.Internal("lookup dog failed", err))
		return
	}
	if d == nil {
		resp.JSONError(c, resp.NotFound("dog not found"))
		return
	}
	c.JSON(http.StatusOK, resp.OK(gin.H{"dog": d}))
}

// UpdateDog 管理端可改 owner/views/is_active，这是唯一放开这些列的入口
func (h *AdminHandler) UpdateDog(c *gin.Context) {
	var body struct {
		Name     *string `json:"name"`
		Age      *int    `json:"age"`
		BreedID  *string `json:"breedId"`
		OwnerID  *string `json:"ownerId"`
		Views    *int64  `json:"views"`
		IsActive *bool   `json:"isActive"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		resp.JSONError(c, resp.BadRequest(err.Error()))
		return
	}
	updates := map[string]any{}
	if body.Name != nil {
		updates["name"] = *body.Name
	}
	if body.Age != nil {
		if *body.Age < 0 {
			resp.JSONError(c, resp.BadRequest("age cannot be negative"))
			return
		}
		updates["age"] = *body.Age
	}
	if body.BreedID != nil {
		b, err := h.breeds.FindByID(c.Request.Context(), *body.BreedID)
		if err != nil || b == nil {
			resp.JSONError(c, resp.BadRequest("unknown breed"))
			return
		}
		updates["breed_id"] = *body.BreedID
	}
	if body.OwnerID != nil {
		if *body.OwnerID == "" {
			updates["owner_id"] = nil
		} else {
			u, err := h.users.FindByID(c.Request.Context(), *body.OwnerID)
			if err != nil || u == nil {
				resp.JSONError(c, resp.BadRequest("unknown owner"))
				return
			}
			updates["owner_id"] = *body.OwnerID
		}
	}
	if body.Views != nil {
		if *body.Views < 0 {
			resp.JSONError(c, resp.BadRequest("views cannot be negative"))
			return
		}
		updates["views"] = *body.Views
	}
	if body.IsActive != nil {
		updates["is_active"] = *body.IsActive
	}
	if len(updates) == 0 {
		resp.JSONError(c, resp.BadRequest("nothing to update"))
		return
	}
	n, err := h.dogs.AdminUpdate(c.Request.Context(), c.Param("id"), updates)
	if err != nil {
		resp.JSONError(c, resp.Internal("update dog failed", err))
		return
	}
	if n == 0 {
		resp.JSONError(c, resp.NotFound("dog not found"))
		return
	}
	c.JSON(http.StatusOK, resp.OK(gin.H{"id": c.Param("id")}))
}

func (h *AdminHandler) DeleteDog(c *gin.Context) {
	n, err := h.dogs.Delete(c.Request.Context(), c.Param("id"))
	if err != nil {
		resp.JSONError(c, resp.Internal("delete dog failed", err))
		return
	}
	if n == 0 {
		resp.JSONError(c, resp.NotFound("dog not found"))
		return
	}
	c.JSON(http.StatusOK, resp.OK(gin.H{"id": c.Param("id")}))
}

// ---------- breeds ----------

func (h *AdminHandler) ListBreeds(c *gin.Context) {
	breeds, err := h.breeds.Search(c.Request.Context(), c.Query("q"))
	if err != nil {
		resp.JSONError(c, resp.Internal("list breeds failed", err))
		return
	}
	c.JSON(http.StatusOK, resp.OK(gin.H{"items": breeds}))
}

func (h *AdminHandler) CreateBreed(c *gin.Context) {
	var body struct {
		Name        string `json:"name" binding:"required,max=255"`
		Description string `json:"description"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		resp.JSONError(c, resp.BadRequest(err.Error()))
		return
	}
	b := &domain.Breed{
		ID:          utils.NewID(),
		Name:        strings.TrimSpace(body.Name),
		Description: body.Description,
	}
	if err := h.breeds.Create(c.Request.Context(), b); err != nil {
		// 名称唯一索引冲突也会走到这里
		resp.JSONError(c, resp.BadRequest("create breed failed: "+err.Error()))
		return
	}
	c.JSON(http.StatusOK, resp.OK(gin.H{"breed": b}))
}

func (h *AdminHandler) GetBreed(c *gin.Context) {
	b, err := h.breeds.FindByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		resp.JSONError(c, resp.Internal("lookup breed failed", err))
		return
	}
	if b == nil {
		resp.JSONError(c, resp.NotFound("breed not found"))
		return
	}
	c.JSON(http.StatusOK, resp.OK(gin.H{"breed": b}))
}

func (h *AdminHandler) UpdateBreed(c *gin.Context) {
	var body struct {
		Name        *string `json:"name"`
		Description *string `json:"description"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		resp.JSONError(c, resp.BadRequest(err.Error()))
		return
	}
	b, err := h.breeds.FindByID(c.Request.Context(), c.Param("id"))
	if err != nil {
		resp.JSONError(c, resp.Internal("lookup breed failed", err))
		return
	}
	if b == nil {
		resp.JSONError(c, resp.NotFound("breed not found"))
		return
	}
	if body.Name != nil {
		b.Name = strings.TrimSpace(*body.Name)
	}
	if body.Description != nil {
		b.Description = *body.Description
	}
	if err := h.breeds.Update(c.Request.Context(), b); err != nil {
		resp.JSONError(c, resp.Internal("update breed failed", err))
		return
	}
	c.JSON(http.StatusOK, resp.OK(gin.H{"breed": b}))
}

func (h *AdminHandler) DeleteBreed(c *gin.Context) {
	n, err := h.breeds.Delete(c.Request.Context(), c.Param("id"))
	if err != nil {
		resp.JSONError(c, resp.Internal("delete breed failed", err))
		return
	}
	if n == 0 {
		resp.JSONError(c, resp.NotFound("breed not found"))
		return
	}
	c.JSON(http.StatusOK, resp.OK(gin.H{"id": c.Param("id")}))
}
