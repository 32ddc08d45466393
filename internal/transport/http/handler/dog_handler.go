package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"pawhub/internal/core/cache"
	"pawhub/internal/domain"
	"pawhub/internal/service"
	"pawhub/internal/storage"
	mdw "pawhub/internal/transport/http/middleware"
	resp "pawhub/internal/transport/http/response"
)

type DogHandler struct {
	svc   *service.DogService
	cache *cache.Cache
	media *storage.MediaStore
	log   *zap.Logger
}

func NewDogHandler(svc *service.DogService, c *cache.Cache, media *storage.MediaStore, log *zap.Logger) *DogHandler {
	return &DogHandler{svc: svc, cache: c, media: media, log: log}
}

// Mount public 组可匿名（详情页计数需要），authed 组要求登录
func (h *DogHandler) Mount(public, authed *gin.RouterGroup) {
	public.GET("", h.List)
	public.GET("/search/dogs", h.SearchDogs)
	public.GET("/search/breeds", h.SearchBreeds)
	public.GET("/test-cache", h.TestCache)
	public.GET("/:id", h.Detail)

	authed.POST("/create", h.Create)
	authed.POST("/:id/update", h.Update)
	authed.POST("/:id/delete", h.Delete)
}

func (h *DogHandler) List(c *gin.Context) {
	dogs, err := h.svc.List(c.Request.Context())
	if err != nil {
		resp.JSONError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp.OK(gin.H{"dogs": dogs}))
}

func (h *DogHandler) Detail(c *gin.Context) {
	dog, err := h.svc.View(c.Request.Context(), c.Param("id"), c.GetString(mdw.KeyUserID))
	if err != nil {
		resp.JSONError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp.OK(gin.H{"dog": dog}))
}

// bindDogInput 支持 multipart（带图）和 JSON 两种提交；返回已落盘图片路径
func (h *DogHandler) bindDogInput(c *gin.Context) (service.DogInput, error) {
	var in service.DogInput

	if strings.HasPrefix(c.ContentType(), "multipart/form-data") {
		in.Name = c.PostForm("name")
		in.BreedID = c.PostForm("breed_id")
		if s := c.PostForm("age"); s != "" {
			age, err := strconv.Atoi(s)
			if err != nil {
				return in, resp.BadRequest("age must be a number")
			}
			in.Age = &age
		}
		if s := c.PostForm("pedigree"); s != "" {
			if err := json.Unmarshal([]byte(s), &in.Pedigree); err != nil {
				return in, resp.BadRequest("pedigree must be a JSON array")
			}
		}
		fh, err := c.FormFile("image")
		switch {
		case err == nil:
			rel, err := h.media.SaveImage(fh, storage.SubdirDogPhotos)
			if err != nil {
				if errors.Is(err, storage.ErrTooLarge) || errors.Is(err, storage.ErrNotImage) {
					return in, resp.BadRequest(err.Error())
				}
				return in, resp.Internal("store image failed", err)
			}
			in.ImagePath = rel
		case errors.Is(err, http.ErrMissingFile):
			// 没传图
		default:
			return in, resp.BadRequest("invalid image upload")
		}
		return in, nil
	}

	var body struct {
		Name     string                  `json:"name"`
		BreedID  string                  `json:"breedId"`
		Age      *int                    `json:"age"`
		Pedigree []service.PedigreeInput `json:"pedigree"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		return in, resp.BadRequest(err.Error())
	}
	in.Name = body.Name
	in.BreedID = body.BreedID
	in.Age = body.Age
	in.Pedigree = body.Pedigree
	return in, nil
}

func (h *DogHandler) Create(c *gin.Context) {
	in, err := h.bindDogInput(c)
	if err != nil {
		resp.JSONError(c, err)
		return
	}
	dog, err := h.svc.Create(c.Request.Context(), c.GetString(mdw.KeyUserID), in)
	if err != nil {
		// 校验失败时清掉已落盘的图
		if in.ImagePath != "" {
			_ = h.media.Remove(in.ImagePath)
		}
		resp.JSONError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp.OKMsg("Dog added successfully.", gin.H{"dog": dog}))
}

func (h *DogHandler) Update(c *gin.Context) {
	in, err := h.bindDogInput(c)
	if err != nil {
		resp.JSONError(c, err)
		return
	}
	dog, err := h.svc.Update(
		c.Request.Context(),
		c.Param("id"),
		c.GetString(mdw.KeyUserID),
		domain.Role(c.GetString(mdw.KeyRole)),
		in,
	)
	if err != nil {
		if in.ImagePath != "" {
			_ = h.media.Remove(in.ImagePath)
		}
		resp.JSONError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp.OKMsg("Dog updated successfully.", gin.H{"dog": dog}))
}

func (h *DogHandler) Delete(c *gin.Context) {
	err := h.svc.Delete(
		c.Request.Context(),
		c.Param("id"),
		c.GetString(mdw.KeyUserID),
		domain.Role(c.GetString(mdw.KeyRole)),
	)
	if err != nil {
		resp.JSONError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp.OKMsg("Dog deleted successfully.", gin.H{"id": c.Param("id")}))
}

func (h *DogHandler) SearchDogs(c *gin.Context) {
	dogs, err := h.svc.Search(c.Request.Context(), c.Query("q"))
	if err != nil {
		resp.JSONError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp.OK(gin.H{"dogs": dogs, "query": c.Query("q")}))
}

// SearchBreeds 结果短 TTL 缓存，singleflight 合并回源
func (h *DogHandler) SearchBreeds(c *gin.Context) {
	q := c.Query("q")
	key := "breeds:q:" + strings.ToLower(strings.TrimSpace(q))
	breeds, err := cache.GetOrLoadJSON[[]domain.Breed](h.cache, c.Request.Context(), key, 30*time.Second,
		func(ctx context.Context) (*[]domain.Breed, error) {
			b, e := h.svc.SearchBreeds(ctx, q)
			if e != nil {
				return nil, e
			}
			return &b, nil
		})
	if err != nil {
		// redis 不可用时直接回源
		b, e := h.svc.SearchBreeds(c.Request.Context(), q)
		if e != nil {
			resp.JSONError(c, e)
			return
		}
		breeds = &b
	}
	out := []domain.Breed{}
	if breeds != nil {
		out = *breeds
	}
	c.JSON(http.StatusOK, resp.OK(gin.H{"breeds": out, "query": q}))
}

// TestCache 缓存探针：带 TTL 写入再读回
func (h *DogHandler) TestCache(c *gin.Context) {
	ctx := c.Request.Context()
	if err := h.cache.Set(ctx, "test_key", "Hello, Redis!", 30*time.Second); err != nil {
		resp.JSONError(c, resp.Internal("cache set failed", err))
		return
	}
	v, err := h.cache.GetString(ctx, "test_key")
	if err != nil {
		resp.JSONError(c, resp.Internal("cache get failed", err))
		return
	}
	c.JSON(http.StatusOK, resp.OK(gin.H{"test_key": v}))
}
