package router

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	ginzap "github.com/gin-contrib/zap"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"pawhub/internal/core/auth"
	"pawhub/internal/core/cache"
	"pawhub/internal/mailer"
	"pawhub/internal/repo"
	"pawhub/internal/service"
	"pawhub/internal/storage"
	"pawhub/internal/transport/http/handler"
	"pawhub/internal/transport/http/middleware"
)

// Deps 两个引擎共用的依赖集合
type Deps struct {
	Log   *zap.Logger
	DB    *gorm.DB
	JWT   *auth.JWTer
	Cache *cache.Cache
	Mail  mailer.Mailer
	Media *storage.MediaStore
	Env   string
}

func baseEngine(d Deps) *gin.Engine {
	if d.Env == "prod" {
		gin.SetMode(gin.ReleaseMode)
	}
	r := gin.New()

	r.Use(middleware.RequestID())
	r.Use(middleware.RateLimit(200, 400))
	r.Use(middleware.ConcurrencyLimit(300))
	r.Use(middleware.MaxBodyBytes(16 << 20))
	r.Use(middleware.Timeout(10 * time.Second))
	r.Use(ginzap.RecoveryWithZap(d.Log, true))
	r.Use(cors.Default())
	r.Use(middleware.Metrics())
	r.Use(middleware.AccessLog(d.Log))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "ts": time.Now().Unix()})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
	return r
}

// NewAPIEngine 面向普通用户的主站接口
func NewAPIEngine(d Deps) *gin.Engine {
	r := baseEngine(d)

	users := repo.NewUserRepo(d.DB)
	breeds := repo.NewBreedRepo(d.DB)
	dogs := repo.NewDogRepo(d.DB)
	reviews := repo.NewReviewRepo(d.DB)

	accountSvc := service.NewAccountService(users, d.Mail, d.Media, d.Log)
	dogSvc := service.NewDogService(dogs, breeds, users, d.Mail, d.Media, d.Log)
	reviewSvc := service.NewReviewService(reviews, users, d.Log)

	dogH := handler.NewDogHandler(dogSvc, d.Cache, d.Media, d.Log)
	userH := handler.NewUserHandler(accountSvc, reviewSvc, d.JWT, d.Media, d.Log)

	api := r.Group("/api/v1")

	// 公共路由也挂可选鉴权：详情页要区分主人浏览
	dogPublic := api.Group("/dogs", middleware.OptionalAuthJWT(d.JWT))
	dogAuthed := api.Group("/dogs", middleware.AuthJWT(d.JWT, ""))
	dogH.Mount(dogPublic, dogAuthed)

	// 资料页要区分本人浏览，同样挂可选鉴权
	userPublic := api.Group("/users", middleware.OptionalAuthJWT(d.JWT))
	userAuthed := api.Group("/users", middleware.AuthJWT(d.JWT, ""))
	userH.Mount(userPublic, userAuthed)

	return r
}
