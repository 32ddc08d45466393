package router

import (
	"pawhub/internal/repo"
	"pawhub/internal/transport/http/handler"
	"pawhub/internal/transport/http/middleware"

	"github.com/gin-gonic/gin"
)

// NewAdminEngine 管理面单独监听，所有路由都要求 admin 角色
func NewAdminEngine(d Deps) *gin.Engine {
	r := baseEngine(d)

	users := repo.NewUserRepo(d.DB)
	breeds := repo.NewBreedRepo(d.DB)
	dogs := repo.NewDogRepo(d.DB)

	adminH := handler.NewAdminHandler(users, dogs, breeds, d.Log)

	admin := r.Group("/admin/v1", middleware.AuthJWT(d.JWT, "admin"))
	adminH.Mount(admin)

	return r
}
