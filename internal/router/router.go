package router

import (
	"github.com/fasthttp/router"
	"github.com/valyala/fasthttp"

	apiHandler "usersvc/api/handler"
)

type Handlers struct {
	User   *apiHandler.UserHandler
	Health *apiHandler.HealthHandler
}

func New(handlers Handlers, requestRef func(fasthttp.RequestHandler) fasthttp.RequestHandler) *router.Router {
	r := router.New()

	r.GET("/health", handlers.Health.Check)

	// Users resource
	r.GET("/api/v1/users/all", requestRef(handlers.User.GetAllUsers))
	r.GET("/api/v1/users/deleted", requestRef(handlers.User.GetDeletedUsers))
	r.POST("/api/v1/users/search", requestRef(handlers.User.SearchUser))
	r.POST("/api/v1/users/create", requestRef(handlers.User.CreateUser))
	r.PUT("/api/v1/users/update", requestRef(handlers.User.UpdateUser))
	r.DELETE("/api/v1/users/delete", requestRef(handlers.User.DeleteUser))
	r.PUT("/api/v1/users/restore", requestRef(handlers.User.RestoreUser))

	return r
}
