package app

import (
	"github.com/osvaldoandrade/sqldojo/internal/controllers"
	"github.com/osvaldoandrade/sqldojo/internal/middleware"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func SetupMappings(app *Application) {
	app.Engine.GET("/healthz", app.healthHandler)
	app.Engine.GET("/metrics", gin.WrapH(promhttp.Handler()))

	authOpts := middleware.AuthOptions{
		Required:      app.Config.AuthRequired,
		DevRoleHeader: app.Config.Env == "dev",
	}

	v1 := app.Engine.Group("/v1/dojo")
	learner := v1.Group("", middleware.AdminTokenMiddleware(app.Config.AdminToken), middleware.AuthMiddleware(app.Validator, authOpts))
	{
		learner.GET("/tasks", controllers.NewListTasksController(app.Tasks).Handle)
		learner.GET("/tasks/:id", controllers.NewGetTaskController(app.Tasks).Handle)
		learner.GET("/tasks/:id/hints/:n", middleware.RateLimitHint(app.RateLimiter, app.Config), controllers.NewGetHintController(app.Tasks).Handle)
		learner.POST("/tasks/:id/check", middleware.RateLimitCheck(app.RateLimiter, app.Config), controllers.NewCheckController(app.Grading, app.Tasks).Handle)
		learner.GET("/dataset", controllers.NewDatasetController(app.Tasks).Handle)

		admin := learner.Group("/admin", middleware.RequireAdmin())
		admin.POST("/selftest", controllers.NewSelfTestController(app.Grading).Handle)
	}
}
