package router

import (
	"github.com/domain-cutover/internal/api/handler"
	"github.com/domain-cutover/internal/api/middleware"
	"github.com/domain-cutover/internal/api/view"
	"github.com/domain-cutover/internal/session"
	"github.com/gin-gonic/gin"
)

func SetupRouter(sessions *session.Manager) *gin.Engine {
	router := gin.New()
	router.Use(middleware.LoggerMiddleware())
	router.Use(gin.Recovery())
	router.SetHTMLTemplate(view.Templates())

	router.GET("/healthz", handler.Healthz)

	consoleHandler := handler.NewConsoleHandler()
	settingsHandler := handler.NewSettingsHandler()

	pages := router.Group("", middleware.SessionMiddleware(sessions))
	{
		pages.GET("/", consoleHandler.Index)
		pages.POST("/stage/:n", consoleHandler.RunStage)
		pages.POST("/run-all", consoleHandler.RunAll)
		pages.POST("/console/settings", consoleHandler.SaveSettings)

		pages.GET("/settings", settingsHandler.Show)
		pages.POST("/settings", settingsHandler.Save)
	}

	apiV1 := router.Group("/api/v1", middleware.LookupSession(sessions))
	{
		apiV1.GET("/state", handler.State)
	}

	return router
}
