// Package routes provides HTTP route configuration for the presentation layer.
package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/AtRiskMedia/cmi-charts/internal/application/container"
	"github.com/AtRiskMedia/cmi-charts/internal/presentation/http/handlers"
	"github.com/AtRiskMedia/cmi-charts/internal/presentation/http/middleware"
)

// SetupRoutes configures all HTTP routes and middleware with dependency injection.
func SetupRoutes(container *container.Container) *gin.Engine {
	cfg := container.Config

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middleware.RequestLogger(container.Logger))
	r.Use(middleware.MetricsMiddleware(container.Metrics))
	r.Use(middleware.CORSMiddleware(cfg.AllowedOrigins))
	r.Use(middleware.SessionMiddleware(container.AuthService))

	// Initialize handlers
	dashboardHandlers := handlers.NewDashboardHandlers(container.CatalogService, cfg.ApplicationRoot, container.Logger)
	authHandlers := handlers.NewAuthHandlers(container.AuthService, handlers.CookieSettings{
		Path:   cfg.ApplicationRoot,
		Secure: cfg.SecureCookies,
	}, container.Logger)
	healthHandlers := handlers.NewHealthHandlers(container.DB.DB, cfg.ModelsPath)

	// Operational endpoints stay outside the application root.
	r.GET("/healthz", healthHandlers.GetHealth)
	r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(container.Registry, promhttp.HandlerOpts{})))

	app := r.Group(cfg.ApplicationRoot)
	{
		app.Static("/static/models", cfg.ModelsPath)

		app.GET("/", dashboardHandlers.GetIndex)
		app.GET("/days/:day/", dashboardHandlers.GetDay)
		app.GET("/runs/:run/:name/", dashboardHandlers.GetVariables)
		app.GET("/runs/:run/:name/:variable/", dashboardHandlers.GetVariableImages)

		app.POST("/get-archive-models/", dashboardHandlers.PostArchiveModels)
		app.POST("/get-availables-date/", dashboardHandlers.PostAvailableDates)

		app.POST("/autenticazione", authHandlers.PostLogin)
		app.GET("/disconnessione", authHandlers.GetLogout)
	}

	return r
}
