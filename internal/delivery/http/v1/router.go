package v1

import (
	"log/slog"
	"net/http"

	"portfolio-contact-backend/config"
	"portfolio-contact-backend/internal/delivery/http/middleware"
	"portfolio-contact-backend/internal/delivery/http/response"
	"portfolio-contact-backend/internal/domain"
	"portfolio-contact-backend/internal/usecase"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

type RouterDeps struct {
	ContactUC       domain.ContactUsecase
	ContactSessions *usecase.ContactSessions
	HealthUC        usecase.HealthUsecase
	Logger          *slog.Logger
	Config          *config.Config
}

func NewRouter(deps RouterDeps) *gin.Engine {
	r := gin.New()

	isProduction := deps.Config.GinMode == gin.ReleaseMode

	// Global Middlewares
	r.Use(middleware.CORSMiddleware(deps.Config.FrontendURL, isProduction)) // CORS must be first!
	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.RequestLogger(deps.Logger))
	r.Use(middleware.SecurityHeadersMiddleware())
	r.Use(middleware.ErrorHandler(deps.Logger))

	v1 := r.Group("/v1")

	// Health Check
	v1.GET("/health", func(c *gin.Context) {
		var status map[string]string
		if deps.HealthUC != nil {
			status = deps.HealthUC.Check(c.Request.Context())
		}
		response.Success(c, http.StatusOK, "System operational", status)
	})

	// Public routes
	NewContactHandler(v1, deps.ContactUC, deps.ContactSessions)

	// Swagger
	v1.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	return r
}
