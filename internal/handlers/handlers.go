package handlers

import (
	"context"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"

	"harmonia/api/internal/middleware"
	"harmonia/api/internal/models"
	"harmonia/api/internal/service"
	"harmonia/api/internal/validation"
)

// Services is everything the HTTP layer calls into.
type Services struct {
	Auth         *service.AuthService
	Users        *service.UserService
	Catalog      *service.CatalogService
	Feedback     *service.FeedbackService
	SecurityLogs *service.SecurityLogService
	Tokens       middleware.TokenVerifier
	LoginLimiter *middleware.RedisLimiter
	// HealthChecks are probed by /api/healthz, keyed by component name.
	HealthChecks map[string]func(context.Context) error
}

type HandlerSet struct {
	log         zerolog.Logger
	environment string
	svc         Services
}

var registerValidators sync.Once

func NewHandlerSet(log zerolog.Logger, environment string, svc Services) HandlerSet {
	registerValidators.Do(func() {
		if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
			if err := validation.Register(v); err != nil {
				log.Fatal().Err(err).Msg("register validators")
			}
		}
	})

	return HandlerSet{
		log:         log,
		environment: environment,
		svc:         svc,
	}
}

func (h HandlerSet) Register(router gin.IRouter) {
	router.GET("/", h.Root)

	api := router.Group("/api")
	api.GET("/healthz", h.Health)

	authenticated := middleware.Authenticate(h.svc.Tokens)
	adminOnly := middleware.RequireRoles(models.UserRoleAdmin)

	auth := api.Group("/auth")
	{
		auth.POST("/signup", h.Signup)
		auth.POST("/login", middleware.RateLimit(h.svc.LoginLimiter, h.log), h.Login)
		auth.POST("/forgot-password", h.ForgotPassword)
		auth.POST("/reset-password", h.ResetPassword)
	}

	users := api.Group("/users", authenticated)
	{
		users.GET("/profile", h.Profile)
		users.PUT("/profile", h.UpdateProfile)
		users.GET("", adminOnly, h.ListUsers)
		users.DELETE("/:id", adminOnly, h.DeleteUser)
		users.PUT("/:id/role", adminOnly, h.ChangeRole)
	}

	api.GET("/dashboard", authenticated, middleware.RequireRoles(models.UserRoleUser), h.UserDashboard)
	api.GET("/admin", authenticated, adminOnly, h.AdminDashboard)

	categories := api.Group("/categories", authenticated)
	{
		categories.GET("", h.ListCategories)
		categories.POST("", adminOnly, h.CreateCategory)
		categories.PUT("/:id", adminOnly, h.UpdateCategory)
		categories.DELETE("/:id", adminOnly, h.DeleteCategory)
	}

	instruments := api.Group("/instruments")
	{
		instruments.GET("/:id", h.GetInstrument)
		instruments.GET("", authenticated, h.ListInstruments)
		instruments.POST("", authenticated, adminOnly, h.CreateInstrument)
		instruments.PUT("/:id", authenticated, adminOnly, h.UpdateInstrument)
		instruments.DELETE("/:id", authenticated, adminOnly, h.DeleteInstrument)
	}

	feedback := api.Group("/feedback", authenticated)
	{
		feedback.POST("", h.SubmitFeedback)
		feedback.GET("", h.ListFeedback)
		feedback.POST("/:id/response", adminOnly, h.RespondFeedback)
	}

	logs := api.Group("/security-logs", authenticated)
	{
		logs.GET("", adminOnly, h.ListSecurityLogs)
		logs.POST("", h.AppendSecurityLog)
	}
}

// identity is only called behind Authenticate.
func identity(c *gin.Context) string {
	id, _ := middleware.CurrentIdentity(c)
	return id.UserID
}
