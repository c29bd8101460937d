// Package server wires repositories, services and handlers into the gin router.
package server

import (
	"net/http"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/yukikurage/civic-proposals-api/internal/auth"
	"github.com/yukikurage/civic-proposals-api/internal/config"
	"github.com/yukikurage/civic-proposals-api/internal/constants"
	"github.com/yukikurage/civic-proposals-api/internal/handlers"
	"github.com/yukikurage/civic-proposals-api/internal/middleware"
	"github.com/yukikurage/civic-proposals-api/internal/repository"
	"github.com/yukikurage/civic-proposals-api/internal/security"
	"github.com/yukikurage/civic-proposals-api/internal/services"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// Dependencies are the process-wide collaborators the router needs.
type Dependencies struct {
	DB      *gorm.DB
	Log     *zap.Logger
	Revoker auth.Revoker
	Google  auth.GoogleVerifier
}

// Services groups the business services built for one router.
type Services struct {
	Tokens        *auth.TokenManager
	Authenticator *middleware.Authenticator
	Accounts      *services.AccountService
	Auth          *services.AuthService
	Proposals     *services.ProposalService
	Comments      *services.CommentService
	Follows       *services.FollowService
	Operators     *services.OperatorService
}

// NewServices builds the service layer on top of the GORM repositories.
func NewServices(cfg *config.Config, deps Dependencies) *Services {
	accounts := repository.NewAccountRepository(deps.DB)
	proposals := repository.NewProposalRepository(deps.DB)
	comments := repository.NewCommentRepository(deps.DB)
	follows := repository.NewFollowRepository(deps.DB)

	policy := security.NewPasswordPolicy(cfg.SecurityControlsEnabled)
	tokens := auth.NewTokenManager(cfg.JWTSecret, cfg.JWTTTL)

	return &Services{
		Tokens:        tokens,
		Authenticator: middleware.NewAuthenticator(tokens, deps.Revoker, accounts),
		Accounts:      services.NewAccountService(accounts, policy, deps.Revoker, deps.Log),
		Auth:          services.NewAuthService(accounts, tokens, deps.Revoker, deps.Google, deps.Log),
		Proposals:     services.NewProposalService(proposals, deps.Log),
		Comments:      services.NewCommentService(comments, proposals, deps.Log),
		Follows:       services.NewFollowService(follows, accounts, deps.Log),
		Operators:     services.NewOperatorService(accounts, proposals, comments, policy, deps.Log),
	}
}

// New builds the router with every route mounted.
func New(cfg *config.Config, deps Dependencies, svc *Services) *gin.Engine {
	r := gin.New()
	r.MaxMultipartMemory = constants.MaxPhotoBytes + 1<<20
	r.Use(middleware.RequestID())
	r.Use(middleware.RequestLogger(deps.Log))
	r.Use(gin.Recovery())
	r.Use(cors.New(cors.Config{
		AllowOrigins:     cfg.CORSOrigins,
		AllowMethods:     []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", constants.HeaderRequestID},
		ExposeHeaders:    []string{constants.HeaderRequestID},
		AllowCredentials: true,
	}))

	requireAuth := svc.Authenticator.RequireAuth()
	optionalAuth := svc.Authenticator.OptionalAuth()

	authHandler := handlers.NewAuthHandler(svc.Auth)
	accountHandler := handlers.NewAccountHandler(svc.Accounts)
	proposalHandler := handlers.NewProposalHandler(svc.Proposals)
	commentHandler := handlers.NewCommentHandler(svc.Comments)
	followHandler := handlers.NewFollowHandler(svc.Follows)
	operatorHandler := handlers.NewOperatorHandler(svc.Operators)

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status":  "ok",
			"message": "Civic Proposals API is running",
		})
	})
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	authRoutes := r.Group("/auth")
	{
		authRoutes.POST("/login", authHandler.Login)
		authRoutes.POST("/google", authHandler.Google)
		authRoutes.POST("/logout", requireAuth, authHandler.Logout)
	}

	users := r.Group("/user")
	{
		users.POST("", accountHandler.Register)
		users.GET("", requireAuth, accountHandler.List)
		users.GET("/me", requireAuth, accountHandler.Me)
		users.DELETE("/me", requireAuth, accountHandler.DeleteMe)
		users.PATCH("/profile", requireAuth, accountHandler.UpdateProfile)
		users.PATCH("/password", requireAuth, accountHandler.UpdatePassword)
		users.GET("/:id", optionalAuth, accountHandler.Get)
		users.GET("/:id/photo", accountHandler.Photo)
	}

	proposals := r.Group("/proposte")
	{
		proposals.GET("", proposalHandler.List)
		proposals.GET("/search", proposalHandler.Search)
		proposals.GET("/mine", requireAuth, proposalHandler.Mine)
		proposals.GET("/pending", requireAuth, proposalHandler.Pending)
		proposals.POST("", requireAuth, proposalHandler.Create)
		proposals.GET("/:id", proposalHandler.Get)
		proposals.GET("/:id/photo", proposalHandler.Photo)
		proposals.DELETE("/:id", requireAuth, proposalHandler.Delete)
		proposals.PATCH("/:id/stato", requireAuth, proposalHandler.ChangeStatus)
		proposals.PATCH("/:id/hyper", requireAuth, proposalHandler.ToggleHyper)
		proposals.GET("/:id/commenti", commentHandler.List)
		proposals.POST("/:id/commenti", requireAuth, commentHandler.Create)
		proposals.DELETE("/:id/commenti/:commentoId", requireAuth, commentHandler.Delete)
	}

	follow := r.Group("/follow")
	{
		follow.POST("/:userId", requireAuth, followHandler.Follow)
		follow.DELETE("/unfollow/:userId", requireAuth, followHandler.Unfollow)
		follow.GET("/status/:userId", requireAuth, followHandler.Status)
		follow.GET("/followers/:userId", followHandler.Followers)
		follow.GET("/following/:userId", followHandler.Following)
	}

	operators := r.Group("/operatori")
	operators.Use(requireAuth)
	{
		operators.POST("", operatorHandler.Create)
		operators.GET("", operatorHandler.List)
		operators.GET("/stats", operatorHandler.Stats)
		operators.PATCH("/:id", operatorHandler.Update)
		operators.DELETE("/:id", operatorHandler.Delete)
	}

	return r
}
