package server

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/emilythestrangee/copymyprompt/backend/internal/config"
	"github.com/emilythestrangee/copymyprompt/backend/internal/handlers"
	"github.com/emilythestrangee/copymyprompt/backend/internal/middleware"
)

type Server struct {
	cfg     *config.Config
	handler *handlers.Handler
	tokens  middleware.TokenParser
	logger  *slog.Logger
}

// NewServer creates and configures a new server
func NewServer(cfg *config.Config, handler *handlers.Handler, tokens middleware.TokenParser, logger *slog.Logger) *http.Server {
	s := &Server{
		cfg:     cfg,
		handler: handler,
		tokens:  tokens,
		logger:  logger,
	}

	return &http.Server{
		Addr:         "0.0.0.0:" + cfg.Port,
		Handler:      s.RegisterRoutes(),
		IdleTimeout:  time.Minute,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}
}

// corsConfig allows the configured origins, or any origin without
// credentials when none are configured.
func (s *Server) corsConfig() cors.Config {
	cfg := cors.Config{
		AllowOrigins:     s.cfg.CORSOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Accept", "Authorization", "Content-Type", "X-Requested-With"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}
	if len(cfg.AllowOrigins) == 0 {
		cfg.AllowOrigins = nil
		cfg.AllowAllOrigins = true
		cfg.AllowCredentials = false
	}
	return cfg
}

// RegisterRoutes sets up all application routes
func (s *Server) RegisterRoutes() *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), middleware.Logger(s.logger))

	r.Use(cors.New(s.corsConfig()))

	required := middleware.RequireAuth(s.tokens)
	optional := middleware.OptionalAuth(s.tokens)
	h := s.handler

	r.GET("/health", h.Health.Health)

	api := r.Group("/api")
	{
		authGroup := api.Group("/auth")
		authGroup.POST("/register", h.Auth.Register)
		authGroup.POST("/login", h.Auth.Login)
		authGroup.GET("/me", required, h.Auth.Me)

		posts := api.Group("/posts")
		posts.POST("", required, h.Post.CreatePost)
		posts.GET("", optional, h.Post.GetPosts)
		posts.GET("/my-posts", required, h.Post.MyPosts)
		posts.GET("/liked-posts", required, h.Post.LikedPosts)
		posts.GET("/category/:id", h.Post.ByCategory)
		posts.GET("/prompts/:type", h.Post.Prompts)
		posts.GET("/:id", h.Post.GetPost)

		likes := api.Group("/likes")
		likes.POST("", required, h.Like.Create)
		likes.GET("", h.Like.FindAll)
		likes.GET("/post/:postId", h.Like.FindByPost)
		likes.GET("/my-likes", required, h.Like.Mine)
		likes.GET("/check/:postId", required, h.Like.Check)
		likes.DELETE("/:postId", required, h.Like.Remove)

		shares := api.Group("/shares")
		shares.POST("", required, h.Share.Create)
		shares.GET("", h.Share.FindAll)
		shares.GET("/post/:postId", h.Share.FindByPost)
		shares.GET("/my-shares", required, h.Share.Mine)
		shares.GET("/check/:postId", required, h.Share.Check)
		shares.DELETE("/:postId", required, h.Share.Remove)

		copies := api.Group("/copies")
		copies.POST("", required, h.Copy.Create)
		copies.GET("", h.Copy.FindAll)
		copies.GET("/post/:postId", h.Copy.FindByPost)
		copies.GET("/my-copies", required, h.Copy.Mine)
		copies.GET("/check/:postId", required, h.Copy.Check)
		copies.DELETE("/:postId", required, h.Copy.Remove)

		ratings := api.Group("/ratings")
		ratings.POST("", required, h.Rating.Create)
		ratings.GET("", h.Rating.FindAll)
		ratings.GET("/post/:postId", h.Rating.FindByPost)
		ratings.GET("/my-ratings", required, h.Rating.Mine)
		ratings.GET("/check/:postId", required, h.Rating.Check)
		ratings.PATCH("/:postId", required, h.Rating.Update)
		ratings.DELETE("/:postId", required, h.Rating.Remove)

		users := api.Group("/users")
		users.POST("", h.User.CreateUser)
		users.GET("", h.User.GetUsers)
		users.GET("/search", h.User.SearchUser)
		users.GET("/me", required, h.User.GetMe)
		users.PUT("/me", required, h.User.UpdateMe)
		users.DELETE("/me", required, h.User.DeleteMe)
		users.POST("/follow/:userId", required, h.User.FollowUser)
		users.DELETE("/unfollow/:userId", required, h.User.UnfollowUser)
		users.GET("/following", required, h.User.GetFollowing)
		users.GET("/followers", required, h.User.GetFollowers)
		users.GET("/check-following/:userId", required, h.User.CheckFollowing)
		users.GET("/profile/:userId", optional, h.User.GetProfile)
		users.PUT("/profile", required, h.User.UpdateProfile)
		users.GET("/top-creators", h.User.TopCreators)
		users.GET("/creators-with-posts", h.User.CreatorsWithPosts)
		users.GET("/:userId/posts", optional, h.User.GetUserPosts)

		api.GET("/categories", h.Category.GetCategories)
		api.POST("/upload-image", required, h.Upload.UploadImage)
	}

	return r
}
