package devapi

import (
	"context"
	"strings"
	"time"

	"smilegift/internal/models"
	"smilegift/internal/observability"

	"github.com/ansrivas/fiberprometheus/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/golang-jwt/jwt/v5"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/crypto/bcrypt"
)

const (
	tokenIssuer   = "smilegift-devapi"
	tokenAudience = "smilegift-client"
)

// Config configures the development backend.
type Config struct {
	JWTSecret  string
	TokenTTL   time.Duration
	BcryptCost int
}

func (c Config) withDefaults() Config {
	if c.TokenTTL <= 0 {
		c.TokenTTL = 7 * 24 * time.Hour
	}
	if c.BcryptCost == 0 {
		c.BcryptCost = bcrypt.DefaultCost
	}
	return c
}

// Server holds all dependencies and provides handlers
type Server struct {
	config         Config
	repo           Repository
	app            *fiber.App
	promMiddleware *fiberprometheus.FiberPrometheus
	now            func() time.Time
}

// NewServer creates a Server backed by repo.
func NewServer(cfg Config, repo Repository) *Server {
	return &Server{
		config: cfg.withDefaults(),
		repo:   repo,
		promMiddleware: fiberprometheus.NewWithRegistry(
			prometheus.NewRegistry(), "smilegift-devapi", "devapi", "http", nil),
		now: time.Now,
	}
}

// App builds the fiber application on first use.
func (s *Server) App() *fiber.App {
	if s.app != nil {
		return s.app
	}

	app := fiber.New(fiber.Config{
		AppName:   "Smile & Gift dev API",
		BodyLimit: 8 * 1024 * 1024,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			if fe, ok := err.(*fiber.Error); ok {
				return respondWithError(c, fe.Code, &models.AppError{Code: models.CodeAPI, Message: fe.Message})
			}
			observability.GlobalLogger.ErrorContext(c.UserContext(), "unhandled error", "error", err)
			return respondWithError(c, fiber.StatusInternalServerError, models.NewInternalError(err))
		},
	})
	s.app = app

	s.SetupMiddleware(app)
	s.SetupRoutes(app)
	return app
}

// SetupMiddleware configures the global middleware stack.
func (s *Server) SetupMiddleware(app *fiber.App) {
	app.Use(recover.New())
	app.Use(requestid.New())
	app.Use(ContextMiddleware())

	if s.promMiddleware != nil {
		app.Use(s.promMiddleware.Middleware)
	}

	app.Use(helmet.New(helmet.Config{CrossOriginResourcePolicy: "cross-origin"}))
	app.Use(StructuredLogger())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization, X-Request-ID",
	}))
}

// SetupRoutes configures all routes for the application
func (s *Server) SetupRoutes(app *fiber.App) {
	if s.promMiddleware != nil {
		s.promMiddleware.RegisterAt(app, "/metrics")
	}
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})
	app.Get("/media/:id", s.GetMedia)

	api := app.Group("/api")

	auth := api.Group("/auth")
	auth.Post("/login", s.Login)
	auth.Post("/register", s.Register)
	auth.Get("/me", s.AuthRequired(), s.Me)
	auth.Post("/avatar", s.AuthRequired(), s.UploadAvatar)

	posts := api.Group("/posts")
	posts.Get("/", s.OptionalAuth(), s.ListPosts)
	posts.Post("/", s.AuthRequired(), s.CreatePost)
	posts.Get("/user/:userId", s.OptionalAuth(), s.GetUserPosts)
	posts.Get("/:id", s.OptionalAuth(), s.GetPost)
	posts.Put("/:id", s.AuthRequired(), s.UpdatePost)
	posts.Delete("/:id", s.AuthRequired(), s.DeletePost)
	posts.Post("/:id/like", s.AuthRequired(), s.LikePost)
	posts.Get("/:id/comments", s.ListComments)
	posts.Post("/:id/comments", s.AuthRequired(), s.AddComment)

	gifts := api.Group("/gifts", s.AuthRequired())
	gifts.Post("/", s.CreateGift)
	gifts.Get("/", s.ListGifts)
	gifts.Get("/post/:postId", s.GetPostGifts)
	gifts.Get("/user/:userId/stats", s.GetUserGiftStats)
	gifts.Get("/user/:userId", s.GetUserGifts)
	gifts.Get("/:id", s.GetGift)
	gifts.Post("/:transactionId/verify", s.VerifyPayment)

	leaderboard := api.Group("/leaderboard", s.OptionalAuth())
	leaderboard.Get("/users", s.UserLeaderboard)
	leaderboard.Get("/posts", s.PostLeaderboard)
	leaderboard.Get("/trending", s.Trending)

	users := api.Group("/users")
	users.Get("/", s.ListUsers)
	users.Get("/search", s.SearchUsers)
	users.Put("/profile", s.AuthRequired(), s.UpdateProfile)
	users.Get("/:id/stats", s.GetUserStats)
	users.Get("/:id", s.GetUser)
}

// AuthRequired rejects requests without a valid bearer token.
func (s *Server) AuthRequired() fiber.Handler {
	return func(c *fiber.Ctx) error {
		tokenString := bearerToken(c)
		if tokenString == "" {
			return respondWithError(c, fiber.StatusUnauthorized,
				models.NewUnauthorizedError("Authorization required"))
		}

		userID, err := s.parseToken(tokenString)
		if err != nil {
			return respondWithError(c, fiber.StatusUnauthorized,
				models.NewUnauthorizedError("Invalid or expired token"))
		}

		if _, err := s.repo.GetUser(c.UserContext(), userID); err != nil {
			return respondWithError(c, fiber.StatusUnauthorized,
				models.NewUnauthorizedError("User no longer exists"))
		}

		c.Locals("userID", userID)
		return c.Next()
	}
}

// OptionalAuth records the caller when a valid token is present and lets
// anonymous requests through.
func (s *Server) OptionalAuth() fiber.Handler {
	return func(c *fiber.Ctx) error {
		if tokenString := bearerToken(c); tokenString != "" {
			if userID, err := s.parseToken(tokenString); err == nil {
				c.Locals("userID", userID)
			}
		}
		return c.Next()
	}
}

func bearerToken(c *fiber.Ctx) string {
	parts := strings.Split(c.Get(fiber.HeaderAuthorization), " ")
	if len(parts) == 2 && parts[0] == "Bearer" {
		return parts[1]
	}
	return ""
}

func (s *Server) parseToken(tokenString string) (string, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (any, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fiber.NewError(fiber.StatusUnauthorized, "Invalid signing method")
		}
		return []byte(s.config.JWTSecret), nil
	},
		jwt.WithIssuer(tokenIssuer),
		jwt.WithAudience(tokenAudience),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return "", err
	}

	sub, err := token.Claims.GetSubject()
	if err != nil || !isObjectID(sub) {
		return "", jwt.ErrTokenInvalidSubject
	}
	return sub, nil
}

// Start listens on addr until Shutdown is called.
func (s *Server) Start(addr string) error {
	return s.App().Listen(addr)
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.app == nil {
		return nil
	}
	return s.app.ShutdownWithContext(ctx)
}
