// Package server assembles the HTTP application from configured stores.
package server

import (
	"net/http"
	"time"

	"github.com/goccy/go-json"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/adaptor"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	jwtware "github.com/gofiber/jwt/v2"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/wichananm65/visioneer-backend/internal/category"
	"github.com/wichananm65/visioneer-backend/internal/config"
	"github.com/wichananm65/visioneer-backend/internal/llm"
	"github.com/wichananm65/visioneer-backend/internal/logger"
	"github.com/wichananm65/visioneer-backend/internal/product"
	"github.com/wichananm65/visioneer-backend/internal/recommend"
	"github.com/wichananm65/visioneer-backend/internal/response"
	"github.com/wichananm65/visioneer-backend/internal/room"
	"github.com/wichananm65/visioneer-backend/internal/user"
)

const photoFetchTimeout = 15 * time.Second

// New wires every service and handler onto a fiber app. Public routes are
// registered before the JWT middleware, protected routes after it.
func New(cfg *config.Config, res *Resources, client llm.Client, uploads *room.Store, log *logger.Logger) *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:      "visioneer",
		JSONEncoder:  json.Marshal,
		JSONDecoder:  json.Unmarshal,
		ErrorHandler: response.ErrorHandler,
		BodyLimit:    cfg.Server.BodyLimit,
	})

	app.Use(requestid.New())
	app.Use(checkMiddleware(log.With("service", "http")))
	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: cfg.Server.CORSOrigins,
		AllowMethods: "GET,POST,HEAD,PUT,DELETE,PATCH",
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
	}))

	productService := product.NewService(res.Products)
	productHandler := product.NewHandler(productService, log, cfg.Dev.AllowResetProducts)

	counts := res.Counts
	if counts == nil {
		counts = category.NewSnapshotRepository(productService)
	}
	categoryHandler := category.NewHandler(category.NewService(counts), log)

	recommendService := recommend.NewService(
		productService,
		recommend.NewLLMRecommender(client, cfg.Recommend.CandidateLimit),
		recommend.PolicyFromConfig(cfg.Recommend),
		cfg.Recommend.Timeout,
		log,
	)
	recommendHandler := recommend.NewHandler(recommendService, log)

	analyzer := room.NewAnalyzer(client, uploads, &http.Client{Timeout: photoFetchTimeout}, log)
	roomHandler := room.NewHandler(analyzer, uploads, log)
	modelHandler := room.NewModelHandler(room.NewModelStore(uploads.Dir()), log)

	userService := user.NewService(res.Users, res.Sessions, user.NewTokenIssuer(cfg.Auth.JWTSecret), cfg.Session.TTL, log)
	userHandler := user.NewHandler(userService, log)

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})
	app.Get("/metrics", adaptor.HTTPHandler(promhttp.Handler()))
	app.Static(room.PublicPrefix, uploads.Dir())

	userHandler.RegisterPublicRoutes(app)
	categoryHandler.RegisterPublicRoutes(app)
	recommendHandler.RegisterPublicRoutes(app)
	roomHandler.RegisterPublicRoutes(app)
	modelHandler.RegisterPublicRoutes(app)
	productHandler.RegisterPublicRoutes(app)

	app.Use(jwtware.New(jwtware.Config{
		SigningKey:    []byte(cfg.Auth.JWTSecret),
		SigningMethod: "HS256",
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			return response.Fail(c, fiber.StatusUnauthorized, "unauthorized")
		},
	}))
	app.Use(user.RequireSession(res.Sessions))

	userHandler.RegisterProtectedRoutes(app)
	productHandler.RegisterProtectedRoutes(app)
	modelHandler.RegisterProtectedRoutes(app)

	return app
}
