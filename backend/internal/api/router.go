// Package api exposes the user service over HTTP with gin
package api

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"cybernauts/backend/internal/domain"
	"cybernauts/backend/internal/graph"
	"cybernauts/backend/internal/metrics"
	"cybernauts/backend/internal/service"
	"cybernauts/backend/pkg/logger"
)

// Users is the service surface the handlers need
type Users interface {
	Create(ctx context.Context, in service.CreateUserInput) (domain.User, error)
	Get(ctx context.Context, id string) (domain.User, error)
	List(ctx context.Context, p service.ListParams) (service.UsersPage, error)
	ListAll(ctx context.Context) ([]domain.User, error)
	Update(ctx context.Context, id string, patch service.UpdateUserInput) (domain.User, error)
	UpdatePosition(ctx context.Context, id string, pos domain.Position) (domain.User, error)
	Delete(ctx context.Context, id string) error
	Link(ctx context.Context, id, friendID string) error
	Unlink(ctx context.Context, id, friendID string) error
	Graph(ctx context.Context, p service.GraphParams) (graph.Graph, error)
	Stats(ctx context.Context) (domain.Stats, error)
	Health(ctx context.Context) service.HealthReport
}

// Options configure the router
type Options struct {
	Users          Users
	Logger         *zap.Logger
	Metrics        *metrics.Metrics // nil disables /metrics
	FrontendOrigin string           // empty allows any origin
}

// NewRouter builds the gin engine with every route registered
func NewRouter(opts Options) *gin.Engine {
	log := logger.OrDefault(opts.Logger)
	registerValidation()

	router := gin.New()
	router.Use(ginLogger(log))
	router.Use(gin.Recovery())
	router.Use(cors(opts.FrontendOrigin))
	if opts.Metrics != nil {
		router.Use(opts.Metrics.Middleware())
		router.GET("/metrics", gin.WrapH(opts.Metrics.Handler()))
	}

	h := &handlers{users: opts.Users, logger: log}

	router.GET("/", func(c *gin.Context) {
		c.String(http.StatusOK, "API is running...")
	})
	router.GET("/health", h.health)

	api := router.Group("/api")
	{
		users := api.Group("/users")
		users.POST("", h.createUser)
		users.GET("", h.listUsers)
		users.GET("/paginated", h.paginatedUsers)
		users.GET("/stats", h.stats)
		users.GET("/:id", h.getUser)
		users.PUT("/:id", h.updateUser)
		users.PUT("/:id/position", h.updatePosition)
		users.DELETE("/:id", h.deleteUser)
		users.POST("/:id/link", h.linkUsers)
		users.DELETE("/:id/unlink", h.unlinkUsers)

		api.GET("/graph", h.graph)
	}

	return router
}
