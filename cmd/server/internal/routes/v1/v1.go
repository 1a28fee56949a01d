package v1

import (
	"github.com/labstack/echo/v4"
	"go.opentelemetry.io/otel"
	"gorm.io/gorm"

	servermiddleware "github.com/openoj/judge-api/cmd/server/internal/middleware"
	"github.com/openoj/judge-api/internal/codestore"
	"github.com/openoj/judge-api/internal/config"
)

const name = "github.com/openoj/judge-api/cmd/server/internal/routes/v1"

var tracer = otel.Tracer(name)

type Handler struct {
	DB        *gorm.DB
	config    *config.Config
	codeStore codestore.Store
}

func NewHandler(db *gorm.DB, cfg *config.Config, codeStore codestore.Store) Handler {
	return Handler{
		DB:        db,
		config:    cfg,
		codeStore: codeStore,
	}
}

func (h *Handler) AddRoutes(e *echo.Echo, middlewareHandler *servermiddleware.Handler) {
	v1Group := e.Group("/v1", middlewareHandler.Principal("principal"))

	submissionGroup := v1Group.Group("/submissions")

	submissionGroup.POST("/", h.CreateSubmission)
	submissionGroup.GET("/", h.ListSubmissions)
	submissionGroup.GET("/:submission_id/", h.GetSubmission)
}
