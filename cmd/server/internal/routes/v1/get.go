package v1

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"gorm.io/gorm"

	srverr "github.com/openoj/judge-api/cmd/server/internal/error"
	"github.com/openoj/judge-api/internal/models"
	"github.com/openoj/judge-api/cmd/server/internal/response"
	"github.com/openoj/judge-api/internal/types"
)

func (h *Handler) GetSubmission(c echo.Context) error {
	ctx, span := tracer.Start(c.Request().Context(), "GetSubmission")
	defer span.End()

	db := h.DB.WithContext(ctx)

	span.AddEvent("received submission lookup request")

	principal, ok := c.Get("principal").(types.Principal)
	if !ok {
		span.RecordError(srverr.ErrTypeAssertMismatch)
		span.SetStatus(codes.Error, fmt.Sprintf("principal: %s", srverr.ErrTypeAssertMismatch))
		return response.InternalServerError
	}

	rawID := c.Param("submission_id")
	span.SetAttributes(attribute.String("submission.id.raw", rawID))

	if rawID == "" {
		span.SetStatus(codes.Ok, "no submission id given")
		span.RecordError(nil)
		return echo.NewHTTPError(
			http.StatusBadRequest,
			types.Error{Message: "validation error", Fields: &map[string]string{
				"submission_id": "must not be empty",
			}},
		)
	}

	span.AddEvent("parsing submission id")
	id, err := uuid.Parse(rawID)
	if err != nil {
		span.SetStatus(codes.Ok, "submission id is not a uuid")
		span.RecordError(err)
		return response.NotFoundError
	}

	span.AddEvent("fetching submission")
	submission, err := models.ByID[models.Submission](ctx, db, id)
	if err != nil {
		span.RecordError(err)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			span.SetStatus(codes.Ok, "submission not found")
			return response.NotFoundError
		}

		span.SetStatus(codes.Error, "failed to fetch submission")
		return response.InternalServerError
	}

	span.AddEvent("fetching task")
	task, err := models.ByID[models.Task](ctx, db, submission.TaskID)
	if err != nil {
		span.RecordError(err)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			span.SetStatus(codes.Ok, "task not found")
			return response.NotFoundError
		}

		span.SetStatus(codes.Error, "failed to fetch task")
		return response.InternalServerError
	}

	span.SetAttributes(
		attribute.String("task.id", task.ID.String()),
		attribute.Bool("task.visible", task.Visible),
	)

	span.AddEvent("checking caller may see this submission")
	if !task.Visible && !principal.Admin {
		// redacted, deliberately not an error
		span.SetStatus(codes.Ok, "task is not visible to caller")
		span.RecordError(nil)
		return c.JSON(http.StatusOK, types.HiddenSubmission())
	}

	span.AddEvent("fetching author")
	user, err := models.ByID[models.User](ctx, db, submission.UID)
	if err != nil {
		span.RecordError(err)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			span.SetStatus(codes.Ok, "author not found")
			return response.NotFoundError
		}

		span.SetStatus(codes.Error, "failed to fetch author")
		return response.InternalServerError
	}

	span.AddEvent("reading code artifact")
	code, err := h.codeStore.Read(ctx, submission.ID.String(), task.ExpectedFileCount())
	if err != nil {
		span.SetStatus(codes.Error, "failed to read code artifact")
		span.RecordError(err)
		return response.InternalServerError
	}

	view := types.SubmissionView{
		Username: user.Username,
		Task: types.TaskView{
			ID:        task.ID.String(),
			Type:      task.Type,
			FileNames: task.FileNames,
			Visible:   task.Visible,
		},
		HumanTimestamp: submission.CreatedAt.Format(time.RFC1123),
		Code:           code,
	}

	span.RecordError(nil)
	span.SetStatus(codes.Ok, "")

	return c.JSON(http.StatusOK, types.VisibleSubmission(view))
}
