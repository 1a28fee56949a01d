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
	"github.com/openoj/judge-api/internal/archive"
	"github.com/openoj/judge-api/internal/identifier"
	"github.com/openoj/judge-api/internal/logger"
	"github.com/openoj/judge-api/internal/types"
	"github.com/openoj/judge-api/internal/validator"
)

func (h *Handler) CreateSubmission(c echo.Context) error {
	ctx, span := tracer.Start(c.Request().Context(), "CreateSubmission")
	defer span.End()

	db := h.DB.WithContext(ctx)

	span.AddEvent("received submission request")

	principal, ok := c.Get("principal").(types.Principal)
	if !ok {
		span.RecordError(srverr.ErrTypeAssertMismatch)
		span.SetStatus(codes.Error, fmt.Sprintf("principal: %s", srverr.ErrTypeAssertMismatch))
		return response.InternalServerError
	}

	receivedTime, ok := c.Get("time").(time.Time)
	if !ok {
		span.RecordError(srverr.ErrTypeAssertMismatch)
		span.SetStatus(codes.Error, fmt.Sprintf("time: %s", srverr.ErrTypeAssertMismatch))
		return response.InternalServerError
	}

	if !principal.Authenticated() {
		span.SetStatus(codes.Ok, "anonymous caller may not submit")
		span.RecordError(nil)
		return response.UnauthenticatedError
	}

	span.SetAttributes(
		attribute.String("principal.uid", principal.UID.String()),
		attribute.Bool("principal.admin", principal.Admin),
	)

	var rdata types.CreateSubmissionRequest

	span.AddEvent("parsing request body")
	err := c.Bind(&rdata)
	if err != nil {
		span.SetStatus(codes.Ok, "failed to parse request data")
		span.RecordError(err)
		if errors.Is(err, types.ErrCodeShape) {
			return echo.NewHTTPError(
				http.StatusBadRequest,
				types.Error{Message: "validation error", Fields: &map[string]string{
					"code": "must be archive or array",
				}},
			)
		}
		return echo.NewHTTPError(
			http.StatusBadRequest,
			types.StringError("failed to parse request data"),
		)
	}

	span.AddEvent("validating request body")
	err = c.Validate(rdata)
	if err != nil {
		span.SetStatus(codes.Ok, "failed to validate request data")
		span.RecordError(err)
		return echo.NewHTTPError(http.StatusBadRequest, types.ValidationError(err))
	}

	if rdata.Code.Empty() {
		span.SetStatus(codes.Ok, "no code in request")
		span.RecordError(nil)
		return echo.NewHTTPError(
			http.StatusBadRequest,
			types.Error{Message: "validation error", Fields: &map[string]string{
				"code": "must be archive or array",
			}},
		)
	}

	span.AddEvent("validating submission is within size limit")
	if rdata.Code.Archive != nil && !validator.ValidateArchiveSize(len(*rdata.Code.Archive)) {
		span.SetStatus(codes.Ok, "submission was too large")
		span.RecordError(nil)
		return echo.NewHTTPError(
			http.StatusBadRequest,
			types.Error{Message: "validation error", Fields: &map[string]string{
				"code": "archive must be <= 8mb",
			}},
		)
	}
	for _, file := range rdata.Code.Files {
		if !validator.ValidateFileSize(len(file)) {
			span.SetStatus(codes.Ok, "submission was too large")
			span.RecordError(nil)
			return echo.NewHTTPError(
				http.StatusBadRequest,
				types.Error{Message: "validation error", Fields: &map[string]string{
					"code": "each file must be <= 1mb",
				}},
			)
		}
	}

	span.AddEvent("fetching task")
	taskID, err := uuid.Parse(rdata.TaskID)
	if err != nil {
		span.SetStatus(codes.Ok, "task id is not a uuid")
		span.RecordError(err)
		return response.NotFoundError
	}

	task, err := models.ByID[models.Task](ctx, db, taskID)
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

	span.AddEvent("checking caller may submit against this task")
	if !task.Visible && !principal.Admin {
		span.SetStatus(codes.Ok, "task is not visible to caller")
		span.RecordError(nil)
		return response.PermissionDenied
	}

	span.AddEvent("normalizing code payload")
	var files []string
	if rdata.Code.Archive != nil {
		files, err = archive.DecodeZip(*rdata.Code.Archive, task.FileNames)
		if err != nil {
			span.RecordError(err)
			if errors.Is(err, archive.ErrFileTooLarge) {
				span.SetStatus(codes.Ok, "archived file was too large")
				return echo.NewHTTPError(
					http.StatusBadRequest,
					types.Error{Message: "validation error", Fields: &map[string]string{
						"code": "each file must be <= 1mb",
					}},
				)
			}

			span.SetStatus(codes.Ok, "failed to decode archive")
			return echo.NewHTTPError(
				http.StatusBadRequest,
				types.Error{Message: "validation error", Fields: &map[string]string{
					"code": "must be archive or array",
				}},
			)
		}
	} else {
		files = rdata.Code.Files
	}

	expectedCount := task.ExpectedFileCount()
	span.SetAttributes(
		attribute.Int("files.count", len(files)),
		attribute.Int("files.expected", expectedCount),
	)
	if len(files) != expectedCount {
		span.SetStatus(codes.Ok, "wrong number of files")
		span.RecordError(nil)
		return echo.NewHTTPError(
			http.StatusBadRequest,
			types.Error{Message: "validation error", Fields: &map[string]string{
				"code": fmt.Sprintf("expected %d files", expectedCount),
			}},
		)
	}

	// best effort heads up for graders; a mismatch is never fatal
	for i, file := range files {
		filename := ""
		if i < len(task.FileNames) {
			filename = task.FileNames[i]
		}
		if !identifier.Matches(rdata.Lang, filename, []byte(file)) {
			logger.Logger.WarnContext(ctx, "declared language does not match detected language",
				"declared", rdata.Lang,
				"detected", identifier.GetLanguage(filename, []byte(file)).String(),
				"file_index", i,
			)
		}
	}

	// the middleware's request time is the submission's authoritative instant
	submission := models.Submission{
		Model:    models.Model{CreatedAt: receivedTime},
		TaskID:   task.ID,
		UID:      *principal.UID,
		Language: rdata.Lang,
	}

	span.AddEvent("inserting into database")
	err = db.Create(&submission).Error
	if err != nil {
		span.SetStatus(codes.Error, "failed to insert")
		span.RecordError(err)
		return response.InternalServerError
	}
	submissionID := submission.ID.String()
	span.SetAttributes(attribute.String("submission.id", submissionID))

	span.AddEvent("writing code artifact")
	err = h.codeStore.Write(ctx, submissionID, files)
	if err != nil {
		span.SetStatus(codes.Error, "failed to write code artifact")
		span.RecordError(err)
		return response.InternalServerError
	}

	span.RecordError(nil)
	span.SetStatus(codes.Ok, "")

	return c.JSON(http.StatusOK, types.CreateSubmissionResponse{
		SubmissionID: submissionID,
	})
}
