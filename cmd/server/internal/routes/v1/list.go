package v1

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"golang.org/x/sync/errgroup"
	"gorm.io/gorm"

	srverr "github.com/openoj/judge-api/cmd/server/internal/error"
	"github.com/openoj/judge-api/internal/models"
	"github.com/openoj/judge-api/cmd/server/internal/response"
	"github.com/openoj/judge-api/internal/types"
)

const (
	defaultListLimit = 10
	maxListLimit     = 100
)

var errListJoinNotFound = errors.New("referenced row missing while joining listing page")

func (h *Handler) ListSubmissions(c echo.Context) error {
	ctx, span := tracer.Start(c.Request().Context(), "ListSubmissions")
	defer span.End()

	db := h.DB.WithContext(ctx)

	span.AddEvent("received submission listing request")

	principal, ok := c.Get("principal").(types.Principal)
	if !ok {
		span.RecordError(srverr.ErrTypeAssertMismatch)
		span.SetStatus(codes.Error, fmt.Sprintf("principal: %s", srverr.ErrTypeAssertMismatch))
		return response.InternalServerError
	}

	type listQuery struct {
		Username *string `query:"username"`
		TaskID   *string `query:"task_id"`
		Limit    int     `query:"limit"`
		Offset   int     `query:"offset"`
	}
	var rdata listQuery

	span.AddEvent("parsing query parameters")
	err := c.Bind(&rdata)
	if err != nil {
		span.SetStatus(codes.Ok, "failed to parse query parameters")
		span.RecordError(err)
		return echo.NewHTTPError(
			http.StatusBadRequest,
			types.StringError("failed to parse query parameters"),
		)
	}

	if rdata.Limit <= 0 {
		rdata.Limit = defaultListLimit
	}
	if rdata.Limit > maxListLimit {
		rdata.Limit = maxListLimit
	}
	if rdata.Offset < 0 {
		rdata.Offset = 0
	}

	span.SetAttributes(
		attribute.Int("limit", rdata.Limit),
		attribute.Int("offset", rdata.Offset),
		attribute.Bool("filter.username", rdata.Username != nil),
		attribute.Bool("filter.task_id", rdata.TaskID != nil),
	)

	empty := types.ListSubmissionsResponse{Results: []types.ListEntry{}, Next: nil}

	filter := models.ListFilter{Limit: rdata.Limit, Offset: rdata.Offset}

	if rdata.Username != nil {
		span.AddEvent("resolving username filter")
		users, err := models.ByUsername(ctx, db, *rdata.Username)
		if err != nil {
			span.SetStatus(codes.Error, "failed to resolve username filter")
			span.RecordError(err)
			return response.InternalServerError
		}

		switch len(users) {
		case 0:
			span.SetStatus(codes.Ok, "no user matches the filter")
			span.RecordError(nil)
			return c.JSON(http.StatusOK, empty)
		case 1:
			filter.UID = &users[0].ID
		default:
			// Duplicate usernames are a data integrity anomaly. Break the
			// collision so the accounts become selectable again and answer
			// as if nothing matched.
			span.AddEvent("detected duplicate usernames", trace.WithAttributes(
				attribute.Int("count", len(users)),
			))
			if err := models.ScrambleUsernames(ctx, db, users); err != nil {
				span.SetStatus(codes.Error, "failed to remediate duplicate usernames")
				span.RecordError(err)
				return response.InternalServerError
			}

			span.SetStatus(codes.Ok, "remediated duplicate usernames")
			span.RecordError(nil)
			return c.JSON(http.StatusOK, empty)
		}
	}

	if rdata.TaskID != nil {
		taskID, err := uuid.Parse(*rdata.TaskID)
		if err != nil {
			span.SetStatus(codes.Ok, "task filter is not a uuid")
			span.RecordError(err)
			return c.JSON(http.StatusOK, empty)
		}

		filter.TaskID = &taskID
	}

	span.AddEvent("fetching page")
	rows, err := filter.Page(ctx, db)
	if err != nil {
		span.SetStatus(codes.Error, "failed to fetch page")
		span.RecordError(err)
		return response.InternalServerError
	}

	span.AddEvent("joining page rows")
	entries := make([]types.ListEntry, len(rows))
	eg, egCtx := errgroup.WithContext(ctx)
	for i := range rows {
		eg.Go(func() error {
			entry, err := h.buildEntry(egCtx, principal, &rows[i])
			if err != nil {
				return err
			}

			entries[i] = entry
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		span.RecordError(err)
		if errors.Is(err, errListJoinNotFound) {
			span.SetStatus(codes.Ok, "referenced row missing")
			return response.NotFoundError
		}

		span.SetStatus(codes.Error, "failed to join page rows")
		return response.InternalServerError
	}

	span.AddEvent("probing for a further page")
	hasMore, err := filter.HasMore(ctx, db)
	if err != nil {
		span.SetStatus(codes.Error, "failed to probe for a further page")
		span.RecordError(err)
		return response.InternalServerError
	}

	var next *int
	if hasMore {
		n := rdata.Offset + rdata.Limit
		next = &n
	}

	span.RecordError(nil)
	span.SetStatus(codes.Ok, "")

	return c.JSON(http.StatusOK, types.ListSubmissionsResponse{
		Results: entries,
		Next:    next,
	})
}

// buildEntry joins one page row against its author and task and aggregates
// the verdict. Rows on hidden tasks come back redacted.
func (h *Handler) buildEntry(
	ctx context.Context,
	principal types.Principal,
	submission *models.Submission,
) (types.ListEntry, error) {
	ctx, span := tracer.Start(ctx, "buildEntry", trace.WithAttributes(
		attribute.String("submission.id", submission.ID.String()),
	))
	defer span.End()

	db := h.DB.WithContext(ctx)

	user, err := models.ByID[models.User](ctx, db, submission.UID)
	if err != nil {
		span.RecordError(err)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			span.SetStatus(codes.Ok, "author not found")
			return types.ListEntry{}, errListJoinNotFound
		}

		span.SetStatus(codes.Error, "failed to fetch author")
		return types.ListEntry{}, err
	}

	task, err := models.ByID[models.Task](ctx, db, submission.TaskID)
	if err != nil {
		span.RecordError(err)
		if errors.Is(err, gorm.ErrRecordNotFound) {
			span.SetStatus(codes.Ok, "task not found")
			return types.ListEntry{}, errListJoinNotFound
		}

		span.SetStatus(codes.Error, "failed to fetch task")
		return types.ListEntry{}, err
	}

	if !task.Visible && !principal.Admin {
		span.SetStatus(codes.Ok, "redacted")
		span.RecordError(nil)
		return types.HiddenEntry(), nil
	}

	agg := types.AggregateGroups(submission.Groups)

	span.SetStatus(codes.Ok, "")
	span.RecordError(nil)
	return types.VisibleEntry(types.SubmissionRow{
		Username:       user.Username,
		Timestamp:      submission.CreatedAt.UnixMilli(),
		HumanTimestamp: submission.CreatedAt.Format(time.RFC1123),
		Language:       submission.Language,
		Score:          agg.Score,
		FullScore:      agg.FullScore,
		TaskID:         submission.TaskID.String(),
		Time:           agg.Time,
		Memory:         agg.Memory,
		SubmissionID:   submission.ID.String(),
	}), nil
}
