package middleware

import (
	"context"
	"encoding/base64"
	"errors"
	"os"
	"strings"

	"github.com/alexedwards/argon2id"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"gorm.io/gorm"

	"github.com/openoj/judge-api/internal/models"
	"github.com/openoj/judge-api/internal/logger"
	"github.com/openoj/judge-api/internal/types"
)

// Used when doing a fake compare in the error case of resolvePrincipal
var defaultHashForError string

// Generate a hash
func init() {
	var err error

	defaultHashForError, err = argon2id.CreateHash(
		"bnZSraUCS+nZh3MI8F3iiXbKFBcAyJhvAB6u/GBJzhC00ZPAQlyYVpQ+aryw7QvE2ZI=",
		argon2id.DefaultParams,
	)
	if err != nil {
		logger.Logger.Error("error creating default hash", "error", err)
		os.Exit(1)
	}
}

// Does a fake hash and compare for a hard coded password. Used when resolvePrincipal hits an error or a nonexistent user.
func fakePasswordHash(ctx context.Context) {
	_, span := tracer.Start(ctx, "fakePasswordHash")
	defer span.End()

	_, err := argon2id.ComparePasswordAndHash("i am a very real password", defaultHashForError)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to compare fake password with default hash for error")
		return
	}

	span.AddEvent("compared fake password and default hash for error")
}

// Queries a nonexistent user from the database. Used when resolvePrincipal is provided an invalid UUID.
func fakeDBQuery(ctx context.Context, db *gorm.DB) {
	ctx, span := tracer.Start(ctx, "fakeDBQuery")
	defer span.End()

	db = db.WithContext(ctx)

	fakeID := uuid.New()
	_, err := models.ByID[models.User](ctx, db, fakeID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return
		}

		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to make fake db query")
		return
	}

	span.AddEvent("completed database query for fake id")
}

// Validates presented basic credentials against the database. Anything that
// does not check out resolves to the anonymous principal rather than an
// error; the decision whether anonymous access suffices belongs to the
// route.
func (h *Handler) resolvePrincipal(
	ctx context.Context,
	rawID string,
	token string,
) types.Principal {
	ctx, span := tracer.Start(ctx, "resolvePrincipal")
	defer span.End()

	db := h.DB.WithContext(ctx)

	span.SetAttributes(attribute.String("id.raw", rawID))

	span.AddEvent("parsing rawID as uuid")
	id, err := uuid.Parse(rawID)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Ok, "failed to parse rawID as a uuid")
		// Waste time for invalid UUID
		fakeDBQuery(ctx, db)
		fakePasswordHash(ctx)
		return types.Anonymous()
	}

	span.SetAttributes(attribute.String("id.parsed", id.String()))

	span.AddEvent("getting user by id")
	user, err := models.ByID[models.User](ctx, db, id)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Ok, "user not found")
		fakePasswordHash(ctx)
		return types.Anonymous()
	}

	span.SetAttributes(
		attribute.Bool("active.valid", user.Active.Valid),
		attribute.Bool("active.value", user.Active.V),
	)

	span.AddEvent("checking hash")
	comparison, err := argon2id.ComparePasswordAndHash(token, user.Token)
	// All expensive ops have been performed that may result in a rejection
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "failed to check token")
		return types.Anonymous()
	}

	if !comparison {
		span.AddEvent("failed login attempt")
		return types.Anonymous()
	}

	if !user.Active.Valid || !user.Active.V {
		span.AddEvent("user is not active")
		return types.Anonymous()
	}

	span.AddEvent("successful login attempt")
	return types.Authenticated(user.ID, user.Admin)
}

// Resolves the request's principal and stores it under `key`. Requests
// without credentials proceed as anonymous.
func (h *Handler) Principal(key string) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			ctx, span := tracer.Start(c.Request().Context(), "Principal")
			defer span.End()

			header := c.Request().Header.Get(echo.HeaderAuthorization)
			if header == "" {
				c.Set(key, types.Anonymous())

				span.RecordError(nil)
				span.SetStatus(codes.Ok, "no credentials presented")
				return next(c)
			}

			rawID, token, ok := decodeBasic(header)
			if !ok {
				c.Set(key, types.Anonymous())

				span.RecordError(nil)
				span.SetStatus(codes.Ok, "malformed authorization header")
				return next(c)
			}

			principal := h.resolvePrincipal(ctx, rawID, token)
			c.Set(key, principal)

			span.SetAttributes(attribute.Bool("authenticated", principal.UID != nil))
			span.RecordError(nil)
			span.SetStatus(codes.Ok, "resolved principal")
			return next(c)
		}
	}
}

func decodeBasic(header string) (string, string, bool) {
	const prefix = "basic "
	if len(header) < len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return "", "", false
	}

	decoded, err := base64.StdEncoding.DecodeString(header[len(prefix):])
	if err != nil {
		return "", "", false
	}

	id, token, found := strings.Cut(string(decoded), ":")
	if !found {
		return "", "", false
	}

	return id, token, true
}
