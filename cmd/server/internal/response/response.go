package response

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/openoj/judge-api/internal/types"
)

var (
	InternalServerError = echo.NewHTTPError(
		http.StatusInternalServerError,
		types.StringError("something went wrong"),
	)
	NotFoundError        = echo.NewHTTPError(http.StatusNotFound, types.StringError("not found"))
	PermissionDenied     = echo.NewHTTPError(http.StatusForbidden, types.StringError("permission denied"))
	UnauthenticatedError = echo.NewHTTPError(http.StatusUnauthorized, types.StringError("please login"))
)
