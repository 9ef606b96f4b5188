package handler

import (
	"errors"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/openclaw/bountyboard/internal/repository"
)

// respondErr maps the failure taxonomy onto HTTP statuses. Expected
// failures carry their message; anything unexpected is reported as a
// generic 500 without leaking internal detail.
func respondErr(c echo.Context, err error) error {
	switch {
	case errors.Is(err, repository.ErrInvalid):
		return c.JSON(http.StatusBadRequest, echo.Map{"message": err.Error()})
	case errors.Is(err, repository.ErrNotFound):
		return c.JSON(http.StatusNotFound, echo.Map{"message": err.Error()})
	case errors.Is(err, repository.ErrUnauthorized):
		return c.JSON(http.StatusUnauthorized, echo.Map{"message": err.Error()})
	case errors.Is(err, repository.ErrConflict):
		return c.JSON(http.StatusConflict, echo.Map{"message": err.Error()})
	default:
		c.Logger().Error(err)
		return c.JSON(http.StatusInternalServerError, echo.Map{"message": "internal error"})
	}
}
