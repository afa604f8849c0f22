package http

import (
	"net/http"

	"github.com/bobotcho/wacommerce/internal/jobs"
	echo "github.com/labstack/echo/v4"
)

func jobStatusHandler(reader *jobs.StatusReader) echo.HandlerFunc {
	return func(c echo.Context) error {
		id := c.Param("id")
		if id == "" {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "bad request"})
		}

		st, err := reader.Status(c.Request().Context(), id)
		if err != nil {
			c.Logger().Errorf("job status lookup failed: %v", err)

			return c.JSON(http.StatusInternalServerError, map[string]string{"error": "db error"})
		}
		if st == nil {
			return c.JSON(http.StatusNotFound, map[string]string{"error": "job not found"})
		}

		return c.JSON(http.StatusOK, st)
	}
}
