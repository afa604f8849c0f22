package http

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/bobotcho/wacommerce/internal/repository"
	echo "github.com/labstack/echo/v4"
)

func listSendsHandler(sendLog repository.SendLogRepository) echo.HandlerFunc {
	return func(c echo.Context) error {
		jobID := strings.TrimSpace(c.QueryParam("job_id"))
		if jobID == "" {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "job_id is required"})
		}

		limit := 50
		offset := 0
		if v := c.QueryParam("limit"); v != "" {
			if n, err := strconv.Atoi(v); err == nil && n > 0 && n <= 1000 {
				limit = n
			}
		}
		if v := c.QueryParam("offset"); v != "" {
			if n, err := strconv.Atoi(v); err == nil && n >= 0 {
				offset = n
			}
		}

		outcome := strings.TrimSpace(c.QueryParam("outcome"))
		if outcome != "" && outcome != "delivered" && outcome != "failed" {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid outcome"})
		}

		sends, err := sendLog.ListByJob(c.Request().Context(), jobID, outcome, limit, offset)
		if err != nil {
			c.Logger().Errorf("clickhouse list failed: %v", err)

			return c.JSON(http.StatusInternalServerError, map[string]string{"error": "query failed"})
		}

		return c.JSON(http.StatusOK, map[string]any{
			"limit":   limit,
			"offset":  offset,
			"count":   len(sends),
			"results": sends,
		})
	}
}
