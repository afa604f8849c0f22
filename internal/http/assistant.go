package http

import (
	"errors"
	"net/http"
	"strings"

	"github.com/bobotcho/wacommerce/internal/service"
	echo "github.com/labstack/echo/v4"
	"github.com/labstack/gommon/log"
)

type assistantReq struct {
	ConversationID string `json:"conversation_id"`
	From           string `json:"from"`
	Message        string `json:"message"`
}

func assistantHandler(assistantSvc *service.AssistantService) echo.HandlerFunc {
	return func(c echo.Context) error {
		var req assistantReq
		if err := c.Bind(&req); err != nil {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "bad request"})
		}

		req.ConversationID = strings.TrimSpace(req.ConversationID)
		req.Message = strings.TrimSpace(req.Message)
		if req.ConversationID == "" || req.Message == "" {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "bad request"})
		}

		reply, err := assistantSvc.Respond(c.Request().Context(), req.ConversationID, req.From, req.Message)
		if err != nil {
			if errors.Is(err, service.ErrConversationNotFound) {
				return c.JSON(http.StatusNotFound, map[string]string{"error": "conversation not found"})
			}

			log.Errorf("assistant respond failed: %v", err)

			return c.JSON(http.StatusInternalServerError, map[string]string{"error": "assistant error"})
		}

		// Generation/send failures are reported inside the envelope so the
		// caller always gets a reply body to surface.
		return c.JSON(http.StatusOK, reply)
	}
}
