package http

import (
	"errors"
	"net/http"
	"strings"
	"unicode/utf8"

	"github.com/bobotcho/wacommerce/internal/channel"
	"github.com/bobotcho/wacommerce/internal/util"
	"github.com/labstack/echo/v4"
	"github.com/labstack/gommon/log"
)

type sendMessageReq struct {
	To   string `json:"to"`
	Body string `json:"body"`
}

func sendMessageHandler(ch channel.Channel) echo.HandlerFunc {
	return func(c echo.Context) error {
		var req sendMessageReq
		if err := c.Bind(&req); err != nil {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "bad request"})
		}

		req.To = util.NormalizePhone(strings.TrimSpace(req.To))
		req.Body = strings.TrimSpace(req.Body)
		if req.To == "" || req.Body == "" {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "bad request"})
		}
		if utf8.RuneCountInString(req.Body) > 4096 {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "body too long"})
		}

		sid, err := ch.SendFreeform(c.Request().Context(), req.To, req.Body)
		if err != nil {
			if errors.Is(err, channel.ErrChannelUnavailable) {
				return c.JSON(http.StatusServiceUnavailable, map[string]string{"error": "channel unavailable"})
			}

			log.Errorf("freeform send failed: %v", err)

			return c.JSON(http.StatusBadGateway, map[string]string{"error": "send failed"})
		}

		return c.JSON(http.StatusOK, map[string]any{
			"sent":        true,
			"message_sid": sid,
		})
	}
}
