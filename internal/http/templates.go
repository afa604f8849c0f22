package http

import (
	"errors"
	"net/http"
	"strings"

	"github.com/bobotcho/wacommerce/internal/channel"
	"github.com/bobotcho/wacommerce/internal/gate"
	"github.com/bobotcho/wacommerce/internal/model"
	"github.com/bobotcho/wacommerce/internal/service"
	"github.com/bobotcho/wacommerce/internal/util"
	echo "github.com/labstack/echo/v4"
	"github.com/labstack/gommon/log"
)

type createTemplateReq struct {
	Name        string   `json:"name"`
	DisplayName string   `json:"display_name"`
	Category    string   `json:"category"`
	Language    string   `json:"language"`
	Body        string   `json:"body"`
	Variables   []string `json:"variables"`
}

func createTemplateHandler(templateSvc *service.TemplateService) echo.HandlerFunc {
	return func(c echo.Context) error {
		var req createTemplateReq
		if err := c.Bind(&req); err != nil {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "bad request"})
		}

		req.Name = strings.TrimSpace(req.Name)
		req.Body = strings.TrimSpace(req.Body)
		if req.Name == "" || req.Body == "" {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "bad request"})
		}

		category := model.TemplateCategory(strings.ToUpper(strings.TrimSpace(req.Category)))
		if category == "" {
			category = model.CategoryMarketing
		}
		if !category.Valid() {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid category"})
		}

		if req.Language == "" {
			req.Language = "fr"
		}

		t, err := templateSvc.Create(c.Request().Context(), service.CreateTemplateInput{
			Name:        req.Name,
			DisplayName: req.DisplayName,
			Category:    category,
			Language:    req.Language,
			Body:        req.Body,
			Variables:   req.Variables,
		})
		if err != nil {
			if errors.Is(err, channel.ErrChannelUnavailable) {
				return c.JSON(http.StatusServiceUnavailable, map[string]string{"error": "channel unavailable"})
			}

			log.Errorf("template create failed: %v", err)

			return c.JSON(http.StatusInternalServerError, map[string]string{"error": "create failed"})
		}

		return c.JSON(http.StatusCreated, t)
	}
}

func listTemplatesHandler(templateSvc *service.TemplateService) echo.HandlerFunc {
	return func(c echo.Context) error {
		ts, err := templateSvc.List(c.Request().Context())
		if err != nil {
			c.Logger().Errorf("template list failed: %v", err)

			return c.JSON(http.StatusInternalServerError, map[string]string{"error": "db error"})
		}

		return c.JSON(http.StatusOK, map[string]any{
			"count":   len(ts),
			"results": ts,
		})
	}
}

type sendTemplateReq struct {
	To           string            `json:"to"`
	TemplateName string            `json:"template_name"`
	Variables    map[string]string `json:"variables"`
}

func sendTemplateHandler(templateSvc *service.TemplateService) echo.HandlerFunc {
	return func(c echo.Context) error {
		var req sendTemplateReq
		if err := c.Bind(&req); err != nil {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "bad request"})
		}

		req.To = util.NormalizePhone(strings.TrimSpace(req.To))
		req.TemplateName = strings.TrimSpace(req.TemplateName)
		if req.To == "" || req.TemplateName == "" {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "bad request"})
		}

		sid, err := templateSvc.SendOne(c.Request().Context(), req.To, req.TemplateName, req.Variables)
		if err != nil {
			var notApproved *gate.NotApprovedError
			switch {
			case errors.Is(err, gate.ErrTemplateNotFound):
				return c.JSON(http.StatusNotFound, map[string]string{"error": "template not found"})
			case errors.As(err, &notApproved):
				return c.JSON(http.StatusUnprocessableEntity, map[string]any{
					"error":    "template_not_approved",
					"template": notApproved.Name,
					"status":   notApproved.Status.String(),
				})
			case errors.Is(err, gate.ErrMissingContentSID):
				return c.JSON(http.StatusUnprocessableEntity, map[string]string{"error": "template has no content sid"})
			case errors.Is(err, channel.ErrChannelUnavailable):
				return c.JSON(http.StatusServiceUnavailable, map[string]string{"error": "channel unavailable"})
			}

			log.Errorf("template send failed: %v", err)

			return c.JSON(http.StatusBadGateway, map[string]string{"error": "send failed"})
		}

		return c.JSON(http.StatusOK, map[string]any{
			"sent":        true,
			"message_sid": sid,
		})
	}
}

func templateStatusHandler(templateSvc *service.TemplateService) echo.HandlerFunc {
	return func(c echo.Context) error {
		name := strings.TrimSpace(c.Param("name"))
		if name == "" {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "bad request"})
		}

		st, err := templateSvc.Status(c.Request().Context(), name)
		if err != nil {
			if errors.Is(err, gate.ErrTemplateNotFound) {
				return c.JSON(http.StatusNotFound, map[string]string{"error": "template not found"})
			}

			c.Logger().Errorf("template status failed: %v", err)

			return c.JSON(http.StatusInternalServerError, map[string]string{"error": "status lookup failed"})
		}

		return c.JSON(http.StatusOK, st)
	}
}
