package http

import (
	"errors"
	"net/http"
	"strings"

	"github.com/bobotcho/wacommerce/internal/audience"
	"github.com/bobotcho/wacommerce/internal/gate"
	"github.com/bobotcho/wacommerce/internal/service"
	"github.com/labstack/echo/v4"
	"github.com/labstack/gommon/log"
)

type launchReq struct {
	CampaignID   string            `json:"campaign_id"`
	TemplateName string            `json:"template_name"`
	Segment      string            `json:"segment"`
	Variables    map[string]string `json:"variables"`
}

func launchCampaignHandler(campaignSvc *service.CampaignService) echo.HandlerFunc {
	return func(c echo.Context) error {
		var req launchReq
		if err := c.Bind(&req); err != nil {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "bad request"})
		}

		req.CampaignID = strings.TrimSpace(req.CampaignID)
		req.TemplateName = strings.TrimSpace(req.TemplateName)
		if req.CampaignID == "" || req.TemplateName == "" {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "bad request"})
		}

		seg, ok := audience.ParseSegment(req.Segment)
		if !ok {
			return c.JSON(http.StatusBadRequest, map[string]string{"error": "invalid segment"})
		}

		res, err := campaignSvc.Launch(c.Request().Context(), req.CampaignID, req.TemplateName, seg, req.Variables)
		if err != nil {
			var notApproved *gate.NotApprovedError
			switch {
			case errors.Is(err, service.ErrCampaignNotFound):
				return c.JSON(http.StatusNotFound, map[string]string{"error": "campaign not found"})
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
			case errors.Is(err, audience.ErrEmptyAudience):
				return c.JSON(http.StatusUnprocessableEntity, map[string]string{"error": "audience is empty"})
			}

			log.Errorf("campaign launch failed: %v", err)

			return c.JSON(http.StatusInternalServerError, map[string]string{"error": "launch failed"})
		}

		return c.JSON(http.StatusAccepted, map[string]any{
			"task_id":              res.TaskID,
			"estimated_recipients": res.EstimatedRecipients,
		})
	}
}
