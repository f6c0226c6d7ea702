package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/use-agent/jobscout/models"
	"github.com/use-agent/jobscout/site"
)

// Classify returns a handler for POST /api/v1/classify. It runs a site's
// metadata classifier without touching a browser.
func Classify(defaultSite string) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req models.ClassifyRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondError(c, models.NewScrapeError(models.ErrCodeInvalidInput, err.Error(), err))
			return
		}
		name := req.Site
		if name == "" {
			name = defaultSite
		}
		adapter, err := site.New(name, "", nil)
		if err != nil {
			respondError(c, err)
			return
		}

		attrs := adapter.Classify(req.Text)
		c.JSON(http.StatusOK, models.ClassifyResponse{
			WorkArrangement: nameOrNil(attrs.WorkArrangement.String()),
			EmploymentType:  nameOrNil(attrs.EmploymentType.String()),
			ExperienceLevel: nameOrNil(attrs.ExperienceLevel.String()),
		})
	}
}

func nameOrNil(name string) *string {
	if name == "" {
		return nil
	}
	return &name
}
