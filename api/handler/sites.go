package handler

import (
	"net/http"
	"sort"

	"github.com/gin-gonic/gin"
	"github.com/use-agent/jobscout/models"
	"github.com/use-agent/jobscout/site"
)

// Sites returns a handler for GET /api/v1/sites.
func Sites() gin.HandlerFunc {
	var resp models.SitesResponse
	for _, name := range site.Names() {
		a, err := site.New(name, "", nil)
		if err != nil {
			continue
		}
		info := models.SiteInfo{
			Name:          a.Name(),
			RootDomain:    a.RootDomain(),
			AuthCookie:    a.AuthCookieName(),
			DetailDelayMs: a.DetailDelay().Milliseconds(),
		}
		if _, ok := a.(*site.Indeed); ok {
			for _, c := range site.Countries() {
				info.Countries = append(info.Countries, string(c))
			}
			sort.Strings(info.Countries)
		}
		resp.Sites = append(resp.Sites, info)
	}

	return func(c *gin.Context) {
		c.JSON(http.StatusOK, resp)
	}
}
