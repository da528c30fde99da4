package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/nutritrack-backend/internal/services"
)

type CatalogHandler struct {
	catalogService services.CatalogService
}

func NewCatalogHandler(catalogService services.CatalogService) *CatalogHandler {
	return &CatalogHandler{catalogService: catalogService}
}

// GetMeals returns the full catalog, or a single category when the
// "category" query param is present.
func (ch *CatalogHandler) GetMeals(c *gin.Context) {
	if name := c.Query("category"); name != "" {
		category, err := ch.catalogService.Category(name)
		if err != nil {
			c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"categories": []services.MealCategory{*category}})
		return
	}
	c.JSON(http.StatusOK, gin.H{"categories": ch.catalogService.Categories()})
}
