package routes

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/petrolscout/stations-api/internal/brands"
)

func Retailers() func(c *gin.Context) {
	return func(c *gin.Context) {
		retailers, err := brands.GetRetailersList()
		if err != nil {
			log.Printf("error while loading retailers: %v", err)
			c.JSON(http.StatusInternalServerError, gin.H{"error": "An internal server error occurred"})
			return
		}

		c.JSON(http.StatusOK, gin.H{"retailers": retailers})
	}
}
