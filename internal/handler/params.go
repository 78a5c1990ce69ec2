package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
)

func ownerIDParam(c *gin.Context) (int64, bool) {
	ownerID, err := strconv.ParseInt(c.Param("ownerID"), 10, 64)
	if err != nil || ownerID <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid_request",
			"message": "Owner id must be a positive integer",
		})
		return 0, false
	}
	return ownerID, true
}

func requesterIDParam(c *gin.Context) (int64, bool) {
	requesterID, err := strconv.ParseInt(c.Query("requester_id"), 10, 64)
	if err != nil || requesterID <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid_request",
			"message": "requester_id must be a positive integer",
		})
		return 0, false
	}
	return requesterID, true
}

func positiveIntQuery(c *gin.Context, name string, fallback int) (int, bool) {
	raw := c.Query(name)
	if raw == "" {
		return fallback, true
	}

	value, err := strconv.Atoi(raw)
	if err != nil || value <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{
			"error":   "invalid_request",
			"message": name + " must be a positive integer",
		})
		return 0, false
	}

	return value, true
}
