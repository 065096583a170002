package api

import (
	"net/http"

	"agrimarket-be/internal/storage"

	"github.com/gin-gonic/gin"
)

type uploadHandler struct {
	store *storage.Store
}

func (h *uploadHandler) upload(c *gin.Context) {
	header, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing file field"})
		return
	}

	file, err := header.Open()
	if err != nil {
		respondError(c, err)
		return
	}
	defer file.Close()

	url, err := h.store.SaveImage(file, header)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"url": url})
}
