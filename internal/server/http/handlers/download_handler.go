package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	domainErrors "github.com/polkiloo/archstore/internal/domain/errors"
	"github.com/polkiloo/archstore/internal/server/http/dto"
)

// DownloadHandler issues download links.
type DownloadHandler struct {
	facade DownloadFacade
}

// NewDownloadHandler constructs DownloadHandler.
func NewDownloadHandler(facade DownloadFacade) *DownloadHandler {
	return &DownloadHandler{facade: facade}
}

// Generate handles POST /api/downloads/generate. Unknown orders and orders
// without access get the same answer.
func (h *DownloadHandler) Generate(c *gin.Context) {
	var req dto.DownloadRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondBadRequest(c, err)
		return
	}

	grant, err := h.facade.AuthorizeDownload(c.Request.Context(), req.OrderID, req.ProductID)
	if err != nil {
		if errors.Is(err, domainErrors.ErrNotFound) || errors.Is(err, domainErrors.ErrForbidden) {
			_ = c.Error(err)
			c.AbortWithStatusJSON(http.StatusForbidden, dto.ErrorResponse{Message: messageNoDownload})
			return
		}
		respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, dto.DownloadResponse{DownloadURL: grant.URL, ProductName: grant.ProductName, ExpiresIn: grant.ExpiresIn})
}
