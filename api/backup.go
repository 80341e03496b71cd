package api

import (
	"net/http"

	"github.com/avoronova/flatbook/internal/service/backup"
	"github.com/gin-gonic/gin"
)

type BackupHandler struct {
	service backup.BackupUseCase
}

func NewBackupHandler(service backup.BackupUseCase) *BackupHandler {
	return &BackupHandler{service: service}
}

func (h *BackupHandler) Register(router *gin.RouterGroup) {
	router.GET("/export", h.export)
	router.POST("/import", h.importArchive)
}

func (h *BackupHandler) export(c *gin.Context) {
	archive, err := h.service.Export(c.Request.Context())
	if err != nil {
		writeError(c, err)
		return
	}

	c.Header("Content-Disposition", `attachment; filename="flatbook-backup.json"`)
	c.JSON(http.StatusOK, archive)
}

func (h *BackupHandler) importArchive(c *gin.Context) {
	var archive backup.Archive
	if err := c.ShouldBindJSON(&archive); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	summary, err := h.service.Import(c.Request.Context(), &archive)
	if err != nil {
		writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, summary)
}
