package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"time"

	"github.com/gin-gonic/gin"

	"financas/internal/domain"
	"financas/internal/storage"
)

type downloadResponse struct {
	URL       string `json:"url"`
	ExpiresAt string `json:"expiresAt"`
}

func (h *Handler) createExport(c *gin.Context, scope domain.Scope) {
	export, err := h.exports.RequestExport(c.Request.Context(), scope)
	if err != nil {
		h.respondError(c, scope, err)
		return
	}

	if err := h.manager.Enqueue(c.Request.Context(), export.ID); err != nil {
		h.respondError(c, scope, fmt.Errorf("enqueue export: %w", err))
		return
	}

	c.JSON(http.StatusAccepted, exportToResponse(*export))
}

func (h *Handler) listExports(c *gin.Context, scope domain.Scope) {
	exports, err := h.exports.ListExports(c.Request.Context(), scope)
	if err != nil {
		h.respondError(c, scope, err)
		return
	}
	c.JSON(http.StatusOK, mapSlice(exports, exportToResponse))
}

func (h *Handler) downloadExport(c *gin.Context, scope domain.Scope) {
	export, err := h.exports.GetExport(c.Request.Context(), scope, c.Param("id"))
	if err != nil {
		h.respondError(c, scope, err)
		return
	}
	if export.Status != domain.ExportStatusCompleted || export.RemoteLocation == "" {
		c.JSON(http.StatusConflict, errorBody(msgExportNotReady))
		return
	}

	key, err := storage.ParseLocation(export.RemoteLocation, h.opts.Bucket)
	if err != nil {
		h.respondError(c, scope, fmt.Errorf("export %s location: %w", export.ID, err))
		return
	}

	expiresAt := time.Now().Add(h.opts.DownloadURLTTL)
	url, err := h.storage.GetObjectURL(c.Request.Context(), h.opts.Bucket, key, h.opts.DownloadURLTTL)
	if err != nil {
		h.respondError(c, scope, err)
		return
	}
	c.JSON(http.StatusOK, downloadResponse{URL: url, ExpiresAt: formatTime(expiresAt)})
}

// deleteExport stops a running export, removes its remote object and local
// file, then drops the record. Cleanup problems are reported as warnings.
func (h *Handler) deleteExport(c *gin.Context, scope domain.Scope) {
	export, err := h.exports.GetExport(c.Request.Context(), scope, c.Param("id"))
	if err != nil {
		h.respondError(c, scope, err)
		return
	}

	var warnings []string
	cancelCtx, cancel := context.WithTimeout(c.Request.Context(), 10*time.Second)
	defer cancel()
	if err := h.manager.Cancel(cancelCtx, export.ID); err != nil {
		warnings = append(warnings, fmt.Sprintf("cancel export: %v", err))
	}

	// The job may have uploaded its file while it was being cancelled.
	export, err = h.exports.GetExport(c.Request.Context(), scope, export.ID)
	if err != nil {
		h.respondError(c, scope, err)
		return
	}

	if export.RemoteLocation != "" {
		key, err := storage.ParseLocation(export.RemoteLocation, h.opts.Bucket)
		if err != nil {
			warnings = append(warnings, fmt.Sprintf("parse remote location: %v", err))
		} else {
			remoteCtx, cancel := context.WithTimeout(c.Request.Context(), 30*time.Second)
			defer cancel()
			if err := h.storage.DeleteObject(remoteCtx, h.opts.Bucket, key); err != nil {
				warnings = append(warnings, fmt.Sprintf("delete remote object: %v", err))
			}
		}
	}

	if export.LocalPath != "" {
		if err := os.Remove(export.LocalPath); err != nil && !errors.Is(err, os.ErrNotExist) {
			warnings = append(warnings, fmt.Sprintf("remove local file: %v", err))
		}
	}

	if err := h.exports.DeleteExport(c.Request.Context(), scope, export.ID); err != nil {
		h.respondError(c, scope, err)
		return
	}

	resp := gin.H{"deleted": export.ID}
	if len(warnings) > 0 {
		resp["warnings"] = warnings
	}
	c.JSON(http.StatusOK, resp)
}
