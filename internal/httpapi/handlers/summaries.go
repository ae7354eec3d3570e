package handlers

import (
	"io"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/aironrush/assistant/internal/chat"
	"github.com/aironrush/assistant/internal/common"
)

func (h *Handler) SummarizeFile(c *gin.Context) {
	userID := c.PostForm("user_id")
	if userID == "" {
		common.Fail(c, http.StatusBadRequest, "user_id is required")
		return
	}

	fh, err := c.FormFile("file")
	if err != nil {
		common.Fail(c, http.StatusBadRequest, "file is required")
		return
	}
	if fh.Size > maxFileBytes {
		common.Fail(c, http.StatusBadRequest, "file too large")
		return
	}

	f, err := fh.Open()
	if err != nil {
		common.Fail(c, http.StatusBadRequest, "open uploaded file failed")
		return
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, maxFileBytes))
	if err != nil {
		common.Fail(c, http.StatusBadRequest, "read uploaded file failed")
		return
	}

	res, err := h.Svc.SummarizeFile(c.Request.Context(), userID, &chat.FileUpload{
		Name:        fh.Filename,
		Size:        fh.Size,
		ContentType: fh.Header.Get("Content-Type"),
		Data:        data,
	})
	if err != nil {
		h.failErr(c, err)
		return
	}

	common.OK(c, gin.H{
		"success":   true,
		"summary":   res.Fields,
		"file_name": fh.Filename,
	})
}

func (h *Handler) ListUserSummaries(c *gin.Context) {
	summaries, err := h.Svc.Summaries(c.Request.Context(), c.Param("user_id"))
	if err != nil {
		h.failErr(c, err)
		return
	}
	common.OK(c, gin.H{"summaries": summaries})
}
