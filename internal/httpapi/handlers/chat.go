package handlers

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/aironrush/assistant/internal/chat"
	"github.com/aironrush/assistant/internal/common"
)

const maxFileBytes = 20 << 20

// chatRequestFromForm reads the multipart chat form. The file, when
// present, is read fully into memory; extraction needs random access.
func chatRequestFromForm(c *gin.Context) (*chat.Request, error) {
	req := &chat.Request{
		SessionID:     c.PostForm("session_id"),
		UserID:        c.PostForm("user_id"),
		Message:       c.PostForm("message"),
		Task:          c.PostForm("task"),
		Model:         c.DefaultPostForm("model", chat.DefaultModel),
		SummarizeFile: c.PostForm("summarize_file") == "true" || c.PostForm("summarize_file") == "1",
	}

	fh, err := c.FormFile("file")
	if err != nil {
		if err == http.ErrMissingFile {
			return req, nil
		}
		return nil, fmt.Errorf("read form file: %w", err)
	}
	if fh.Size > maxFileBytes {
		return nil, fmt.Errorf("file too large (max %d bytes)", maxFileBytes)
	}

	f, err := fh.Open()
	if err != nil {
		return nil, fmt.Errorf("open uploaded file: %w", err)
	}
	defer f.Close()

	data, err := io.ReadAll(io.LimitReader(f, maxFileBytes))
	if err != nil {
		return nil, fmt.Errorf("read uploaded file: %w", err)
	}

	req.File = &chat.FileUpload{
		Name:        fh.Filename,
		Size:        fh.Size,
		ContentType: fh.Header.Get("Content-Type"),
		Data:        data,
	}
	return req, nil
}

func (h *Handler) Chat(c *gin.Context) {
	req, err := chatRequestFromForm(c)
	if err != nil {
		common.Fail(c, http.StatusBadRequest, err.Error())
		return
	}

	res, err := h.Svc.Chat(c.Request.Context(), req)
	if err != nil {
		h.failErr(c, err)
		return
	}

	common.OK(c, gin.H{
		"response":     res.Response,
		"task":         res.Task,
		"model_used":   res.ModelUsed,
		"session_id":   res.SessionID,
		"file_summary": res.FileSummary,
	})
}

func (h *Handler) StreamChat(c *gin.Context) {
	req, err := chatRequestFromForm(c)
	if err != nil {
		common.Fail(c, http.StatusBadRequest, err.Error())
		return
	}

	stream, err := h.Svc.ChatStream(c.Request.Context(), req)
	if err != nil {
		h.failErr(c, err)
		return
	}

	c.Header("Content-Type", "text/event-stream")
	c.Header("Cache-Control", "no-cache")
	c.Header("Connection", "keep-alive")
	c.Header("X-Accel-Buffering", "no") // helpful if behind nginx
	c.Status(http.StatusOK)

	flusher, ok := c.Writer.(http.Flusher)
	if !ok {
		fmt.Fprintf(c.Writer, "data: %s\n\n", `{"error":"streaming not supported"}`)
		return
	}

	writeFrame := func(payload any) {
		b, err := json.Marshal(payload)
		if err != nil {
			h.Log.Warn("marshal stream frame failed", zap.Error(err))
			return
		}
		fmt.Fprintf(c.Writer, "data: %s\n\n", b)
		flusher.Flush()
	}

	// Deltas first, error last. The error channel is buffered and stays
	// readable after close, so draining chunks to exhaustion before
	// touching it guarantees no already-delivered content is dropped when
	// the stream fails mid-way.
	ctx := c.Request.Context()
	for {
		select {
		case delta, open := <-stream.Chunks:
			if !open {
				if err, hasErr := <-stream.Errs; hasErr && err != nil {
					writeFrame(gin.H{"error": err.Error()})
				}
				return
			}
			writeFrame(gin.H{
				"content":      delta,
				"task":         stream.Task,
				"file_summary": stream.FileSummary,
			})

		case <-ctx.Done():
			return
		}
	}
}
