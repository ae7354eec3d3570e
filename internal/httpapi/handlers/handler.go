package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/aironrush/assistant/internal/chat"
	"github.com/aironrush/assistant/internal/common"
	"github.com/aironrush/assistant/internal/domain"
)

type Handler struct {
	Svc *chat.Service
	Log *zap.Logger
}

func NewHandler(svc *chat.Service, log *zap.Logger) *Handler {
	return &Handler{Svc: svc, Log: log}
}

func (h *Handler) Health(c *gin.Context) {
	common.OK(c, gin.H{"status": "healthy", "service": "assistant-api"})
}

// failErr maps the domain error taxonomy onto HTTP statuses while keeping
// the descriptive message.
func (h *Handler) failErr(c *gin.Context, err error) {
	status := http.StatusInternalServerError
	switch {
	case errors.Is(err, domain.ErrInvalidRequest):
		status = http.StatusBadRequest
	case errors.Is(err, domain.ErrUnsupportedMedia):
		status = http.StatusUnsupportedMediaType
	case errors.Is(err, domain.ErrExtraction):
		status = http.StatusBadRequest
	case errors.Is(err, domain.ErrNotFound), errors.Is(err, gorm.ErrRecordNotFound):
		status = http.StatusNotFound
	}
	common.Fail(c, status, err.Error())
}
