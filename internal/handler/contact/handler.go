package contact

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/carelink/portal-api/internal/model"
	"github.com/carelink/portal-api/internal/service/contact"
	"github.com/carelink/portal-api/pkg/httputil"
)

type Handler struct {
	service *contact.Service
}

func NewHandler(service *contact.Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup) {
	r.POST("", h.Submit)
}

func (h *Handler) Submit(c *gin.Context) {
	var req model.ContactRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, httputil.NewErrorResponse(err.Error()))
		return
	}

	msg, err := h.service.Submit(c.Request.Context(), &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, http.StatusCreated, gin.H{"id": msg.ID})
}
