package patient

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/carelink/portal-api/internal/middleware"
	"github.com/carelink/portal-api/internal/model"
	"github.com/carelink/portal-api/internal/service/patient"
	"github.com/carelink/portal-api/pkg/httputil"
)

type Handler struct {
	service *patient.Service
}

func NewHandler(service *patient.Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup, authMW *middleware.AuthMiddleware) {
	patientOnly := r.Group("", authMW.RequireRole(model.RolePatient))
	patientOnly.GET("/me", h.GetSelf)
	patientOnly.PUT("/me", h.UpdateSelf)
}

func (h *Handler) GetSelf(c *gin.Context) {
	p, err := h.service.Get(c.Request.Context(), middleware.CallerProfileID(c))
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, http.StatusOK, p)
}

func (h *Handler) UpdateSelf(c *gin.Context) {
	var req model.UpdatePatientRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, httputil.NewErrorResponse(err.Error()))
		return
	}

	p, err := h.service.Update(c.Request.Context(), middleware.CallerProfileID(c), &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, http.StatusOK, p)
}
