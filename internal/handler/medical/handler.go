package medical

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/carelink/portal-api/internal/middleware"
	"github.com/carelink/portal-api/internal/model"
	"github.com/carelink/portal-api/internal/service/medical"
	"github.com/carelink/portal-api/pkg/httputil"
)

type Handler struct {
	service *medical.Service
}

func NewHandler(service *medical.Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) RegisterRoutes(r *gin.RouterGroup, authMW *middleware.AuthMiddleware) {
	r.GET("", h.List)
	r.GET("/:id", h.Get)

	doctorOnly := r.Group("", authMW.RequireRole(model.RoleDoctor))
	doctorOnly.POST("", h.Create)
	doctorOnly.PATCH("/:id", h.Update)
}

func (h *Handler) actor(c *gin.Context) medical.Actor {
	return medical.Actor{
		ProfileID: middleware.CallerProfileID(c),
		Role:      middleware.CallerRole(c),
	}
}

func (h *Handler) Create(c *gin.Context) {
	var req model.CreateMedicalRecordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, httputil.NewErrorResponse(err.Error()))
		return
	}

	record, err := h.service.Create(c.Request.Context(), h.actor(c), &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, http.StatusCreated, record)
}

func (h *Handler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, httputil.NewErrorResponse("invalid record ID"))
		return
	}

	record, err := h.service.Get(c.Request.Context(), h.actor(c), id)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, http.StatusOK, record)
}

func (h *Handler) List(c *gin.Context) {
	var filters model.RecordFilters
	if err := c.ShouldBindQuery(&filters); err != nil {
		c.JSON(http.StatusBadRequest, httputil.NewErrorResponse(err.Error()))
		return
	}

	records, err := h.service.ListForActor(c.Request.Context(), h.actor(c), &filters)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, http.StatusOK, records)
}

func (h *Handler) Update(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, httputil.NewErrorResponse("invalid record ID"))
		return
	}

	var req model.UpdateMedicalRecordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, httputil.NewErrorResponse(err.Error()))
		return
	}

	record, err := h.service.Update(c.Request.Context(), h.actor(c), id, &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, http.StatusOK, record)
}
