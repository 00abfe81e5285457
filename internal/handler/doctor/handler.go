package doctor

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/carelink/portal-api/internal/middleware"
	"github.com/carelink/portal-api/internal/model"
	"github.com/carelink/portal-api/internal/service/appointment"
	"github.com/carelink/portal-api/internal/service/doctor"
	"github.com/carelink/portal-api/pkg/httputil"
)

type Handler struct {
	service      *doctor.Service
	appointments *appointment.Service
}

func NewHandler(service *doctor.Service, appointments *appointment.Service) *Handler {
	return &Handler{service: service, appointments: appointments}
}

// RegisterPublicRoutes exposes the directory and availability lookups, which
// need no account.
func (h *Handler) RegisterPublicRoutes(r *gin.RouterGroup) {
	r.GET("", h.List)
	r.GET("/:id", h.Get)
	r.GET("/:id/availability", h.Availability)
}

// RegisterProtectedRoutes exposes self-service profile editing for doctors.
func (h *Handler) RegisterProtectedRoutes(r *gin.RouterGroup, authMW *middleware.AuthMiddleware) {
	r.PUT("/me", authMW.RequireRole(model.RoleDoctor), h.UpdateSelf)
}

func (h *Handler) List(c *gin.Context) {
	var filters model.DoctorFilters
	if err := c.ShouldBindQuery(&filters); err != nil {
		c.JSON(http.StatusBadRequest, httputil.NewErrorResponse(err.Error()))
		return
	}

	doctors, err := h.service.List(c.Request.Context(), &filters)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, http.StatusOK, doctors)
}

func (h *Handler) Get(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, httputil.NewErrorResponse("invalid doctor ID"))
		return
	}

	d, err := h.service.Get(c.Request.Context(), id)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, http.StatusOK, d)
}

func (h *Handler) Availability(c *gin.Context) {
	id, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, httputil.NewErrorResponse("invalid doctor ID"))
		return
	}

	date := c.Query("date")
	if date == "" {
		c.JSON(http.StatusBadRequest, httputil.NewErrorResponse("date query parameter is required"))
		return
	}

	slots, err := h.appointments.Availability(c.Request.Context(), id, date)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, http.StatusOK, gin.H{
		"date":  date,
		"slots": slots,
	})
}

func (h *Handler) UpdateSelf(c *gin.Context) {
	var req model.DoctorProfile
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, httputil.NewErrorResponse(err.Error()))
		return
	}

	d, err := h.service.Update(c.Request.Context(), middleware.CallerProfileID(c), &req)
	if err != nil {
		httputil.RespondWithError(c, err)
		return
	}
	httputil.RespondWithSuccess(c, http.StatusOK, d)
}
