package router

import (
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/time/rate"

	"github.com/carelink/portal-api/internal/handler"
	appointmenth "github.com/carelink/portal-api/internal/handler/appointment"
	authh "github.com/carelink/portal-api/internal/handler/auth"
	contacth "github.com/carelink/portal-api/internal/handler/contact"
	doctorh "github.com/carelink/portal-api/internal/handler/doctor"
	medicalh "github.com/carelink/portal-api/internal/handler/medical"
	patienth "github.com/carelink/portal-api/internal/handler/patient"
	"github.com/carelink/portal-api/internal/middleware"
)

type Config struct {
	RateLimit  rate.Limit
	RateBurst  int
	CORSConfig middleware.CORSConfig
	Timeout    time.Duration
}

type Router struct {
	engine       *gin.Engine
	auth         *middleware.AuthMiddleware
	h            *handler.Handler
	authH        *authh.Handler
	doctorH      *doctorh.Handler
	appointmentH *appointmenth.Handler
	patientH     *patienth.Handler
	medicalH     *medicalh.Handler
	contactH     *contacth.Handler
	metrics      *routerMetrics
}

func NewRouter(
	auth *middleware.AuthMiddleware,
	h *handler.Handler,
	authH *authh.Handler,
	doctorH *doctorh.Handler,
	appointmentH *appointmenth.Handler,
	patientH *patienth.Handler,
	medicalH *medicalh.Handler,
	contactH *contacth.Handler,
	config Config,
) *Router {
	gin.SetMode(gin.ReleaseMode)

	engine := gin.New()
	if config.Timeout == 0 {
		config.Timeout = middleware.DefaultTimeoutConfig().Duration
	}

	r := &Router{
		engine:       engine,
		auth:         auth,
		h:            h,
		authH:        authH,
		doctorH:      doctorH,
		appointmentH: appointmentH,
		patientH:     patientH,
		medicalH:     medicalH,
		contactH:     contactH,
		metrics:      initRouterMetrics("portal"),
	}

	engine.Use(
		gin.Recovery(),
		middleware.RequestID(),
		middleware.Logger(),
		middleware.ErrorLogger(),
		r.metricsMiddleware(),
		middleware.Timeout(middleware.TimeoutConfig{Duration: config.Timeout}),
		middleware.CORS(config.CORSConfig),
	)

	if config.RateLimit > 0 {
		rateLimiter := middleware.NewRateLimiter(middleware.RateLimiterConfig{
			Rate:  config.RateLimit,
			Burst: config.RateBurst,
		})
		engine.Use(rateLimiter.RateLimit())
	}

	return r
}

func (r *Router) Setup() {
	api := r.engine.Group("/api/v1")

	health := api.Group("/health")
	{
		health.GET("/live", r.h.LivenessCheck)
		health.GET("/ready", r.h.ReadinessCheck)
		health.GET("/metrics", r.h.MetricsHandler)
	}

	// Public surface: registration, login, directory browsing, contact form.
	r.authH.RegisterRoutes(api.Group("/auth"), r.auth)
	r.doctorH.RegisterPublicRoutes(api.Group("/doctors"))
	r.contactH.RegisterRoutes(api.Group("/contact"))

	// Everything else requires an account.
	protected := api.Group("", r.auth.Authenticate())
	r.appointmentH.RegisterRoutes(protected.Group("/appointments"))
	r.medicalH.RegisterRoutes(protected.Group("/medical-records"), r.auth)
	r.patientH.RegisterRoutes(protected.Group("/patients"), r.auth)
	r.doctorH.RegisterProtectedRoutes(protected.Group("/doctors"), r.auth)
}

func (r *Router) Engine() *gin.Engine {
	return r.engine
}

type routerMetrics struct {
	requestDuration *prometheus.HistogramVec
	requestTotal    *prometheus.CounterVec
	errorTotal      *prometheus.CounterVec
}

func initRouterMetrics(prefix string) *routerMetrics {
	m := &routerMetrics{
		requestDuration: prometheus.NewHistogramVec(
			prometheus.HistogramOpts{
				Name: prefix + "_request_duration_seconds",
				Help: "Duration of HTTP requests in seconds",
			},
			[]string{"method", "path", "status"},
		),
		requestTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: prefix + "_requests_total",
				Help: "Total number of HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		errorTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: prefix + "_errors_total",
				Help: "Total number of HTTP errors",
			},
			[]string{"method", "path", "type"},
		),
	}
	prometheus.MustRegister(m.requestDuration, m.requestTotal, m.errorTotal)
	return m
}

func (r *Router) metricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.FullPath()

		c.Next()

		status := fmt.Sprintf("%d", c.Writer.Status())
		duration := time.Since(start).Seconds()

		r.metrics.requestDuration.WithLabelValues(c.Request.Method, path, status).Observe(duration)
		r.metrics.requestTotal.WithLabelValues(c.Request.Method, path, status).Inc()

		if c.Writer.Status() >= 400 {
			r.metrics.errorTotal.WithLabelValues(c.Request.Method, path, "http").Inc()
		}
	}
}
