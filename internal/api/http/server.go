package http

import (
	"context"
	"errors"
	"net/http"
	"time"

	"cravecart/internal/database"
	"cravecart/internal/domain"
	"cravecart/internal/identity"
	"cravecart/internal/service"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"
)

type Deps struct {
	Orders     service.OrderService
	Partners   service.PartnerService
	Auth       service.AuthService
	Catalog    service.CatalogService
	Profiles   service.ProfileService
	Identities identity.Provider
	DB         database.Service
	Log        *logrus.Entry
}

type Server struct {
	deps Deps
	srv  *http.Server
}

func NewServer(addr string, allowedOrigins []string, deps Deps) *Server {
	return &Server{
		deps: deps,
		srv: &http.Server{
			Addr:              addr,
			Handler:           NewRouter(allowedOrigins, deps),
			ReadHeaderTimeout: 10 * time.Second,
		},
	}
}

// Run serves until ctx is done, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		s.deps.Log.WithField("addr", s.srv.Addr).Info("http server listening")
		errCh <- s.srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return s.srv.Shutdown(shutdownCtx)
	}
}

func NewRouter(allowedOrigins []string, deps Deps) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery(), requestLogger(deps.Log))
	r.Use(cors.New(cors.Config{
		AllowOrigins:     allowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	h := &handler{deps: deps}

	r.GET("/health", h.health)
	r.GET("/restaurants", h.listRestaurants)
	r.GET("/restaurants/:id", h.getRestaurant)

	auth := r.Group("/auth")
	{
		auth.POST("/otp/request", h.requestCode)
		auth.POST("/otp/verify", h.verifyCode)
		auth.POST("/partner/login", h.partnerLogin)
		auth.POST("/admin/login", h.adminLogin)
	}

	authed := r.Group("/", requireActor(deps.Identities))
	{
		authed.POST("/admin/partners", h.createPartner)
		authed.PUT("/admin/restaurants/:id", h.saveRestaurant)

		authed.GET("/profile", h.getProfile)
		authed.PUT("/profile", h.updateProfile)

		authed.POST("/orders", h.createOrder)
		authed.GET("/orders", h.listOrders)
		authed.GET("/orders/stream", h.streamOrders)
		authed.GET("/orders/:id", h.getOrder)
		authed.POST("/orders/:id/accept", h.acceptOrder)
		authed.POST("/orders/:id/claim", h.claimOrder)
		authed.POST("/orders/:id/advance", h.advanceOrder)
	}
	return r
}

func requestLogger(log *logrus.Entry) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.WithFields(logrus.Fields{
			"action":  "http_request",
			"method":  c.Request.Method,
			"path":    c.FullPath(),
			"status":  c.Writer.Status(),
			"latency": time.Since(start).String(),
		}).Debug("request served")
	}
}

func sendErrorResponse(c *gin.Context, status int, message string) {
	c.AbortWithStatusJSON(status, gin.H{"message": message})
}

// statusFor maps the error taxonomy onto HTTP statuses.
func statusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrInvalidOrder),
		errors.Is(err, domain.ErrInvalidRequest),
		errors.Is(err, service.ErrInvalidPartner),
		errors.Is(err, service.ErrInvalidPhone),
		errors.Is(err, service.ErrInvalidProfile):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrIllegalTransition):
		return http.StatusConflict
	case errors.Is(err, domain.ErrUnauthorized):
		return http.StatusForbidden
	case errors.Is(err, domain.ErrRateLimited):
		return http.StatusTooManyRequests
	case errors.Is(err, domain.ErrCollaboratorUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func (h *handler) fail(c *gin.Context, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		h.deps.Log.WithError(err).WithField("path", c.FullPath()).Error("request failed")
		sendErrorResponse(c, status, http.StatusText(status))
		return
	}
	sendErrorResponse(c, status, err.Error())
}
