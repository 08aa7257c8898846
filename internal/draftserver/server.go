// Package draftserver is an in-memory stand-in for the test-drive REST
// backend, used for local development and end-to-end tests.
package draftserver

import (
	"log/slog"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"golang.org/x/time/rate"

	"testdrive-wizard/internal/entities"
)

// Server holds all backend data in memory.
type Server struct {
	mu             sync.RWMutex
	forms          map[string]*entities.TestDriveForm
	customers      map[string]*entities.Customer
	customersByDNI map[string]string
	vehicles       map[string]*entities.Vehicle
	locations      []entities.Location

	now       func() time.Time
	newID     func() string
	logger    *slog.Logger
	limiter   *rate.Limiter
	accessLog bool
}

// Option configures a Server.
type Option func(*Server)

// WithRateLimit caps accepted requests per second; 0 disables the limit.
func WithRateLimit(perSecond float64) Option {
	return func(s *Server) {
		if perSecond <= 0 {
			s.limiter = nil
			return
		}
		burst := int(perSecond)
		if burst < 1 {
			burst = 1
		}
		s.limiter = rate.NewLimiter(rate.Limit(perSecond), burst)
	}
}

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Server) {
		if l != nil {
			s.logger = l
		}
	}
}

// WithAccessLog turns gin's request log on.
func WithAccessLog(on bool) Option {
	return func(s *Server) { s.accessLog = on }
}

// WithClock replaces time.Now for timestamps.
func WithClock(now func() time.Time) Option {
	return func(s *Server) { s.now = now }
}

// WithIDs replaces the id generator.
func WithIDs(next func() string) Option {
	return func(s *Server) { s.newID = next }
}

// New creates an empty backend.
func New(opts ...Option) *Server {
	s := &Server{
		forms:          make(map[string]*entities.TestDriveForm),
		customers:      make(map[string]*entities.Customer),
		customersByDNI: make(map[string]string),
		vehicles:       make(map[string]*entities.Vehicle),
		now:            time.Now,
		newID:          newUUID,
		logger:         slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Router builds the gin engine.
func (s *Server) Router() *gin.Engine {
	r := gin.New()
	if s.accessLog {
		r.Use(gin.Logger())
	}
	r.Use(gin.Recovery())
	r.Use(corsMiddleware())
	if s.limiter != nil {
		r.Use(rateLimitMiddleware(s.limiter))
	}

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	forms := r.Group("/test-drive-forms", brandMiddleware())
	{
		forms.GET("", s.handleListForms)
		forms.POST("", s.handleCreateForm)
		forms.GET("/:id", s.handleGetForm)
		forms.PATCH("/:id", s.handleUpdateForm)
	}

	r.POST("/customers/find-or-create", s.handleFindOrCreateCustomer)
	r.GET("/vehicles", s.handleLookupVehicle)
	r.POST("/vehicles/find-or-create", s.handleFindOrCreateVehicle)
	r.GET("/locations", s.handleListLocations)

	return r
}

// Handler wraps the router with OpenTelemetry instrumentation.
func (s *Server) Handler() http.Handler {
	return otelhttp.NewHandler(s.Router(), "draftserver")
}

// ============================================================================
// SEED DATA
// ============================================================================

// SeedLocation registers a test-drive location and returns it.
func (s *Server) SeedLocation(name string) entities.Location {
	s.mu.Lock()
	defer s.mu.Unlock()
	loc := entities.Location{ID: s.newID(), Name: name}
	s.locations = append(s.locations, loc)
	return loc
}

// SeedVehicle registers a dealership-confirmed vehicle and returns it.
func (s *Server) SeedVehicle(v entities.Vehicle) entities.Vehicle {
	s.mu.Lock()
	defer s.mu.Unlock()
	if v.ID == "" {
		v.ID = s.newID()
	}
	if v.RegisterStatus == "" {
		v.RegisterStatus = entities.VehicleConfirmed
	}
	s.vehicles[v.ID] = v.Clone()
	return v
}

// SeedDefaults loads a small demo catalogue.
func (s *Server) SeedDefaults() {
	s.SeedLocation("Showroom Av. Kennedy")
	s.SeedLocation("Sucursal Vitacura")
	vin := "WDD1569431J123456"
	s.SeedVehicle(entities.Vehicle{
		Make:         "Mercedes-Benz",
		Model:        "GLA 200",
		Color:        "Polar White",
		Location:     "Showroom Av. Kennedy",
		LicensePlate: "ABCD12",
		VINNumber:    &vin,
	})
	s.SeedVehicle(entities.Vehicle{
		Make:         "Jeep",
		Model:        "Compass",
		Color:        "Granite",
		Location:     "Sucursal Vitacura",
		LicensePlate: "JPCM45",
	})
}

// corsMiddleware adds CORS headers for cross-origin requests
func corsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Header("Access-Control-Allow-Origin", "*")
		c.Header("Access-Control-Allow-Methods", "GET, POST, PATCH, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Content-Type, X-Brand")
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

func rateLimitMiddleware(l *rate.Limiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !l.Allow() {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "rate limit exceeded"})
			return
		}
		c.Next()
	}
}

const brandKey = "brand"

// brandMiddleware requires a known brand in the X-Brand header.
func brandMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		brand, err := entities.ParseBrand(c.GetHeader("X-Brand"))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"error": "X-Brand header: " + err.Error()})
			return
		}
		c.Set(brandKey, brand)
		c.Next()
	}
}

func requestBrand(c *gin.Context) entities.Brand {
	v, _ := c.Get(brandKey)
	b, _ := v.(entities.Brand)
	return b
}
