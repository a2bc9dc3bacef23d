package api

import (
	"strconv"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/couchcryptid/asteroid-impact-engine/internal/observability"
)

// RouterOptions configures the middleware stack.
type RouterOptions struct {
	AllowOrigins []string
	RateLimit    float64
	Metrics      *observability.Metrics
}

// NewRouter builds a gin engine with recovery, CORS, rate limiting and request
// metrics. Handlers are registered separately.
func NewRouter(opts RouterOptions) *gin.Engine {
	origins := opts.AllowOrigins
	if len(origins) == 0 {
		origins = []string{"*"}
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(cors.New(cors.Config{
		AllowOrigins:  origins,
		AllowMethods:  []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type"},
		ExposeHeaders: []string{"Content-Length"},
		MaxAge:        12 * time.Hour,
	}))
	router.Use(RateLimitMiddleware(opts.RateLimit))
	if opts.Metrics != nil {
		router.Use(MetricsMiddleware(opts.Metrics))
	}
	return router
}

// MetricsMiddleware records request counts and latency by matched route.
// Unmatched paths are grouped under "unmatched" to bound label cardinality.
func MetricsMiddleware(m *observability.Metrics) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		m.APIRequests.WithLabelValues(route, strconv.Itoa(c.Writer.Status())).Inc()
		m.APIDuration.WithLabelValues(route).Observe(time.Since(start).Seconds())
	}
}
