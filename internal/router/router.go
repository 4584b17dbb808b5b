package router

import (
	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"

	"github.com/medrelay/session-api/internal/handler/prometheus"
	"github.com/medrelay/session-api/internal/middleware"
)

type Handler interface {
	RegisterRoutes(*gin.RouterGroup)
}

type RouterConfig struct {
	RateLimit  rate.Limit
	RateBurst  int
	CORSConfig middleware.CORSConfig
}

type Router struct {
	engine  *gin.Engine
	metrics *prometheus.Handler

	healthH   Handler
	sessionH  Handler
	vitalsH   Handler
	recordH   Handler
	templateH Handler
	planH     Handler
}

func NewRouter(
	healthH Handler,
	sessionH Handler,
	vitalsH Handler,
	recordH Handler,
	templateH Handler,
	planH Handler,
	config RouterConfig,
) *Router {
	gin.SetMode(gin.ReleaseMode)

	engine := gin.New()
	metrics := prometheus.New()

	r := &Router{
		engine:    engine,
		metrics:   metrics,
		healthH:   healthH,
		sessionH:  sessionH,
		vitalsH:   vitalsH,
		recordH:   recordH,
		templateH: templateH,
		planH:     planH,
	}

	engine.Use(
		middleware.RequestID(),
		middleware.RequestLogger(),
		middleware.Recovery(),
		metrics.Middleware(),
	)

	engine.Use(middleware.CORS(config.CORSConfig))

	rateLimiter := middleware.NewRateLimiter(config.RateLimit, config.RateBurst)
	engine.Use(rateLimiter.RateLimit())

	return r
}

func (r *Router) Setup() {
	r.engine.GET("/metrics", r.metrics.Handler())

	api := r.engine.Group("/api/v1")
	api.Use(func(c *gin.Context) {
		c.Header("X-API-Version", "1.0")
		c.Next()
	})

	r.healthH.RegisterRoutes(api)

	// Session coordination routes. Identity comes from the gateway
	// headers; requests without them are rejected here.
	protected := api.Group("")
	protected.Use(middleware.ActorContext())
	{
		r.sessionH.RegisterRoutes(protected)
		r.vitalsH.RegisterRoutes(protected)
		r.recordH.RegisterRoutes(protected)
		r.templateH.RegisterRoutes(protected)
		r.planH.RegisterRoutes(protected)
	}
}

func (r *Router) Engine() *gin.Engine {
	return r.engine
}
