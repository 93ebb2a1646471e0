package http

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"specflow/internal/metrics"
	"specflow/internal/service"
)

// PublicConfig son los identificadores que un cliente necesita para Google y el procesador de pagos.
type PublicConfig struct {
	GoogleClientID  string `json:"googleClientId"`
	StripePublicKey string `json:"stripePublicKey"`
}

// RouterConfig agrupa lo que el router necesita ademas de los handlers.
type RouterConfig struct {
	Public         PublicConfig
	AllowedOrigins []string
	// TrustedProxies son los proxies cuyo X-Forwarded-For se acepta; vacio usa solo la IP del socket.
	TrustedProxies []string
	Metrics        metrics.Recorder
	Gatherer       prometheus.Gatherer
	Limiter        *IPRateLimiter
}

// NewRouter configura el router de Gin con middlewares y rutas.
func NewRouter(
	logger *zap.Logger,
	cfg RouterConfig,
	jwtSvc *service.JWTService,
	authH *AuthHandler,
	paymentH *PaymentHandler,
	siteH *SiteHandler,
	generateH *GenerateHandler,
) *gin.Engine {
	if cfg.Metrics == nil {
		cfg.Metrics = metrics.Nop{}
	}
	if cfg.Limiter == nil {
		cfg.Limiter = NewIPRateLimiter(30, 10)
	}

	r := gin.New()
	if err := r.SetTrustedProxies(cfg.TrustedProxies); err != nil {
		logger.Warn("invalid trusted proxies, trusting none", zap.Strings("proxies", cfg.TrustedProxies), zap.Error(err))
		_ = r.SetTrustedProxies(nil)
	}
	r.Use(
		zapLoggerMiddleware(logger, cfg.Metrics),
		recoveryMiddleware(logger),
		corsMiddleware(cfg.AllowedOrigins),
		securityHeadersMiddleware(),
	)

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	if cfg.Gatherer != nil {
		r.GET("/metrics", gin.WrapH(metrics.Handler(cfg.Gatherer)))
	}

	api := r.Group("/api", jsonContentTypeMiddleware())
	api.GET("/config", func(c *gin.Context) {
		c.JSON(http.StatusOK, cfg.Public)
	})

	auth := api.Group("/auth", cfg.Limiter.Middleware())
	auth.POST("/signup", authH.Signup)
	auth.POST("/login", authH.Login)
	auth.POST("/google", authH.GoogleLogin)
	auth.POST("/forgot-password", authH.ForgotPassword)
	auth.POST("/reset-password/:token", authH.ResetPassword)
	auth.GET("/me", JWTAuthMiddleware(jwtSvc), authH.Me)

	api.POST("/create-payment-intent", paymentH.CreatePaymentIntent)
	api.POST("/confirm-payment", paymentH.ConfirmPayment)

	api.POST("/subscribe", cfg.Limiter.Middleware(), siteH.Subscribe)
	api.POST("/contact", cfg.Limiter.Middleware(), siteH.Contact)

	api.POST("/generate", cfg.Limiter.Middleware(), generateH.Generate)

	return r
}
