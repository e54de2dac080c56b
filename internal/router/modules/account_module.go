package modules

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/studyhub-kr/studyhub-api/internal/container"
	handlers "github.com/studyhub-kr/studyhub-api/internal/interface/http"
	"github.com/studyhub-kr/studyhub-api/internal/interface/middleware"
	"github.com/studyhub-kr/studyhub-api/pkg/helpers"
)

// AccountModule wires the account lifecycle routes: sign-up, email
// verification, login and logout, token refresh, and public profiles.
// All routes are registered under the given RouterGroup (usually /api).

type AccountModule struct {
	Handler *handlers.AccountHandler
	JWT     *helpers.JWTManager
}

func NewAccountModule(h *handlers.AccountHandler, jwt *helpers.JWTManager) *AccountModule {
	return &AccountModule{Handler: h, JWT: jwt}
}

func (m *AccountModule) Register(rg *gin.RouterGroup) {
	// Public with per-IP rate limiting
	signUpLimiter := middleware.RateLimit(container.GetRedis(), 10, time.Minute, middleware.KeyByIPAndPath())
	checkTokenLimiter := middleware.RateLimit(container.GetRedis(), 30, time.Minute, middleware.KeyByIPAndPath())
	emailLoginLimiter := middleware.RateLimit(container.GetRedis(), 5, time.Minute, middleware.KeyByIPAndPath())
	loginLimiter := middleware.RateLimit(container.GetRedis(), 10, time.Minute, middleware.KeyByIP())
	refreshLimiter := middleware.RateLimit(container.GetRedis(), 60, time.Minute, middleware.KeyByIP())

	rg.POST("/sign-up", signUpLimiter, m.Handler.SignUp)
	rg.GET("/check-email-token", checkTokenLimiter, m.Handler.CheckEmailToken)
	rg.POST("/email-login", emailLoginLimiter, m.Handler.EmailLogin)
	rg.GET("/login-by-email", checkTokenLimiter, m.Handler.LoginByEmail)
	rg.POST("/login", loginLimiter, m.Handler.Login)
	rg.POST("/refresh", refreshLimiter, m.Handler.Refresh)
	rg.GET("/profile/:nickname", m.Handler.Profile)

	// Protected
	auth := rg.Group("/")
	auth.Use(middleware.Auth(container.GetRedis(), m.JWT))
	auth.Use(
		middleware.RateLimit(container.GetRedis(), 300, time.Minute, middleware.KeyByIP()),
		middleware.RateLimit(container.GetRedis(), 120, time.Minute, middleware.KeyByAccountID()),
	)
	{
		auth.POST("/logout", m.Handler.Logout)
		auth.POST("/resend-confirm-email",
			middleware.RateLimit(container.GetRedis(), 5, time.Minute, middleware.KeyByAccountID()),
			m.Handler.ResendConfirmEmail)
		auth.GET("/accounts/search", m.Handler.Search)
	}
}
