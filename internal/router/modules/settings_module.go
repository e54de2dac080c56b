package modules

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/studyhub-kr/studyhub-api/internal/container"
	handlers "github.com/studyhub-kr/studyhub-api/internal/interface/http"
	"github.com/studyhub-kr/studyhub-api/internal/interface/middleware"
	"github.com/studyhub-kr/studyhub-api/pkg/helpers"
)

// SettingsModule wires the authenticated /settings routes: profile,
// password, notifications, nickname, and the tag and zone collections.

type SettingsModule struct {
	Handler *handlers.SettingsHandler
	JWT     *helpers.JWTManager
}

func NewSettingsModule(h *handlers.SettingsHandler, jwt *helpers.JWTManager) *SettingsModule {
	return &SettingsModule{Handler: h, JWT: jwt}
}

func (m *SettingsModule) Register(rg *gin.RouterGroup) {
	settings := rg.Group("/settings")
	settings.Use(middleware.Auth(container.GetRedis(), m.JWT))
	settings.Use(middleware.RateLimit(container.GetRedis(), 120, time.Minute, middleware.KeyByAccountID()))
	{
		settings.GET("/profile", m.Handler.GetProfile)
		settings.PUT("/profile", m.Handler.UpdateProfile)
		settings.POST("/profile/image", m.Handler.UploadProfileImage)
		settings.PUT("/password", m.Handler.UpdatePassword)
		settings.PUT("/notifications", m.Handler.UpdateNotifications)
		settings.PUT("/account", m.Handler.UpdateNickname)

		settings.GET("/tags", m.Handler.GetTags)
		settings.POST("/tags", m.Handler.AddTag)
		settings.DELETE("/tags", m.Handler.RemoveTag)

		settings.GET("/zones", m.Handler.GetZones)
		settings.POST("/zones", m.Handler.AddZone)
		settings.DELETE("/zones", m.Handler.RemoveZone)
	}
}
