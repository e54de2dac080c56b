package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/studyhub-kr/studyhub-api/config"
	"github.com/studyhub-kr/studyhub-api/internal/application"
	"github.com/studyhub-kr/studyhub-api/internal/domain/repository"
	"github.com/studyhub-kr/studyhub-api/pkg/helpers"
	"github.com/studyhub-kr/studyhub-api/pkg/response"
	"github.com/studyhub-kr/studyhub-api/pkg/validation"
)

// SettingsHandler serves the authenticated account's own settings.
type SettingsHandler struct {
	Svc     *application.AccountService
	Logger  *logrus.Logger
	Cfg     *config.Config
	Cookies *helpers.CookieManager

	// shared account loading with AccountHandler
	accounts *AccountHandler
}

func NewSettingsHandler(svc *application.AccountService, logger *logrus.Logger, cfg *config.Config) *SettingsHandler {
	return &SettingsHandler{
		Svc:      svc,
		Logger:   logger,
		Cfg:      cfg,
		Cookies:  helpers.NewCookieManager(cfg.CookieDomain, cfg.CookieSecure),
		accounts: NewAccountHandler(svc, logger, cfg),
	}
}

type profileRequest struct {
	Bio          string `json:"bio" binding:"max=35"`
	URL          string `json:"url" binding:"omitempty,url,max=50"`
	Occupation   string `json:"occupation" binding:"max=50"`
	Location     string `json:"location" binding:"max=50"`
	ProfileImage string `json:"profile_image"`
}

type passwordRequest struct {
	NewPassword     string `json:"new_password" binding:"required,pwd"`
	ConfirmPassword string `json:"confirm_password" binding:"required,eqfield=NewPassword"`
}

type notificationsRequest struct {
	StudyCreatedByWeb       bool `json:"study_created_by_web"`
	StudyCreatedByEmail     bool `json:"study_created_by_email"`
	StudyUpdatedByWeb       bool `json:"study_updated_by_web"`
	StudyUpdatedByEmail     bool `json:"study_updated_by_email"`
	EnrollmentResultByWeb   bool `json:"enrollment_result_by_web"`
	EnrollmentResultByEmail bool `json:"enrollment_result_by_email"`
}

type nicknameRequest struct {
	Nickname string `json:"nickname" binding:"required,nickname"`
}

type tagRequest struct {
	Title string `json:"title" binding:"required,min=1,max=50"`
}

type zoneRequest struct {
	City string `json:"city" binding:"required"`
	// Province is empty for metropolitan cities.
	Province string `json:"province"`
}

// GetProfile GET /api/settings/profile
func (h *SettingsHandler) GetProfile(c *gin.Context) {
	a, ok := h.accounts.currentAccount(c)
	if !ok {
		return
	}
	view := accountView(a)
	view["notifications"] = notificationsRequest{
		StudyCreatedByWeb:       a.StudyCreatedByWeb,
		StudyCreatedByEmail:     a.StudyCreatedByEmail,
		StudyUpdatedByWeb:       a.StudyUpdatedByWeb,
		StudyUpdatedByEmail:     a.StudyUpdatedByEmail,
		EnrollmentResultByWeb:   a.EnrollmentResultByWeb,
		EnrollmentResultByEmail: a.EnrollmentResultByEmail,
	}
	response.Success(c, http.StatusOK, view, "profile", nil)
}

// UpdateProfile PUT /api/settings/profile
func (h *SettingsHandler) UpdateProfile(c *gin.Context) {
	a, ok := h.accounts.currentAccount(c)
	if !ok {
		return
	}
	var req profileRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}
	violations, err := h.Svc.UpdateProfile(c.Request.Context(), a, application.ProfileForm{
		Bio:          req.Bio,
		URL:          req.URL,
		Occupation:   req.Occupation,
		Location:     req.Location,
		ProfileImage: req.ProfileImage,
	})
	if err != nil {
		h.Logger.WithError(err).Error("profile update failed")
		response.Error[any](c, http.StatusInternalServerError, "profile update failed", nil)
		return
	}
	if len(violations) > 0 {
		response.Error[any](c, http.StatusUnprocessableEntity, "profile rejected", violations)
		return
	}
	response.Success(c, http.StatusOK, accountView(a), "profile updated", nil)
}

// UploadProfileImage POST /api/settings/profile/image (multipart)
func (h *SettingsHandler) UploadProfileImage(c *gin.Context) {
	a, ok := h.accounts.currentAccount(c)
	if !ok {
		return
	}
	file, header, err := c.Request.FormFile("image")
	if err != nil {
		response.Error[any](c, http.StatusBadRequest, "image file is required", nil)
		return
	}
	defer func() { _ = file.Close() }()

	url, err := h.Svc.UploadProfileImage(c.Request.Context(), a, file, header.Filename, header.Header.Get("Content-Type"))
	if err != nil {
		h.Logger.WithError(err).Error("profile image upload failed")
		response.Error[any](c, http.StatusInternalServerError, "upload failed", nil)
		return
	}
	response.Success(c, http.StatusOK, gin.H{"profile_image": url}, "profile image updated", nil)
}

// UpdatePassword PUT /api/settings/password
func (h *SettingsHandler) UpdatePassword(c *gin.Context) {
	a, ok := h.accounts.currentAccount(c)
	if !ok {
		return
	}
	var req passwordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}
	violations, err := h.Svc.UpdatePassword(c.Request.Context(), a, req.NewPassword)
	if err != nil {
		h.Logger.WithError(err).Error("password update failed")
		response.Error[any](c, http.StatusInternalServerError, "password update failed", nil)
		return
	}
	if len(violations) > 0 {
		response.Error[any](c, http.StatusUnprocessableEntity, "password rejected", violations)
		return
	}
	response.Success[any](c, http.StatusOK, gin.H{"updated": true}, "password updated", nil)
}

// UpdateNotifications PUT /api/settings/notifications
func (h *SettingsHandler) UpdateNotifications(c *gin.Context) {
	a, ok := h.accounts.currentAccount(c)
	if !ok {
		return
	}
	var req notificationsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}
	err := h.Svc.UpdateNotifications(c.Request.Context(), a, application.NotificationsForm{
		StudyCreatedByWeb:       req.StudyCreatedByWeb,
		StudyCreatedByEmail:     req.StudyCreatedByEmail,
		StudyUpdatedByWeb:       req.StudyUpdatedByWeb,
		StudyUpdatedByEmail:     req.StudyUpdatedByEmail,
		EnrollmentResultByWeb:   req.EnrollmentResultByWeb,
		EnrollmentResultByEmail: req.EnrollmentResultByEmail,
	})
	if err != nil {
		h.Logger.WithError(err).Error("notifications update failed")
		response.Error[any](c, http.StatusInternalServerError, "notifications update failed", nil)
		return
	}
	response.Success[any](c, http.StatusOK, gin.H{"updated": true}, "notifications updated", nil)
}

// UpdateNickname PUT /api/settings/account
func (h *SettingsHandler) UpdateNickname(c *gin.Context) {
	a, ok := h.accounts.currentAccount(c)
	if !ok {
		return
	}
	var req nicknameRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}
	ident, pair, violations, err := h.Svc.UpdateNickname(c.Request.Context(), a, req.Nickname)
	if err != nil {
		h.Logger.WithError(err).Error("nickname update failed")
		response.Error[any](c, http.StatusInternalServerError, "nickname update failed", nil)
		return
	}
	if len(violations) > 0 {
		response.Error[any](c, http.StatusUnprocessableEntity, "nickname rejected", violations)
		return
	}
	// Display name changed, so the session cookies are rotated too.
	h.Cookies.SetPair(c, pair.AccessToken, pair.AccessTokenExpiry, pair.RefreshToken, pair.RefreshTokenExpiry)
	response.Success(c, http.StatusOK, accountView(a), "nickname updated", gin.H{"identity": ident})
}

// GetTags GET /api/settings/tags
func (h *SettingsHandler) GetTags(c *gin.Context) {
	a, ok := h.accounts.currentAccount(c)
	if !ok {
		return
	}
	tags, err := h.Svc.GetTags(c.Request.Context(), a)
	if err != nil {
		h.notFoundOrInternal(c, err, "tags lookup failed")
		return
	}
	titles := make([]string, 0, len(tags))
	for _, t := range tags {
		titles = append(titles, t.Title)
	}
	response.Success(c, http.StatusOK, titles, "tags", nil)
}

// AddTag POST /api/settings/tags
func (h *SettingsHandler) AddTag(c *gin.Context) {
	a, ok := h.accounts.currentAccount(c)
	if !ok {
		return
	}
	var req tagRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}
	tag, err := h.Svc.Tags.FindOrCreate(c.Request.Context(), req.Title)
	if err != nil {
		h.Logger.WithError(err).Error("tag create failed")
		response.Error[any](c, http.StatusInternalServerError, "tag create failed", nil)
		return
	}
	if err := h.Svc.AddTag(c.Request.Context(), a, tag); err != nil {
		h.notFoundOrInternal(c, err, "tag add failed")
		return
	}
	response.Success(c, http.StatusOK, gin.H{"title": tag.Title}, "tag added", nil)
}

// RemoveTag DELETE /api/settings/tags
func (h *SettingsHandler) RemoveTag(c *gin.Context) {
	a, ok := h.accounts.currentAccount(c)
	if !ok {
		return
	}
	var req tagRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}
	tag, err := h.Svc.Tags.FindByTitle(c.Request.Context(), req.Title)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			// Removing an unknown tag is a no-op.
			response.Success(c, http.StatusOK, gin.H{"title": req.Title}, "tag removed", nil)
			return
		}
		h.Logger.WithError(err).Error("tag lookup failed")
		response.Error[any](c, http.StatusInternalServerError, "tag remove failed", nil)
		return
	}
	if err := h.Svc.RemoveTag(c.Request.Context(), a, tag); err != nil {
		h.notFoundOrInternal(c, err, "tag remove failed")
		return
	}
	response.Success(c, http.StatusOK, gin.H{"title": tag.Title}, "tag removed", nil)
}

// GetZones GET /api/settings/zones
func (h *SettingsHandler) GetZones(c *gin.Context) {
	a, ok := h.accounts.currentAccount(c)
	if !ok {
		return
	}
	zones, err := h.Svc.GetZones(c.Request.Context(), a)
	if err != nil {
		h.notFoundOrInternal(c, err, "zones lookup failed")
		return
	}
	names := make([]string, 0, len(zones))
	for _, z := range zones {
		names = append(names, z.String())
	}
	response.Success(c, http.StatusOK, names, "zones", nil)
}

// AddZone POST /api/settings/zones
func (h *SettingsHandler) AddZone(c *gin.Context) {
	a, ok := h.accounts.currentAccount(c)
	if !ok {
		return
	}
	var req zoneRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}
	zone, err := h.Svc.Zones.FindByCityAndProvince(c.Request.Context(), req.City, req.Province)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			response.Error[any](c, http.StatusBadRequest, "unknown zone", nil)
			return
		}
		h.Logger.WithError(err).Error("zone lookup failed")
		response.Error[any](c, http.StatusInternalServerError, "zone add failed", nil)
		return
	}
	if err := h.Svc.AddZone(c.Request.Context(), a, zone); err != nil {
		h.notFoundOrInternal(c, err, "zone add failed")
		return
	}
	response.Success(c, http.StatusOK, gin.H{"zone": zone.String()}, "zone added", nil)
}

// RemoveZone DELETE /api/settings/zones
func (h *SettingsHandler) RemoveZone(c *gin.Context) {
	a, ok := h.accounts.currentAccount(c)
	if !ok {
		return
	}
	var req zoneRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}
	zone, err := h.Svc.Zones.FindByCityAndProvince(c.Request.Context(), req.City, req.Province)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			response.Success(c, http.StatusOK, gin.H{"city": req.City}, "zone removed", nil)
			return
		}
		h.Logger.WithError(err).Error("zone lookup failed")
		response.Error[any](c, http.StatusInternalServerError, "zone remove failed", nil)
		return
	}
	if err := h.Svc.RemoveZone(c.Request.Context(), a, zone); err != nil {
		h.notFoundOrInternal(c, err, "zone remove failed")
		return
	}
	response.Success(c, http.StatusOK, gin.H{"zone": zone.String()}, "zone removed", nil)
}

func (h *SettingsHandler) notFoundOrInternal(c *gin.Context, err error, msg string) {
	if errors.Is(err, application.ErrAccountNotFound) {
		response.Error[any](c, http.StatusNotFound, "no such account", nil)
		return
	}
	h.Logger.WithError(err).Error(msg)
	response.Error[any](c, http.StatusInternalServerError, msg, nil)
}
