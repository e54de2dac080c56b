package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"github.com/studyhub-kr/studyhub-api/config"
	"github.com/studyhub-kr/studyhub-api/internal/application"
	"github.com/studyhub-kr/studyhub-api/internal/domain/entity"
	"github.com/studyhub-kr/studyhub-api/internal/interface/middleware"
	"github.com/studyhub-kr/studyhub-api/pkg/helpers"
	"github.com/studyhub-kr/studyhub-api/pkg/response"
	"github.com/studyhub-kr/studyhub-api/pkg/validation"
)

type AccountHandler struct {
	Svc     *application.AccountService
	Logger  *logrus.Logger
	Cfg     *config.Config
	Cookies *helpers.CookieManager
}

func NewAccountHandler(svc *application.AccountService, logger *logrus.Logger, cfg *config.Config) *AccountHandler {
	return &AccountHandler{
		Svc:     svc,
		Logger:  logger,
		Cfg:     cfg,
		Cookies: helpers.NewCookieManager(cfg.CookieDomain, cfg.CookieSecure),
	}
}

type signUpRequest struct {
	Nickname string `json:"nickname" binding:"required,nickname"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,pwd"`
}

type loginRequest struct {
	Username string `json:"username" binding:"required"` // email or nickname
	Password string `json:"password" binding:"required"`
}

type emailLoginRequest struct {
	Email string `json:"email" binding:"required,email"`
}

func accountView(a *entity.Account) gin.H {
	return gin.H{
		"id":             a.ID,
		"email":          a.Email,
		"nickname":       a.Nickname,
		"email_verified": a.EmailVerified,
		"joined_at":      a.JoinedAt,
		"bio":            a.Bio,
		"url":            a.URL,
		"occupation":     a.Occupation,
		"location":       a.Location,
		"profile_image":  a.ProfileImage,
		"created_at":     a.CreatedAt,
	}
}

// SignUp POST /api/sign-up
func (h *AccountHandler) SignUp(c *gin.Context) {
	var req signUpRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}

	res, violations, err := h.Svc.Register(c.Request.Context(), application.SignUpForm{
		Nickname: req.Nickname,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		h.Logger.WithError(err).Error("sign-up failed")
		response.Error[any](c, http.StatusInternalServerError, "sign-up failed", nil)
		return
	}
	if len(violations) > 0 {
		response.Error[any](c, http.StatusUnprocessableEntity, "sign-up rejected", violations)
		return
	}

	h.Cookies.SetPair(c, res.Tokens.AccessToken, res.Tokens.AccessTokenExpiry, res.Tokens.RefreshToken, res.Tokens.RefreshTokenExpiry)
	response.Success(c, http.StatusCreated, accountView(res.Account), "account created", gin.H{"identity": res.Identity})
}

// CheckEmailToken GET /api/check-email-token?token=...&email=...
func (h *AccountHandler) CheckEmailToken(c *gin.Context) {
	email := c.Query("email")
	token := c.Query("token")

	res, err := h.Svc.VerifyEmail(c.Request.Context(), email, token)
	if err != nil {
		h.Logger.WithError(err).Error("email verification failed")
		response.Error[any](c, http.StatusInternalServerError, "verification failed", nil)
		return
	}
	switch res.Status {
	case application.StatusWrongEmail:
		response.Error[any](c, http.StatusBadRequest, "wrong email", gin.H{"code": res.Status})
	case application.StatusWrongToken:
		response.Error[any](c, http.StatusBadRequest, "wrong token", gin.H{"code": res.Status})
	default:
		h.Cookies.SetPair(c, res.Tokens.AccessToken, res.Tokens.AccessTokenExpiry, res.Tokens.RefreshToken, res.Tokens.RefreshTokenExpiry)
		response.Success(c, http.StatusOK, gin.H{
			"nickname":    res.Nickname,
			"total_users": res.TotalUsers,
		}, "email verified", gin.H{"identity": res.Identity})
	}
}

// ResendConfirmEmail POST /api/resend-confirm-email (auth required)
func (h *AccountHandler) ResendConfirmEmail(c *gin.Context) {
	a, ok := h.currentAccount(c)
	if !ok {
		return
	}
	if a.EmailVerified {
		response.Success[any](c, http.StatusOK, gin.H{"already_verified": true}, "already verified", nil)
		return
	}
	if !a.CanResendVerification(time.Now(), h.Cfg.MailResendCooldown) {
		response.Error[any](c, http.StatusTooManyRequests, "confirmation email was sent recently", gin.H{
			"retry_after": a.EmailCheckTokenGeneratedAt.Add(h.Cfg.MailResendCooldown),
		})
		return
	}
	if err := h.Svc.SendVerificationMail(c.Request.Context(), a); err != nil {
		h.Logger.WithError(err).Error("resend confirm email failed")
		response.Error[any](c, http.StatusInternalServerError, "resend failed", nil)
		return
	}
	response.Success[any](c, http.StatusAccepted, gin.H{"sent": true}, "confirmation email sent", nil)
}

// EmailLogin POST /api/email-login requests a passwordless login link.
func (h *AccountHandler) EmailLogin(c *gin.Context) {
	var req emailLoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}
	a, err := h.Svc.Resolve(c.Request.Context(), req.Email)
	if err != nil {
		if errors.Is(err, application.ErrAccountNotFound) {
			response.Error[any](c, http.StatusBadRequest, "unknown email", nil)
			return
		}
		h.Logger.WithError(err).Error("email login lookup failed")
		response.Error[any](c, http.StatusInternalServerError, "email login failed", nil)
		return
	}
	if !a.CanResendVerification(time.Now(), h.Cfg.MailResendCooldown) {
		response.Error[any](c, http.StatusTooManyRequests, "login email was sent recently", nil)
		return
	}
	if err := h.Svc.SendLoginLink(c.Request.Context(), a); err != nil {
		h.Logger.WithError(err).Error("send login link failed")
		response.Error[any](c, http.StatusInternalServerError, "email login failed", nil)
		return
	}
	response.Success[any](c, http.StatusAccepted, gin.H{"sent": true}, "login email sent", nil)
}

// LoginByEmail GET /api/login-by-email?token=...&email=...
func (h *AccountHandler) LoginByEmail(c *gin.Context) {
	a, ident, pair, err := h.Svc.LoginByLink(c.Request.Context(), c.Query("email"), c.Query("token"))
	if err != nil {
		if errors.Is(err, application.ErrInvalidLoginLink) {
			response.Error[any](c, http.StatusBadRequest, "invalid login link", nil)
			return
		}
		h.Logger.WithError(err).Error("login by email failed")
		response.Error[any](c, http.StatusInternalServerError, "login failed", nil)
		return
	}
	h.Cookies.SetPair(c, pair.AccessToken, pair.AccessTokenExpiry, pair.RefreshToken, pair.RefreshTokenExpiry)
	response.Success(c, http.StatusOK, accountView(a), "logged in", gin.H{"identity": ident})
}

// Login POST /api/login
func (h *AccountHandler) Login(c *gin.Context) {
	var req loginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error[any](c, http.StatusBadRequest, "invalid payload", validation.ToDetails(err))
		return
	}
	a, ident, pair, err := h.Svc.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		response.Error[any](c, http.StatusUnauthorized, "invalid credentials", nil)
		return
	}
	h.Cookies.SetPair(c, pair.AccessToken, pair.AccessTokenExpiry, pair.RefreshToken, pair.RefreshTokenExpiry)
	response.Success(c, http.StatusOK, accountView(a), "login successful", gin.H{"identity": ident})
}

// Refresh POST /api/refresh
func (h *AccountHandler) Refresh(c *gin.Context) {
	refresh, err := c.Cookie("refresh_token")
	if err != nil || refresh == "" {
		response.Error[any](c, http.StatusUnauthorized, "missing refresh token", nil)
		return
	}
	ident, pair, err := h.Svc.Refresh(c.Request.Context(), refresh)
	if err != nil {
		response.Error[any](c, http.StatusUnauthorized, "invalid refresh token", nil)
		return
	}
	h.Cookies.SetPair(c, pair.AccessToken, pair.AccessTokenExpiry, pair.RefreshToken, pair.RefreshTokenExpiry)
	response.Success[any](c, http.StatusOK, gin.H{"refreshed": true}, "token refreshed", gin.H{"identity": ident})
}

// Logout POST /api/logout (auth required)
func (h *AccountHandler) Logout(c *gin.Context) {
	if aid := c.GetString(middleware.CtxAccountIDKey); aid != "" {
		h.Svc.Sessions.Drop(c.Request.Context(), aid)
	}
	h.Cookies.Clear(c)
	response.Success[any](c, http.StatusOK, gin.H{"logged_out": true}, "logged out", nil)
}

// Profile GET /api/profile/:nickname serves the public profile view.
func (h *AccountHandler) Profile(c *gin.Context) {
	a, err := h.Svc.Resolve(c.Request.Context(), c.Param("nickname"))
	if err != nil {
		if errors.Is(err, application.ErrAccountNotFound) {
			response.Error[any](c, http.StatusNotFound, "no such user", nil)
			return
		}
		h.Logger.WithError(err).Error("profile lookup failed")
		response.Error[any](c, http.StatusInternalServerError, "profile lookup failed", nil)
		return
	}
	view := accountView(a)
	delete(view, "email") // not exposed on public profiles
	response.Success(c, http.StatusOK, view, "profile", nil)
}

// Search GET /api/accounts/search?q=...&size=... (auth required)
func (h *AccountHandler) Search(c *gin.Context) {
	q := c.Query("q")
	size, _ := strconv.Atoi(c.DefaultQuery("size", "10"))
	hits, err := h.Svc.SearchAccounts(c.Request.Context(), q, size)
	if err != nil {
		h.Logger.WithError(err).Warn("account search failed")
		response.Error[any](c, http.StatusInternalServerError, "search failed", nil)
		return
	}
	response.Success(c, http.StatusOK, hits, "search results", gin.H{"count": len(hits)})
}

// currentAccount loads the authenticated account or writes an error.
func (h *AccountHandler) currentAccount(c *gin.Context) (*entity.Account, bool) {
	aid := c.GetString(middleware.CtxAccountIDKey)
	if aid == "" {
		response.Error[any](c, http.StatusUnauthorized, "unauthorized", nil)
		return nil, false
	}
	a, err := h.Svc.GetAccount(c.Request.Context(), aid)
	if err != nil {
		if errors.Is(err, application.ErrAccountNotFound) {
			response.Error[any](c, http.StatusNotFound, "no such account", nil)
			return nil, false
		}
		h.Logger.WithError(err).Error("account lookup failed")
		response.Error[any](c, http.StatusInternalServerError, "account lookup failed", nil)
		return nil, false
	}
	return a, true
}
