// Package auth issues the identity tokens the websocket endpoint accepts.
// Accounts are not stored: a guest picks a username and receives a signed
// cookie carrying a fresh player id.
package auth

import (
	"errors"
	"net/http"
	"regexp"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/spexcher/Pictionary/crypto"
	"github.com/spexcher/Pictionary/domain"
)

const (
	ErrMissingTokenStr          = "missing-token"
	ErrExpiredTokenStr          = "expired-token"
	ErrBadTokenStr              = "bad-token"
	ErrInvalidRequestFormatStr  = "bad-request-format"
	ErrInvalidUsernameFormatStr = "invalid-username-format"
	ErrUnknownStr               = "unknown-error"
)

const cookieName = "token"

var usernamePattern = regexp.MustCompile(`^[a-zA-Z0-9_]{3,20}$`)

type TokenIssuer interface {
	Generate(id, username string, now time.Time) (string, error)
	Verify(token string) (crypto.Identity, error)
}

type Handler struct {
	issuer       TokenIssuer
	cookieMaxAge time.Duration
	now          func() time.Time
	log          zerolog.Logger
}

func NewHandler(issuer TokenIssuer, cookieMaxAge time.Duration, log zerolog.Logger) *Handler {
	return &Handler{issuer: issuer, cookieMaxAge: cookieMaxAge, now: time.Now, log: log}
}

// Register mounts the routes under group.
func (h *Handler) Register(group *gin.RouterGroup) {
	group.POST("/guest", h.GuestHandler)
	group.POST("/refresh", h.RefreshSessionHandler)
	group.POST("/logout", h.LogoutHandler)
	group.GET("/me", h.RequireAuthMiddleware(), h.MeHandler)
}

func (h *Handler) GuestHandler(ctx *gin.Context) {
	var body struct {
		Username string `json:"username"`
	}
	if err := ctx.ShouldBindJSON(&body); err != nil {
		ctx.String(http.StatusBadRequest, ErrInvalidRequestFormatStr)
		ctx.Abort()
		return
	}
	if !usernamePattern.MatchString(body.Username) {
		ctx.String(http.StatusBadRequest, ErrInvalidUsernameFormatStr)
		ctx.Abort()
		return
	}

	id := "user_" + uuid.NewString()
	token, err := h.issuer.Generate(id, body.Username, h.now())
	if err != nil {
		h.log.Error().Err(err).Str("username", body.Username).Msg("issuing guest token")
		ctx.String(http.StatusInternalServerError, ErrUnknownStr)
		ctx.Abort()
		return
	}

	h.setCookie(ctx, token)
	ctx.JSON(http.StatusCreated, gin.H{"id": id, "username": body.Username})
}

func (h *Handler) RefreshSessionHandler(ctx *gin.Context) {
	token, err := ctx.Cookie(cookieName)
	if err != nil {
		ctx.String(http.StatusUnauthorized, ErrMissingTokenStr)
		return
	}

	identity, err := h.issuer.Verify(token)
	if err != nil {
		ctx.String(http.StatusUnauthorized, ErrBadTokenStr)
		return
	}

	newToken, err := h.issuer.Generate(identity.Id, identity.Username, h.now())
	if err != nil {
		h.log.Error().Err(err).Str("id", identity.Id).Msg("refreshing token")
		ctx.Status(http.StatusInternalServerError)
		return
	}

	h.setCookie(ctx, newToken)
	ctx.Status(http.StatusOK)
}

func (h *Handler) LogoutHandler(ctx *gin.Context) {
	ctx.SetSameSite(http.SameSiteNoneMode)
	ctx.SetCookie(cookieName, "", -1, "/", "", true, true)
	ctx.Status(http.StatusNoContent)
}

// RequireAuthMiddleware stores the verified identity under "identity".
func (h *Handler) RequireAuthMiddleware() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		token, err := ctx.Cookie(cookieName)
		if err != nil {
			ctx.String(http.StatusUnauthorized, ErrMissingTokenStr)
			ctx.Abort()
			return
		}

		identity, err := h.issuer.Verify(token)
		if err != nil {
			switch {
			case errors.Is(err, domain.ErrExpiredToken):
				ctx.String(http.StatusUnauthorized, ErrExpiredTokenStr)
			case errors.Is(err, domain.ErrInvalidSigningAlg), errors.Is(err, domain.ErrInvalidTokenSignature), errors.Is(err, domain.ErrCorruptedToken):
				h.log.Warn().Err(err).Str("ip", ctx.ClientIP()).Msg("rejected token")
				ctx.String(http.StatusUnauthorized, ErrBadTokenStr)
			default:
				h.log.Error().Err(err).Msg("verifying token")
				ctx.String(http.StatusInternalServerError, ErrUnknownStr)
			}
			ctx.Abort()
			return
		}

		ctx.Set("identity", identity)
		ctx.Next()
	}
}

func (h *Handler) MeHandler(ctx *gin.Context) {
	identity := ctx.MustGet("identity").(crypto.Identity)
	ctx.JSON(http.StatusOK, gin.H{"id": identity.Id, "username": identity.Username})
}

func (h *Handler) setCookie(ctx *gin.Context, token string) {
	ctx.SetSameSite(http.SameSiteNoneMode)
	ctx.SetCookie(cookieName, token, int(h.cookieMaxAge.Seconds()), "/", "", true, true)
}
