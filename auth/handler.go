package auth

import (
	"errors"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/rs/zerolog/log"
)

var (
	ErrMissingTokenStr          = "missing-token"
	ErrExpiredTokenStr          = "expired-token"
	ErrInvalidRequestFormatStr  = "bad-request-format"
	ErrInvalidUsernameFormatStr = "invalid-username-format"
	ErrUnknownStr               = "unknown-error"
)

const maxNameLength = 16

type guestHandler struct {
	tokens       *JWTManager
	cookieMaxAge time.Duration
}

func NewGuestHandler(tokens *JWTManager, cookieMaxAge time.Duration) *guestHandler {
	return &guestHandler{tokens: tokens, cookieMaxAge: cookieMaxAge}
}

// GuestSessionHandler mints a signed guest identity. There are no accounts:
// a fresh id is generated for every session and the name travels inside the
// token so the game layer never needs a user store.
func (gh *guestHandler) GuestSessionHandler(ctx *gin.Context) {
	var body struct {
		Name string `json:"name"`
	}

	if err := ctx.ShouldBindJSON(&body); err != nil {
		ctx.String(http.StatusBadRequest, ErrInvalidRequestFormatStr)
		ctx.Abort()
		return
	}

	name := strings.TrimSpace(body.Name)
	if name == "" || utf8.RuneCountInString(name) > maxNameLength {
		ctx.String(http.StatusBadRequest, ErrInvalidUsernameFormatStr)
		ctx.Abort()
		return
	}

	guest := Guest{Id: uuid.NewString(), Name: name}
	token, err := gh.tokens.Generate(guest, time.Now())

	if err != nil {
		log.Error().Err(err).Str("ip", ctx.ClientIP()).Msg("guest token generation failed")
		ctx.String(http.StatusInternalServerError, ErrUnknownStr)
		ctx.Abort()
		return
	}

	ctx.SetSameSite(http.SameSiteNoneMode)
	ctx.SetCookie("token", token, int(gh.cookieMaxAge.Seconds()), "/", "", true, true)
	ctx.JSON(http.StatusCreated, gin.H{"token": token, "id": guest.Id, "name": guest.Name})
}

// RequireAuthMiddleware verifies the session token from the cookie or, for
// websocket clients that cannot set cookies, the Authorization header, and
// stores the caller identity in the gin context under "id" and "name".
func (gh *guestHandler) RequireAuthMiddleware() gin.HandlerFunc {
	return func(ctx *gin.Context) {
		token, err := ctx.Cookie("token")
		if err != nil {
			header := ctx.GetHeader("Authorization")
			if !strings.HasPrefix(header, "Bearer ") {
				ctx.String(http.StatusUnauthorized, ErrMissingTokenStr)
				ctx.Abort()
				return
			}
			token = strings.TrimPrefix(header, "Bearer ")
		}

		guest, err := gh.tokens.Verify(token)

		if err != nil {
			switch {
			case errors.Is(err, ErrExpiredToken):
				ctx.String(http.StatusUnauthorized, ErrExpiredTokenStr)
			default:
				log.Warn().
					Str("ip", ctx.ClientIP()).
					Str("user_agent", ctx.Request.UserAgent()).
					Err(err).
					Msg("rejected session token")
				ctx.String(http.StatusUnauthorized, ErrMissingTokenStr)
			}
			ctx.Abort()
			return
		}

		ctx.Set("id", guest.Id)
		ctx.Set("name", guest.Name)
		ctx.Next()
	}
}
