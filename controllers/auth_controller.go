package controllers

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/cppla/geoattend/middleware"
	"github.com/cppla/geoattend/services"
	"github.com/cppla/geoattend/utils"
)

// AuthController handles login and token introspection.
type AuthController struct {
	auth  *services.AuthService
	guard *utils.LoginGuard
}

// NewAuthController creates an AuthController. guard may be nil.
func NewAuthController(auth *services.AuthService, guard *utils.LoginGuard) *AuthController {
	return &AuthController{auth: auth, guard: guard}
}

type loginRequest struct {
	NIPOrEmail string `json:"nip_or_email"`
	Identifier string `json:"identifier"`
	Password   string `json:"password" binding:"required"`
}

// Login exchanges an email or NIP plus password for a bearer token.
func (a *AuthController) Login(ctx *gin.Context) {
	var req loginRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		utils.Error(ctx, http.StatusBadRequest, 40001, "invalid request payload")
		return
	}

	identifier := strings.TrimSpace(req.NIPOrEmail)
	if identifier == "" {
		identifier = strings.TrimSpace(req.Identifier)
	}
	if identifier == "" {
		utils.Error(ctx, http.StatusBadRequest, 40002, "nip_or_email is required")
		return
	}

	guardKey := ctx.ClientIP() + "|" + strings.ToLower(identifier)
	if a.guard != nil && a.guard.Locked(ctx.Request.Context(), guardKey) {
		utils.Error(ctx, http.StatusTooManyRequests, 42910, "too many failed login attempts, try again later")
		return
	}

	res, err := a.auth.Login(ctx.Request.Context(), identifier, req.Password)
	if err != nil {
		if errors.Is(err, services.ErrInvalidCredentials) && a.guard != nil {
			if n := a.guard.RecordFailure(ctx.Request.Context(), guardKey); n > 0 {
				utils.Logger.Info("login failed", zap.String("ip", ctx.ClientIP()), zap.Int("failures", n))
			}
		}
		respondError(ctx, err, 50010, "failed to login")
		return
	}
	if a.guard != nil {
		a.guard.Reset(ctx.Request.Context(), guardKey)
	}

	utils.Success(ctx, gin.H{
		"access_token": res.Token,
		"token_type":   res.TokenType,
		"role":         res.Role,
		"expires_at":   res.ExpiresAt.UTC().Format(time.RFC3339),
	})
}

// Me returns the identity carried by the bearer token.
func (a *AuthController) Me(ctx *gin.Context) {
	claims, ok := ctx.Get(middleware.ContextClaimsKey)
	if !ok {
		utils.Error(ctx, http.StatusUnauthorized, 40104, "unauthorized")
		return
	}
	c := claims.(*utils.Claims)

	data := gin.H{"subject": c.Subject, "role": c.Role}
	if c.ExpiresAt != nil {
		data["expires_at"] = c.ExpiresAt.UTC().Format(time.RFC3339)
	}
	utils.Success(ctx, data)
}
