package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/yukikurage/civic-proposals-api/internal/dto"
	apierrors "github.com/yukikurage/civic-proposals-api/internal/errors"
	"github.com/yukikurage/civic-proposals-api/internal/middleware"
	"github.com/yukikurage/civic-proposals-api/internal/services"
)

// AuthHandler coordinates authentication-related HTTP handlers.
type AuthHandler struct {
	authService *services.AuthService
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(authService *services.AuthService) *AuthHandler {
	return &AuthHandler{
		authService: authService,
	}
}

// Login authenticates with email and password and issues a token.
func (h *AuthHandler) Login(c *gin.Context) {
	type LoginRequest struct {
		Email    string `json:"email" binding:"required"`
		Password string `json:"password" binding:"required"`
	}

	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "Email and password are required")
		return
	}

	result, err := h.authService.Login(req.Email, req.Password)
	if err != nil {
		respondError(c, err)
		return
	}

	apierrors.OK(c, "Login successful", toLoginResponse(result))
}

// Google authenticates with a Google ID token, creating the account on first use.
func (h *AuthHandler) Google(c *gin.Context) {
	type GoogleRequest struct {
		IDToken string `json:"idToken"`
	}

	var req GoogleRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "idToken is required")
		return
	}

	result, err := h.authService.LoginWithGoogle(c.Request.Context(), req.IDToken)
	if err != nil {
		respondError(c, err)
		return
	}

	if result.Created {
		apierrors.Created(c, "Account created with Google", toLoginResponse(result))
		return
	}
	apierrors.OK(c, "Login successful", toLoginResponse(result))
}

// Logout revokes the bearer token used for this request.
func (h *AuthHandler) Logout(c *gin.Context) {
	actor, _ := middleware.GetActor(c)
	if err := h.authService.Logout(c.Request.Context(), actor); err != nil {
		respondError(c, err)
		return
	}

	apierrors.OK(c, "Logged out successfully", nil)
}

func toLoginResponse(result *services.LoginResult) dto.LoginResponse {
	return dto.LoginResponse{
		Token:    result.Token,
		User:     dto.ToAccountDTO(result.Account),
		UserType: result.Account.Kind,
	}
}
