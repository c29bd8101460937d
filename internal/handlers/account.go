package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/yukikurage/civic-proposals-api/internal/dto"
	apierrors "github.com/yukikurage/civic-proposals-api/internal/errors"
	"github.com/yukikurage/civic-proposals-api/internal/middleware"
	"github.com/yukikurage/civic-proposals-api/internal/models"
	"github.com/yukikurage/civic-proposals-api/internal/services"
)

// AccountHandler serves registration, profiles and account lifecycle.
type AccountHandler struct {
	accountService *services.AccountService
}

// NewAccountHandler creates a new AccountHandler.
func NewAccountHandler(accountService *services.AccountService) *AccountHandler {
	return &AccountHandler{
		accountService: accountService,
	}
}

// Register creates a private user or an ente. Accepts JSON or multipart with an optional "foto".
func (h *AccountHandler) Register(c *gin.Context) {
	type RegisterRequest struct {
		Tipo          string `json:"tipo" form:"tipo"`
		Nome          string `json:"nome" form:"nome"`
		Cognome       string `json:"cognome" form:"cognome"`
		CodiceFiscale string `json:"codiceFiscale" form:"codiceFiscale"`
		Email         string `json:"email" form:"email"`
		Password      string `json:"password" form:"password"`
		Bio           string `json:"bio" form:"bio"`
	}

	var req RegisterRequest
	if err := bindBody(c, &req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}
	photo, ok := uploadedPhoto(c)
	if !ok {
		return
	}

	acc, check, err := h.accountService.Register(services.RegisterInput{
		Tipo:          req.Tipo,
		Nome:          req.Nome,
		Cognome:       req.Cognome,
		CodiceFiscale: req.CodiceFiscale,
		Email:         req.Email,
		Password:      req.Password,
		Bio:           req.Bio,
		Photo:         photo,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	apierrors.Created(c, "Registration successful", dto.RegisterResponse{
		User:             dto.ToAccountDTO(*acc),
		PasswordStrength: check.Strength,
	})
}

// List returns every account, optionally filtered by ?tipo=; moderators only.
func (h *AccountHandler) List(c *gin.Context) {
	actor, _ := middleware.GetActor(c)

	var kinds []models.Role
	if tipo := c.Query("tipo"); tipo != "" {
		kind, ok := models.ParseRole(tipo)
		if !ok {
			apierrors.BadRequest(c, "tipo must be one of user, ente, operatore, admin")
			return
		}
		kinds = append(kinds, kind)
	}

	accounts, err := h.accountService.List(actor, kinds...)
	if err != nil {
		respondError(c, err)
		return
	}

	apierrors.OK(c, "Accounts retrieved", dto.ToAccountDTOs(accounts))
}

// Me returns the caller's full record.
func (h *AccountHandler) Me(c *gin.Context) {
	actor, _ := middleware.GetActor(c)

	acc, err := h.accountService.Me(actor)
	if err != nil {
		respondError(c, err)
		return
	}

	apierrors.OK(c, "Account retrieved", dto.ToAccountDTO(*acc))
}

// Get returns the public view of an account, or the full record for moderators.
func (h *AccountHandler) Get(c *gin.Context) {
	actor, _ := middleware.GetActor(c)

	acc, full, err := h.accountService.Get(actor, c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}

	if full {
		apierrors.OK(c, "Account retrieved", dto.ToAccountDTO(*acc))
		return
	}
	apierrors.OK(c, "Account retrieved", dto.ToAccountPublicDTO(*acc))
}

// UpdateProfile changes name, surname, bio and photo of the caller.
func (h *AccountHandler) UpdateProfile(c *gin.Context) {
	type UpdateProfileRequest struct {
		Nome        *string `json:"nome" form:"nome"`
		Cognome     *string `json:"cognome" form:"cognome"`
		Bio         *string `json:"bio" form:"bio"`
		RemovePhoto bool    `json:"rimuoviFoto" form:"rimuoviFoto"`
	}

	actor, _ := middleware.GetActor(c)

	var req UpdateProfileRequest
	if err := bindBody(c, &req); err != nil {
		apierrors.BadRequest(c, "Invalid request body")
		return
	}
	photo, ok := uploadedPhoto(c)
	if !ok {
		return
	}

	acc, err := h.accountService.UpdateProfile(actor, services.UpdateProfileInput{
		Nome:        req.Nome,
		Cognome:     req.Cognome,
		Bio:         req.Bio,
		Photo:       photo,
		RemovePhoto: req.RemovePhoto,
	})
	if err != nil {
		respondError(c, err)
		return
	}

	apierrors.OK(c, "Profile updated", dto.ToAccountDTO(*acc))
}

// UpdatePassword sets a new password for the caller.
func (h *AccountHandler) UpdatePassword(c *gin.Context) {
	type UpdatePasswordRequest struct {
		Password string `json:"password" binding:"required"`
	}

	actor, _ := middleware.GetActor(c)

	var req UpdatePasswordRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		apierrors.BadRequest(c, "password is required")
		return
	}

	check, err := h.accountService.UpdatePassword(actor, req.Password)
	if err != nil {
		respondError(c, err)
		return
	}

	apierrors.OK(c, "Password updated", dto.PasswordUpdateResponse{PasswordStrength: check.Strength})
}

// DeleteMe deletes the caller's account and everything it owns.
func (h *AccountHandler) DeleteMe(c *gin.Context) {
	actor, _ := middleware.GetActor(c)

	if err := h.accountService.Delete(c.Request.Context(), actor); err != nil {
		respondError(c, err)
		return
	}

	apierrors.OK(c, "Account deleted", nil)
}

// Photo serves an account's profile photo.
func (h *AccountHandler) Photo(c *gin.Context) {
	photo, err := h.accountService.Photo(c.Param("id"))
	if err != nil {
		respondError(c, err)
		return
	}
	servePhoto(c, photo)
}
