package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/yukikurage/civic-proposals-api/internal/auth"
	"github.com/yukikurage/civic-proposals-api/internal/authz"
	apierrors "github.com/yukikurage/civic-proposals-api/internal/errors"
	"github.com/yukikurage/civic-proposals-api/internal/services"
	"github.com/yukikurage/civic-proposals-api/internal/storage"
)

// respondError maps service errors onto the response envelope
func respondError(c *gin.Context, err error) {
	var validation *services.ValidationError
	var denied *authz.DeniedError

	switch {
	case errors.As(err, &validation):
		if validation.Details != nil {
			apierrors.BadRequestWithDetails(c, validation.Message, validation.Details)
			return
		}
		apierrors.BadRequest(c, validation.Message)
	case storage.IsPhotoError(err):
		apierrors.BadRequest(c, photoErrorMessage(err))

	case errors.Is(err, authz.ErrUnauthenticated):
		apierrors.Unauthorized(c, "")
	case errors.Is(err, services.ErrInvalidCredentials):
		apierrors.Unauthorized(c, "Invalid email or password")
	case errors.Is(err, services.ErrInvalidGoogleToken):
		apierrors.Unauthorized(c, "Invalid Google token")

	case errors.As(err, &denied):
		apierrors.Forbidden(c, "Access denied: "+denied.Reason)
	case errors.Is(err, authz.ErrForbidden):
		apierrors.Forbidden(c, "")

	case errors.Is(err, services.ErrAccountNotFound):
		apierrors.NotFound(c, "Account not found")
	case errors.Is(err, services.ErrOperatorNotFound):
		apierrors.NotFound(c, "Operator not found")
	case errors.Is(err, services.ErrProposalNotFound):
		apierrors.NotFound(c, "Proposal not found")
	case errors.Is(err, services.ErrCommentNotFound):
		apierrors.NotFound(c, "Comment not found")
	case errors.Is(err, services.ErrPhotoNotFound):
		apierrors.NotFound(c, "Photo not found")
	case errors.Is(err, services.ErrNotFollowing):
		apierrors.NotFound(c, "You are not following this account")

	case errors.Is(err, services.ErrEmailTaken):
		apierrors.Conflict(c, "Email already registered")
	case errors.Is(err, services.ErrAlreadyFollowing):
		apierrors.Conflict(c, "You already follow this account")

	case errors.Is(err, auth.ErrGoogleNotConfigured):
		apierrors.RespondWithError(c, http.StatusServiceUnavailable, "Google sign-in is not configured", apierrors.NewAPIError(apierrors.ErrCodeInternal))
	default:
		apierrors.InternalError(c, "Internal server error", err)
	}
}

func photoErrorMessage(err error) string {
	switch {
	case errors.Is(err, storage.ErrPhotoTooLarge):
		return "Photo must be at most 5MB"
	case errors.Is(err, storage.ErrPhotoTypeNotAllowed):
		return "Photo must be a JPEG, PNG, GIF or WebP image"
	default:
		return "Photo is empty"
	}
}

func isMultipart(c *gin.Context) bool {
	return c.ContentType() == binding.MIMEMultipartPOSTForm
}

// bindBody accepts either a JSON or a multipart body
func bindBody(c *gin.Context, obj interface{}) error {
	if isMultipart(c) {
		return c.ShouldBindWith(obj, binding.FormMultipart)
	}
	return c.ShouldBindJSON(obj)
}

// readPhoto returns the uploaded photo, or nil when the request carries none
func readPhoto(c *gin.Context, field string) (*storage.Photo, error) {
	if !isMultipart(c) {
		return nil, nil
	}
	fh, err := c.FormFile(field)
	if errors.Is(err, http.ErrMissingFile) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return storage.ReadPhoto(fh)
}

// servePhoto writes raw photo bytes with their detected content type
func servePhoto(c *gin.Context, photo *storage.Photo) {
	c.Header("Cache-Control", "public, max-age=300")
	c.Header("X-Content-Type-Options", "nosniff")
	c.Data(http.StatusOK, photo.MIME, photo.Data)
}

// uploadedPhoto reads the "foto" field and answers 400 itself when it is unusable
func uploadedPhoto(c *gin.Context) (*storage.Photo, bool) {
	photo, err := readPhoto(c, "foto")
	if err != nil {
		if storage.IsPhotoError(err) {
			respondError(c, err)
		} else {
			apierrors.BadRequest(c, "Invalid photo upload")
		}
		return nil, false
	}
	return photo, true
}
