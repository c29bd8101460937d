package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/yukikurage/civic-proposals-api/internal/dto"
	apierrors "github.com/yukikurage/civic-proposals-api/internal/errors"
	"github.com/yukikurage/civic-proposals-api/internal/middleware"
	"github.com/yukikurage/civic-proposals-api/internal/services"
)

type FollowHandler struct {
	followService *services.FollowService
}

func NewFollowHandler(followService *services.FollowService) *FollowHandler {
	return &FollowHandler{
		followService: followService,
	}
}

// Follow makes the caller follow another account
func (h *FollowHandler) Follow(c *gin.Context) {
	actor, _ := middleware.GetActor(c)

	if err := h.followService.Follow(actor, c.Param("userId")); err != nil {
		respondError(c, err)
		return
	}

	apierrors.Created(c, "Account followed", dto.FollowStatusDTO{IsFollowing: true})
}

// Unfollow removes the caller's follow edge
func (h *FollowHandler) Unfollow(c *gin.Context) {
	actor, _ := middleware.GetActor(c)

	if err := h.followService.Unfollow(actor, c.Param("userId")); err != nil {
		respondError(c, err)
		return
	}

	apierrors.OK(c, "Account unfollowed", dto.FollowStatusDTO{IsFollowing: false})
}

// Status reports whether the caller follows the account
func (h *FollowHandler) Status(c *gin.Context) {
	actor, _ := middleware.GetActor(c)

	following, err := h.followService.IsFollowing(actor, c.Param("userId"))
	if err != nil {
		respondError(c, err)
		return
	}

	apierrors.OK(c, "Follow status retrieved", dto.FollowStatusDTO{IsFollowing: following})
}

// Followers lists the accounts following the given one
func (h *FollowHandler) Followers(c *gin.Context) {
	accounts, err := h.followService.Followers(c.Param("userId"))
	if err != nil {
		respondError(c, err)
		return
	}

	apierrors.OK(c, "Followers retrieved", dto.ToAccountPublicDTOs(accounts))
}

// Following lists the accounts the given one follows
func (h *FollowHandler) Following(c *gin.Context) {
	accounts, err := h.followService.Following(c.Param("userId"))
	if err != nil {
		respondError(c, err)
		return
	}

	apierrors.OK(c, "Following retrieved", dto.ToAccountPublicDTOs(accounts))
}
