package dto

// FollowStatusDTO tells whether the caller follows an account
type FollowStatusDTO struct {
	IsFollowing bool `json:"isFollowing"`
}
