package constants

// Gin context keys
const (
	ContextKeyActor     = "actor"
	ContextKeyRequestID = "request_id"
)

const HeaderRequestID = "X-Request-ID"

// Pagination
const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

// Field limits
const (
	MinPasswordLength = 8
	MaxBioLength      = 500
	MaxCommentLength  = 500
	MaxTitleLength    = 200
	MaxNameLength     = 100
)

// MaxPhotoBytes applies to both account and proposal photos.
const MaxPhotoBytes = 5 << 20

// BcryptCost is fixed so hashes stay comparable across deployments.
const BcryptCost = 12
