package media

type AssetType string

const (
	AssetTypeThumbnail AssetType = "thumbnail"
)

const (
	ThumbnailFileExtension = ".png"
	// DefaultThumbnailMaxSize bounds both sides of a thumbnail in pixels.
	DefaultThumbnailMaxSize = 300
)
