package neutralize

import (
	"path"
	"strings"

	"neutralnews/internal/domain/entity"
)

// imageExtensions and videoExtensions mirror is_valid_image_url's
// whitelist/blacklist (storage.py): the original accepts a broad set of
// still-image formats (including camera raw formats some outlets embed)
// and explicitly rejects common video containers even when reached via an
// otherwise plausible-looking URL.
var imageExtensions = map[string]bool{
	".jpg": true, ".jpeg": true, ".png": true, ".gif": true, ".webp": true,
	".bmp": true, ".tiff": true, ".tif": true, ".svg": true, ".ico": true,
	".heic": true, ".heif": true, ".raw": true, ".cr2": true, ".nef": true,
	".orf": true, ".sr2": true,
}

var videoExtensions = map[string]bool{
	".mp4": true, ".m4v": true, ".mov": true, ".wmv": true, ".avi": true,
	".flv": true, ".webm": true, ".mkv": true, ".3gp": true, ".mpeg": true,
	".mpg": true, ".mpe": true, ".mpv": true, ".m2v": true, ".mts": true,
	".m2ts": true, ".ts": true,
}

// isValidImageURL rejects empty URLs, any URL that contains
// "video"/"player" (case-insensitive), any recognized video extension, and accepts only
// recognized image extensions.
func isValidImageURL(url string) bool {
	if url == "" {
		return false
	}
	lower := strings.ToLower(url)
	if strings.Contains(lower, "video") || strings.Contains(lower, "player") {
		return false
	}

	clean := lower
	if i := strings.IndexAny(clean, "?#"); i >= 0 {
		clean = clean[:i]
	}
	ext := path.Ext(clean)
	if videoExtensions[ext] {
		return false
	}
	return imageExtensions[ext]
}

// mostNeutralImage picks the image from the member the model rated most
// neutral, skipping members without a usable image URL
// (get_most_neutral_image).
func mostNeutralImage(members []*entity.Article, ratings map[string]int) (imageURL, imageMedium string) {
	bestRating := -1
	for _, m := range members {
		if !isValidImageURL(m.ImageURL) {
			continue
		}
		rating, ok := ratings[m.Outlet]
		if !ok {
			continue
		}
		if rating > bestRating {
			bestRating = rating
			imageURL = m.ImageURL
			imageMedium = m.Outlet
		}
	}
	return imageURL, imageMedium
}
