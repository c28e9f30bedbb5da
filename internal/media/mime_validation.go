package media

import (
	"fmt"
	"strings"

	"github.com/gabriel-vasile/mimetype"
)

var allowedImageTypes = map[string]string{
	"image/png":  ".png",
	"image/jpeg": ".jpg",
	"image/webp": ".webp",
	"image/gif":  ".gif",
}

const allowedImageDescription = "png, jpeg, webp or gif images"

// sniffImage detects the type from the leading bytes and returns the mime
// type with the extension used for the stored file.
func sniffImage(head []byte) (string, string, error) {
	detected := mimetype.Detect(head)
	for mt := detected; mt != nil; mt = mt.Parent() {
		mediaType := strings.ToLower(mt.String())
		if ext, ok := allowedImageTypes[mediaType]; ok {
			return mediaType, ext, nil
		}
	}
	return "", "", fmt.Errorf("unsupported file type %s, expected %s", detected.String(), allowedImageDescription)
}
