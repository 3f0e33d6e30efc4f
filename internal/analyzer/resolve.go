package analyzer

import (
	"strings"

	"campusassist/internal/models"
)

// ResolveFile picks the file a message refers to: the first file whose name
// appears in the text, otherwise the first uploaded file.
func ResolveFile(text string, files []*models.UploadedFile) *models.UploadedFile {
	if len(files) == 0 {
		return nil
	}
	lower := strings.ToLower(text)
	for _, f := range files {
		if strings.Contains(lower, strings.ToLower(f.Name)) {
			return f
		}
	}
	return files[0]
}
