package discord

import (
	"encoding/base64"
	"fmt"
	"net/http"
	"os"
	"strings"
)

// LoadAvatar reads the avatar image from disk. A missing file is reported to
// the caller, who may log a warning and proceed without an avatar.
func LoadAvatar(path string) ([]byte, error) {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("discord: read avatar %q: %w", path, err)
	}
	return data, nil
}

// DataURI encodes image bytes into the data-URI form the webhook modify
// endpoint expects.
func DataURI(data []byte) string {
	if len(data) == 0 {
		return ""
	}
	contentType := http.DetectContentType(data)
	return fmt.Sprintf("data:%s;base64,%s", contentType, base64.StdEncoding.EncodeToString(data))
}
