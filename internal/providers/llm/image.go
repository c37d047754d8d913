package llm

import "encoding/base64"

// encodeImageDataURL inlines image bytes as a base64 data URL the way the
// OpenAI content-part format expects.
func encodeImageDataURL(image []byte) string {
	return "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString(image)
}
