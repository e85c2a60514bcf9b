package recognize

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/png"
	"strings"
)

// Recognizer turns an enhanced receipt image into raw text. An image
// with no readable text yields an empty string, not an error.
type Recognizer interface {
	Recognize(ctx context.Context, img image.Image) (string, error)
	// Close releases backend resources.
	Close() error
}

// transcriptionPrompt is shared by the vision-model backends. Unlike a
// structured-extraction prompt, it asks for a faithful transcript: the
// field extractor downstream expects raw receipt text, not JSON.
const transcriptionPrompt = `Transcribe every line of text visible in this receipt image exactly as printed, preserving line breaks and the original language. Output only the transcribed text. Do not translate, summarize, or add commentary. Do not use markdown code blocks.`

// encodePNG renders an image to PNG bytes for backends that consume
// encoded images.
func encodePNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encoding PNG: %w", err)
	}
	return buf.Bytes(), nil
}

// stripFences removes markdown code fences some models wrap their
// output in despite instructions.
func stripFences(text string) string {
	text = strings.TrimSpace(text)
	text = strings.TrimPrefix(text, "```text")
	text = strings.TrimPrefix(text, "```")
	text = strings.TrimSuffix(text, "```")
	return strings.TrimSpace(text)
}
