package recognize

import (
	"context"
	"fmt"
	"image"

	"github.com/otiai10/gosseract/v2"
)

// Tesseract implements Recognizer using the Tesseract engine. It tries
// its languages in order: the primary (Lithuanian) first, falling back
// to the next when the language data is not installed. Receipts are a
// uniform block of text, so the client runs in single-block page
// segmentation mode.
type Tesseract struct {
	languages []string
}

// NewTesseract creates a Tesseract backend. Without arguments it tries
// "lit" and falls back to "eng".
func NewTesseract(languages ...string) *Tesseract {
	if len(languages) == 0 {
		languages = []string{"lit", "eng"}
	}
	return &Tesseract{languages: languages}
}

// Recognize runs OCR on img. A readable image with no text returns an
// empty string; an error is returned only when every configured
// language fails.
func (t *Tesseract) Recognize(ctx context.Context, img image.Image) (string, error) {
	data, err := encodePNG(img)
	if err != nil {
		return "", err
	}

	var lastErr error
	for _, lang := range t.languages {
		if err := ctx.Err(); err != nil {
			return "", err
		}
		text, err := t.recognizeWith(lang, data)
		if err != nil {
			// Missing traineddata surfaces here; try the next language.
			lastErr = err
			continue
		}
		return text, nil
	}
	return "", fmt.Errorf("ocr failed for languages %v: %w", t.languages, lastErr)
}

func (t *Tesseract) recognizeWith(lang string, pngData []byte) (string, error) {
	client := gosseract.NewClient()
	defer client.Close()

	if err := client.SetLanguage(lang); err != nil {
		return "", fmt.Errorf("setting language %q: %w", lang, err)
	}
	if err := client.SetPageSegMode(gosseract.PSM_SINGLE_BLOCK); err != nil {
		return "", fmt.Errorf("setting page seg mode: %w", err)
	}
	if err := client.SetImageFromBytes(pngData); err != nil {
		return "", fmt.Errorf("setting image: %w", err)
	}
	text, err := client.Text()
	if err != nil {
		return "", fmt.Errorf("recognizing with %q: %w", lang, err)
	}
	return text, nil
}

// Close implements Recognizer; clients are per-call, nothing to release.
func (t *Tesseract) Close() error { return nil }
