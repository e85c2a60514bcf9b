package enhance

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/png"
	"path/filepath"
	"strings"

	"github.com/anthonynsimon/bild/effect"
	"github.com/anthonynsimon/bild/segment"
	"github.com/disintegration/imaging"
)

// ErrUnreadable marks a source image that cannot be read or decoded at
// all. The pipeline fails the whole receipt on it, unlike an ordinary
// per-pass failure.
var ErrUnreadable = errors.New("unreadable receipt image")

// Enhancer produces deterministic enhancement variants of a receipt
// image for OCR. The parameter plays the role of a contrast clip limit:
// each value selects one reproducible variant of the same source.
type Enhancer struct {
	snapshots Storage
}

// Option configures an Enhancer.
type Option func(*Enhancer)

// WithSnapshots makes the enhancer save each enhanced variant as a PNG
// through store, named <stem>-p<parameter>.png, for inspection.
func WithSnapshots(store Storage) Option {
	return func(e *Enhancer) { e.snapshots = store }
}

// New creates an Enhancer.
func New(opts ...Option) *Enhancer {
	e := &Enhancer{}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Enhance loads the receipt at path and produces the variant selected
// by parameter: grayscale, contrast stretch scaled by the parameter,
// median denoise, Otsu binarization and a morphological opening. It
// also reports any verification URL decoded from a QR code on the
// grayscale image. Deterministic for a given (path, parameter) pair.
func (e *Enhancer) Enhance(path string, parameter float64) (image.Image, string, error) {
	src, err := loadImage(path)
	if err != nil {
		return nil, "", fmt.Errorf("%w: %s: %v", ErrUnreadable, path, err)
	}

	gray := imaging.Grayscale(src)
	qrURL := decodeVerificationURL(gray)

	// The parameter maps to a contrast stretch percentage; 2.0 is the
	// neutral middle of the default ladder.
	stretched := imaging.AdjustContrast(gray, parameter*10)
	denoised := effect.Median(stretched, 3)
	binary := segment.Threshold(denoised, otsuLevel(denoised))
	opened := effect.Dilate(effect.Erode(binary, 1), 1)

	if e.snapshots != nil {
		e.saveSnapshot(path, parameter, opened)
	}

	return opened, qrURL, nil
}

// otsuLevel picks the binarization threshold that minimizes intra-class
// variance over the grayscale histogram.
func otsuLevel(img image.Image) uint8 {
	var hist [256]int
	bounds := img.Bounds()
	total := bounds.Dx() * bounds.Dy()
	for y := bounds.Min.Y; y < bounds.Max.Y; y++ {
		for x := bounds.Min.X; x < bounds.Max.X; x++ {
			r, g, b, _ := img.At(x, y).RGBA()
			lum := (299*(r>>8) + 587*(g>>8) + 114*(b>>8)) / 1000
			hist[lum]++
		}
	}

	var sum float64
	for i, n := range hist {
		sum += float64(i) * float64(n)
	}

	var sumBack, weightBack float64
	var maxVariance float64
	var level uint8
	for i, n := range hist {
		weightBack += float64(n)
		if weightBack == 0 {
			continue
		}
		weightFore := float64(total) - weightBack
		if weightFore == 0 {
			break
		}
		sumBack += float64(i) * float64(n)
		meanBack := sumBack / weightBack
		meanFore := (sum - sumBack) / weightFore
		variance := weightBack * weightFore * (meanBack - meanFore) * (meanBack - meanFore)
		if variance > maxVariance {
			maxVariance = variance
			level = uint8(i)
		}
	}
	return level
}

func (e *Enhancer) saveSnapshot(path string, parameter float64, img image.Image) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return
	}
	base := filepath.Base(path)
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	name := fmt.Sprintf("%s-p%.1f.png", stem, parameter)
	// Snapshots are diagnostics; a failed save never fails the pass.
	_, _ = e.snapshots.Save(name, buf.Bytes())
}
