package enhance

import (
	"image"
	"net/url"
	"strings"

	"github.com/makiuchi-d/gozxing"
	"github.com/makiuchi-d/gozxing/qrcode"
)

// verificationDomain is the tax authority's receipt-verification host.
// Only QR payloads pointing there are carried forward; anything else on
// a receipt (loyalty codes, ad links) is ignored.
const verificationDomain = "kvitas.vmi.lt"

// decodeVerificationURL scans img for a QR code and returns its payload
// when it is an http(s) URL on the verification domain. Decode failures
// mean "no code on this variant" and yield an empty string.
func decodeVerificationURL(img image.Image) string {
	bmp, err := gozxing.NewBinaryBitmapFromImage(img)
	if err != nil {
		return ""
	}
	result, err := qrcode.NewQRCodeReader().Decode(bmp, nil)
	if err != nil {
		return ""
	}

	text := result.GetText()
	u, err := url.Parse(text)
	if err != nil {
		return ""
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return ""
	}
	if u.Host != verificationDomain && !strings.HasSuffix(u.Host, "."+verificationDomain) {
		return ""
	}
	return text
}
