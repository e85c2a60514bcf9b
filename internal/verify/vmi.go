// Package verify fetches the tax authority's receipt-verification page
// behind a QR-decoded URL and extracts the declared sum and address, so
// the pipeline can cross-check its OCR result against the official
// record. Everything here is best effort: a failed fetch only costs the
// cross-check.
package verify

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"regexp"
	"strings"
	"time"

	"github.com/dariusmat/kvitoscan/internal/receipt"
)

var (
	sumRe     = regexp.MustCompile(`Suma.*?(\d+[.,]\d+)`)
	addressRe = regexp.MustCompile(`(?s)Adresas.*?<td[^>]*>(.*?)<`)
)

// Client fetches and parses verification pages.
type Client struct {
	httpClient *http.Client
}

// NewClient creates a verification client.
func NewClient() *Client {
	return &Client{
		httpClient: &http.Client{Timeout: 10 * time.Second},
	}
}

// Verify fetches the page behind url and extracts the declared amount
// and address.
func (c *Client) Verify(ctx context.Context, url string) (*receipt.Verification, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	// The portal rejects the default Go user agent.
	req.Header.Set("User-Agent", "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/115.0.0.0 Safari/537.36")
	req.Header.Set("Accept", "text/html,application/xhtml+xml")
	req.Header.Set("Accept-Language", "lt,en;q=0.9")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetching verification page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("verification page returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("reading verification page: %w", err)
	}

	return ParsePage(string(body)), nil
}

// ParsePage extracts the declared sum and address from the verification
// page HTML. Missing values are left empty.
func ParsePage(html string) *receipt.Verification {
	v := &receipt.Verification{}
	if m := sumRe.FindStringSubmatch(html); m != nil {
		v.Amount = m[1]
	}
	if m := addressRe.FindStringSubmatch(html); m != nil {
		v.Address = strings.TrimSpace(m[1])
	}
	return v
}
