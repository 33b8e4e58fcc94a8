// Package bootstrap loads the default content shown before any user upload:
// a bundled placeholder image paired with a canned analysis text. It never
// calls the remote analyzer.
package bootstrap

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/go-resty/resty/v2"
	"github.com/lithammer/dedent"

	"weedlens/internal/intake"
	"weedlens/web"
)

// ErrDefaultLoadFailed is returned when the default image cannot be loaded.
var ErrDefaultLoadFailed = errors.New("failed to load the default image")

// DefaultAnalysis is the canned text paired with the placeholder image so the
// first paint is non-empty. It intentionally follows the report shape the
// formatter understands.
var DefaultAnalysis = strings.TrimSpace(dedent.Dedent(`
	1. Weed Identification:
	- Name: Common Dandelion
	- Scientific Name: Taraxacum officinale
	- Key Features: bright yellow flower heads, deeply toothed leaves in a basal rosette

	2. Growth Characteristics:
	- Growth Habit: low-growing perennial with a deep taproot
	- Reproduction: wind-dispersed seeds, up to 200 per flower head

	3. Ecological Impact:
	- Competition: crowds lawn grasses for light and nutrients
	- Benefit: early-season nectar source for pollinators

	4. Management and Control:
	- Mechanical: remove the full taproot before seed set
	- Cultural: maintain dense, healthy turf to limit establishment

	5. Additional Information:
	Upload your own photo above to analyze a plant from your garden.
`))

// Loader produces the default image for new sessions. When remoteURL is set
// the image is fetched over HTTP; otherwise the bundled asset is used.
type Loader struct {
	http      *resty.Client
	remoteURL string
}

// NewLoader creates a Loader. remoteURL may be empty.
func NewLoader(remoteURL string) *Loader {
	return &Loader{
		http:      resty.New(),
		remoteURL: remoteURL,
	}
}

// Load returns the default image and its canned analysis text.
func (l *Loader) Load(ctx context.Context) (intake.Image, string, error) {
	if l.remoteURL == "" {
		if len(web.PlaceholderJPEG) == 0 {
			return intake.Image{}, "", ErrDefaultLoadFailed
		}
		return intake.FromBytes(web.PlaceholderJPEG, "image/jpeg"), DefaultAnalysis, nil
	}

	res, err := l.http.R().SetContext(ctx).Get(l.remoteURL)
	if err != nil {
		return intake.Image{}, "", fmt.Errorf("%w: %v", ErrDefaultLoadFailed, err)
	}
	if res.IsError() {
		return intake.Image{}, "", fmt.Errorf("%w: status %d", ErrDefaultLoadFailed, res.StatusCode())
	}

	mediaType := res.Header().Get("Content-Type")
	if !strings.HasPrefix(mediaType, "image/") {
		return intake.Image{}, "", fmt.Errorf("%w: unexpected content type %q", ErrDefaultLoadFailed, mediaType)
	}
	body := res.Body()
	if len(body) == 0 {
		return intake.Image{}, "", fmt.Errorf("%w: empty response body", ErrDefaultLoadFailed)
	}

	return intake.FromBytes(body, mediaType), DefaultAnalysis, nil
}
