package vision

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"

	"github.com/rs/zerolog/log"

	"weedlens/internal/intake"
)

// ResultCache persists analysis text keyed by an image/prompt hash.
type ResultCache interface {
	GetCachedAnalysis(hash string) (string, bool, error)
	PutCachedAnalysis(hash, text string) error
}

// CachedAnalyzer wraps an Analyzer with a persistent result cache so that
// re-analyzing the same image with the same prompt skips the paid API call.
type CachedAnalyzer struct {
	inner Analyzer
	cache ResultCache
}

// NewCachedAnalyzer creates a cached analyzer. A nil cache disables caching.
func NewCachedAnalyzer(inner Analyzer, cache ResultCache) *CachedAnalyzer {
	return &CachedAnalyzer{inner: inner, cache: cache}
}

// cacheKey hashes the image payload and prompt. Length prefixes prevent
// boundary collisions between payload and prompt.
func cacheKey(data []byte, prompt string) string {
	h := sha256.New()
	binary.Write(h, binary.LittleEndian, int64(len(data)))
	h.Write(data)
	h.Write([]byte(prompt))
	return hex.EncodeToString(h.Sum(nil))
}

// Describe implements the Analyzer interface with caching.
func (c *CachedAnalyzer) Describe(ctx context.Context, img intake.Image, prompt string) (string, error) {
	data, err := extractPayload(img)
	if err != nil {
		return "", err
	}
	prompt = effectivePrompt(prompt)
	hash := cacheKey(data, prompt)

	if c.cache != nil {
		cached, ok, err := c.cache.GetCachedAnalysis(hash)
		if err != nil {
			log.Warn().Err(err).Msg("failed to check vision cache")
		} else if ok {
			log.Debug().Str("hash", hash[:16]).Msg("vision cache hit")
			return cached, nil
		}
	}

	text, err := c.inner.Describe(ctx, img, prompt)
	if err != nil {
		return "", err
	}

	if c.cache != nil {
		if err := c.cache.PutCachedAnalysis(hash, text); err != nil {
			log.Warn().Err(err).Msg("failed to cache vision result")
		} else {
			log.Debug().Str("hash", hash[:16]).Msg("cached vision result")
		}
	}

	return text, nil
}
