// Package device derives display summaries and stable fingerprints from
// client User-Agent strings. Fingerprints group repeat submissions from the
// same browser without storing anything personally identifying.
package device

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/mssola/useragent"
)

// Service computes device fingerprints. Fingerprinting can be disabled, in
// which case submissions are never deduplicated by device.
type Service struct {
	enabled bool
}

func NewService(enabled bool) *Service {
	return &Service{enabled: enabled}
}

// ParseUserAgent renders a human-readable device summary like
// "Chrome 120 on Mac OS X".
func ParseUserAgent(rawUA string) string {
	if rawUA == "" {
		return "Unknown Device"
	}

	ua := useragent.New(rawUA)
	name, version := ua.Browser()
	os := ua.OS()

	if name == "" {
		name = "Unknown Browser"
	}
	if os == "" {
		os = ua.Platform()
	}
	if os == "" {
		os = "Unknown OS"
	}

	return strings.TrimSpace(fmt.Sprintf("%s %s on %s", name, majorVersion(version), os))
}

// ComputeFingerprint hashes the browser identity into a stable hex digest.
// Only the major browser version participates, so routine auto-updates do not
// rotate the fingerprint.
func (s *Service) ComputeFingerprint(rawUA string) string {
	if !s.enabled {
		return ""
	}

	ua := useragent.New(rawUA)
	name, version := ua.Browser()

	material := strings.Join([]string{name, majorVersion(version), ua.OS(), ua.Platform()}, "|")
	sum := sha256.Sum256([]byte(material))
	return hex.EncodeToString(sum[:])
}

func majorVersion(version string) string {
	if i := strings.IndexByte(version, '.'); i > 0 {
		return version[:i]
	}
	return version
}
