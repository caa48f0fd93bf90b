package license

import (
	"errors"
	"regexp"
	"strings"
)

// fingerprintPattern accepts six hex octets joined by colons or hyphens,
// e.g. 00:1b:44:11:3a:b7 or 00-1B-44-11-3A-B7.
var fingerprintPattern = regexp.MustCompile(`^[0-9a-fA-F]{2}([:-][0-9a-fA-F]{2}){5}$`)

// ErrInvalidFingerprint is returned when a device fingerprint does not
// match the MAC-address shape.
var ErrInvalidFingerprint = errors.New("invalid device fingerprint")

// CanonicalFingerprint validates a MAC-shaped device fingerprint and
// returns its canonical form: uppercase hex octets joined by colons.
// Licenses are stored and compared against the canonical form only.
func CanonicalFingerprint(raw string) (string, error) {
	fp := strings.TrimSpace(raw)
	if !fingerprintPattern.MatchString(fp) {
		return "", ErrInvalidFingerprint
	}
	fp = strings.ToUpper(strings.ReplaceAll(fp, "-", ":"))
	return fp, nil
}
