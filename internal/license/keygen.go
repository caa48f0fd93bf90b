package license

import (
	"encoding/base64"
	"fmt"
	"time"
)

// GenerateKey derives the license key for a device, type and expiry.
//
// The key is a deterministic, reversible base64 encoding of
// "fingerprint|type|expiryEpochSeconds". It is intentionally not signed
// or encrypted: the format is a compatibility contract with existing
// issued keys, and all callers other than this package treat the key as
// an opaque token.
func GenerateKey(fingerprint string, t Type, expiry time.Time) string {
	payload := fmt.Sprintf("%s|%s|%d", fingerprint, t, expiry.Unix())
	return base64.StdEncoding.EncodeToString([]byte(payload))
}
