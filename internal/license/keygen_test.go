package license

import (
	"encoding/base64"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateKey(t *testing.T) {
	expiry := time.Date(2026, 3, 15, 10, 30, 0, 0, time.UTC)

	key := GenerateKey("00:1B:44:11:3A:B7", TypeTrial, expiry)
	require.NotEmpty(t, key)

	decoded, err := base64.StdEncoding.DecodeString(key)
	require.NoError(t, err)
	assert.Equal(t,
		fmt.Sprintf("00:1B:44:11:3A:B7|trial|%d", expiry.Unix()),
		string(decoded))
}

func TestGenerateKey_Deterministic(t *testing.T) {
	expiry := time.Date(2027, 1, 1, 0, 0, 0, 0, time.UTC)

	first := GenerateKey("AA:BB:CC:DD:EE:FF", TypeOfficial, expiry)
	second := GenerateKey("AA:BB:CC:DD:EE:FF", TypeOfficial, expiry)
	assert.Equal(t, first, second)
}

func TestGenerateKey_DistinctInputsDistinctKeys(t *testing.T) {
	expiry := time.Date(2027, 1, 1, 0, 0, 0, 0, time.UTC)

	base := GenerateKey("AA:BB:CC:DD:EE:FF", TypeOfficial, expiry)

	assert.NotEqual(t, base, GenerateKey("AA:BB:CC:DD:EE:00", TypeOfficial, expiry))
	assert.NotEqual(t, base, GenerateKey("AA:BB:CC:DD:EE:FF", TypeTrial, expiry))
	assert.NotEqual(t, base, GenerateKey("AA:BB:CC:DD:EE:FF", TypeOfficial, expiry.Add(time.Second)))
}

func TestGenerateKey_SubSecondPrecisionIgnored(t *testing.T) {
	expiry := time.Date(2027, 1, 1, 0, 0, 0, 0, time.UTC)

	// Keys encode epoch seconds; nanosecond differences do not change them.
	assert.Equal(t,
		GenerateKey("AA:BB:CC:DD:EE:FF", TypeTrial, expiry),
		GenerateKey("AA:BB:CC:DD:EE:FF", TypeTrial, expiry.Add(500*time.Millisecond)))
}
