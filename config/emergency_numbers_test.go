package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultsWithoutFile(t *testing.T) {
	numbers := LoadEmergencyNumbers("")

	assert.Equal(t, "100", numbers.TollFreeFor("POLICE", ""))
	assert.Equal(t, "101", numbers.TollFreeFor("FIRE", ""))
	assert.Equal(t, "108", numbers.TollFreeFor("MEDICAL", ""))
}

func TestUnknownTypeFallsBackToUniversal(t *testing.T) {
	numbers := LoadEmergencyNumbers("")

	assert.Equal(t, "112", numbers.TollFreeFor("FLOOD", ""))
}

func TestMissingFileUsesDefaults(t *testing.T) {
	numbers := LoadEmergencyNumbers("/nonexistent/numbers.json")

	assert.Equal(t, "100", numbers.TollFreeFor("POLICE", "anywhere"))
}

func TestRegionalOverrides(t *testing.T) {
	path := filepath.Join(t.TempDir(), "numbers.json")
	payload := `{
		"default": {"police": "100", "fire": "101", "medical": "108"},
		"regions": {
			"Karnataka": {"police": "100", "fire": "101", "medical": "102"}
		}
	}`
	require.NoError(t, os.WriteFile(path, []byte(payload), 0o600))

	numbers := LoadEmergencyNumbers(path)

	// Region lookup is case-insensitive.
	assert.Equal(t, "102", numbers.TollFreeFor("MEDICAL", "karnataka"))
	assert.Equal(t, "102", numbers.TollFreeFor("MEDICAL", "KARNATAKA"))

	// Unknown regions fall back to the default table.
	assert.Equal(t, "108", numbers.TollFreeFor("MEDICAL", "goa"))
}

func TestInvalidFileUsesDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "numbers.json")
	require.NoError(t, os.WriteFile(path, []byte("not json"), 0o600))

	numbers := LoadEmergencyNumbers(path)

	assert.Equal(t, "100", numbers.TollFreeFor("POLICE", ""))
}
