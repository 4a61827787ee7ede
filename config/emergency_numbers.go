package config

import (
	"encoding/json"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

// RegionNumbers holds the emergency dial codes for one region/state.
type RegionNumbers struct {
	Police  string `json:"police"`
	Fire    string `json:"fire"`
	Medical string `json:"medical"`
}

// EmergencyNumbers maps a region name (lowercased) to its dial codes, with a
// universal default when the region is unknown. This is configuration data,
// not code: deployments load their jurisdiction's table from a JSON file.
type EmergencyNumbers struct {
	regions  map[string]RegionNumbers
	defaults RegionNumbers
	// Universal fallback when even the type-specific default is empty.
	Universal string
}

// defaultNumbers are the national (India) codes the app ships with.
var defaultNumbers = RegionNumbers{
	Police:  "100",
	Fire:    "101",
	Medical: "108",
}

const universalEmergencyNumber = "112"

// LoadEmergencyNumbers reads the regional table from path. A missing or
// unreadable file is not an error: the built-in defaults still guarantee a
// callable number for every emergency type.
func LoadEmergencyNumbers(path string) *EmergencyNumbers {
	en := &EmergencyNumbers{
		regions:   map[string]RegionNumbers{},
		defaults:  defaultNumbers,
		Universal: universalEmergencyNumber,
	}

	if path == "" {
		return en
	}

	data, err := os.ReadFile(path)
	if err != nil {
		logrus.Warnf("Could not read emergency numbers file %s: %v (using defaults)", path, err)
		return en
	}

	var parsed struct {
		Default RegionNumbers            `json:"default"`
		Regions map[string]RegionNumbers `json:"regions"`
	}
	if err := json.Unmarshal(data, &parsed); err != nil {
		logrus.Warnf("Invalid emergency numbers file %s: %v (using defaults)", path, err)
		return en
	}

	if parsed.Default.Police != "" {
		en.defaults = parsed.Default
	}
	for region, numbers := range parsed.Regions {
		en.regions[strings.ToLower(region)] = numbers
	}

	logrus.Infof("Loaded emergency numbers for %d regions from %s", len(en.regions), path)
	return en
}

// TollFreeFor returns the dial code for an emergency type in a region,
// falling back to the national default and finally the universal number.
func (en *EmergencyNumbers) TollFreeFor(emergencyType, region string) string {
	numbers := en.defaults
	if region != "" {
		if rn, ok := en.regions[strings.ToLower(region)]; ok {
			numbers = rn
		}
	}

	var number string
	switch emergencyType {
	case "POLICE":
		number = numbers.Police
	case "FIRE":
		number = numbers.Fire
	case "MEDICAL":
		number = numbers.Medical
	}

	if number == "" {
		return en.Universal
	}
	return number
}
