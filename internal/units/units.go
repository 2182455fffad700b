// Package units provides shared constants and validation for speed units
package units

// Unit constants
const (
	MPS  = "mps"
	MPH  = "mph"
	KMPH = "kmph"
	KPH  = "kph"
)

const mpsToMPH = 2.2369362920544

// ValidUnits contains all valid unit values
var ValidUnits = []string{MPS, MPH, KMPH, KPH}

// IsValid checks if the given unit is in the list of valid units
func IsValid(unit string) bool {
	for _, validUnit := range ValidUnits {
		if unit == validUnit {
			return true
		}
	}
	return false
}

// GetValidUnitsString returns a comma-separated string of valid units for error messages
func GetValidUnitsString() string {
	return "mps, mph, kmph, kph"
}

// ConvertSpeed converts a speed from meters per second to the target units.
// Estimates are always held in m/s.
func ConvertSpeed(speedMPS float64, targetUnits string) float64 {
	switch targetUnits {
	case MPH:
		return speedMPS * mpsToMPH
	case KMPH, KPH:
		return speedMPS * 3.6
	default:
		return speedMPS // default to m/s if unknown unit
	}
}

// ConvertToMPS converts a speed in the given units back to meters per second.
func ConvertToMPS(speed float64, fromUnits string) float64 {
	switch fromUnits {
	case MPH:
		return speed / mpsToMPH
	case KMPH, KPH:
		return speed / 3.6
	default:
		return speed
	}
}

// Label returns the display suffix for a unit, e.g. "km/h".
func Label(unit string) string {
	switch unit {
	case MPH:
		return "mph"
	case KMPH, KPH:
		return "km/h"
	default:
		return "m/s"
	}
}
