package control

import (
	"strings"

	"iotdash/internal/models"
)

var sliderTokens = []string{"int", "integer", "brightness", "level", "percent", "value"}
var switchTokens = []string{"switch", "toggle", "bool", "boolean", "on", "off"}
var numericTokens = []string{"int", "integer", "numeric"}

func containsAny(lower []string, tokens []string) bool {
	for _, t := range tokens {
		for _, c := range lower {
			if c == t {
				return true
			}
		}
	}
	return false
}

func lowered(commandTypes []string) []string {
	out := make([]string, len(commandTypes))
	for i, c := range commandTypes {
		out[i] = strings.ToLower(c)
	}
	return out
}

// DeriveControlType maps a device's command-type capability list to a
// widget control type. Numeric/slider tokens win over switch tokens; a
// non-empty list with no recognized token still gets a switch. An empty
// list means the device is not controllable.
func DeriveControlType(commandTypes []string) (models.ControlType, bool) {
	if len(commandTypes) == 0 {
		return "", false
	}
	lower := lowered(commandTypes)
	if containsAny(lower, sliderTokens) {
		return models.ControlSlider, true
	}
	if containsAny(lower, switchTokens) {
		return models.ControlSwitch, true
	}
	return models.ControlSwitch, true
}

// CommandForSwitch derives the wire command for a switch position.
// Devices advertising numeric command types get 1/0, everything else
// gets the text tokens "ON"/"OFF".
func CommandForSwitch(commandTypes []string, on bool) models.Command {
	if containsAny(lowered(commandTypes), numericTokens) {
		if on {
			return models.NumericCommand(1)
		}
		return models.NumericCommand(0)
	}
	if on {
		return models.TextCommand("ON")
	}
	return models.TextCommand("OFF")
}

// CommandForLevel derives the wire command for a committed slider value:
// the number is sent as-is
func CommandForLevel(level int) models.Command {
	return models.NumericCommand(float64(level))
}
