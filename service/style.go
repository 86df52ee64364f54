package service

import (
	"fmt"
	"strconv"
	"strings"
)

// Box padding tuning. A user-facing padding value of 0..100 maps
// linearly onto a percentage of the font size, then gets floored so
// small fonts still render a visible box.
const (
	paddingMinPercent = 10
	paddingMaxPercent = 40
	paddingMinPixels  = 2
)

// ASSColor converts a #RRGGBB hex color and an opacity (0..100,
// 100 = opaque) into the subtitle-script &HAABBGGRR& form. The script
// format inverts alpha: 0 is opaque, 255 fully transparent.
func ASSColor(hexColor string, opacity int) (string, error) {
	cleaned := strings.TrimPrefix(strings.TrimSpace(hexColor), "#")
	if len(cleaned) != 6 {
		return "", &ValidationError{Field: "color", Reason: fmt.Sprintf("want 6 hex digits, got %q", hexColor)}
	}
	value, err := strconv.ParseUint(cleaned, 16, 32)
	if err != nil {
		return "", &ValidationError{Field: "color", Reason: fmt.Sprintf("not hex: %q", hexColor)}
	}
	if opacity < 0 || opacity > 100 {
		return "", &ValidationError{Field: "opacity", Reason: "must be 0..100"}
	}

	r := (value >> 16) & 0xFF
	g := (value >> 8) & 0xFF
	b := value & 0xFF
	alpha := 255 - (opacity*255+50)/100

	return fmt.Sprintf("&H%02X%02X%02X%02X&", alpha, b, g, r), nil
}

// BoxPadding computes the pixel padding of the rendered subtitle box
// for a font size and a user-facing padding value (0..100).
func BoxPadding(fontSize, padding int) (int, error) {
	if fontSize < 1 {
		return 0, &ValidationError{Field: "fontSize", Reason: "must be positive"}
	}
	if padding < 0 || padding > 100 {
		return 0, &ValidationError{Field: "padding", Reason: "must be 0..100"}
	}

	percent := float64(paddingMinPercent) + float64(paddingMaxPercent-paddingMinPercent)*float64(padding)/100
	pixels := int(float64(fontSize) * percent / 100)
	if pixels < paddingMinPixels {
		pixels = paddingMinPixels
	}
	return pixels, nil
}
