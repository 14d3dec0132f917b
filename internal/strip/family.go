package strip

import (
	"fmt"
	"strings"
	"time"
)

// Family describes an LED part: the bytes per pixel and the idle time that
// latches a frame.
type Family struct {
	Name     string
	Channels int
	Reset    time.Duration
}

// Supported parts.
var (
	WS2811     = Family{Name: "WS2811", Channels: 3, Reset: 50 * time.Microsecond}
	WS2812     = Family{Name: "WS2812", Channels: 3, Reset: 50 * time.Microsecond}
	WS2812B    = Family{Name: "WS2812B", Channels: 3, Reset: 280 * time.Microsecond}
	SK6812     = Family{Name: "SK6812", Channels: 3, Reset: 80 * time.Microsecond}
	SK6812RGBW = Family{Name: "SK6812RGBW", Channels: 4, Reset: 80 * time.Microsecond}
)

// Families lists the supported parts.
var Families = []Family{WS2811, WS2812, WS2812B, SK6812, SK6812RGBW}

// FamilyByName returns the part with the given name, case insensitive.
func FamilyByName(name string) (Family, error) {
	for _, f := range Families {
		if strings.EqualFold(f.Name, name) {
			return f, nil
		}
	}
	return Family{}, fmt.Errorf("strip: unknown LED family %q", name)
}

func (f Family) String() string {
	return f.Name
}
