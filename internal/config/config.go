package config

import (
	"os"

	"gopkg.in/yaml.v3"
)

type Strip struct {
	Family    string `yaml:"family"` // WS2811 | WS2812 | WS2812B | SK6812 | SK6812RGBW
	Order     string `yaml:"order"`  // e.g. GRB, GRBW
	LEDs      int    `yaml:"leds"`
	Driver    string `yaml:"driver"`     // spi | nrzled | sim
	SPIDev    string `yaml:"spi_dev"`    // periph port name, e.g. /dev/spidev0.0
	PowerChip string `yaml:"power_chip"` // e.g. gpiochip0, empty for none
	PowerLine int    `yaml:"power_line"`
}

type Redis struct {
	Addr    string `yaml:"addr"`
	Channel string `yaml:"channel"`
}

type Config struct {
	Strip      Strip   `yaml:"strip"`
	Mode       string  `yaml:"mode"`
	Color      string  `yaml:"color"` // hex, e.g. "#ff8800"
	Brightness float64 `yaml:"brightness"`
	Speed      float64 `yaml:"speed"`
	WhiteCap   float64 `yaml:"white_cap"`
	FPS        int     `yaml:"fps"`
	Addr       string  `yaml:"addr"`

	Redis Redis `yaml:"redis,omitempty"`
}

// Default is the configuration used when no file is present.
func Default() *Config {
	return &Config{
		Strip: Strip{
			Family: "SK6812RGBW",
			Order:  "GRBW",
			LEDs:   24,
			Driver: "sim",
			SPIDev: "/dev/spidev0.0",
		},
		Mode:       "twinkle_fade_random",
		Color:      "#ff8800",
		Brightness: 0.4,
		Speed:      1,
		WhiteCap:   0.85,
		FPS:        60,
		Addr:       ":8080",
	}
}

func Load(path string) (*Config, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var c Config
	if err := yaml.Unmarshal(b, &c); err != nil {
		return nil, err
	}
	return &c, nil
}

func Save(path string, c *Config) error {
	b, err := yaml.Marshal(c)
	if err != nil {
		return err
	}
	return os.WriteFile(path, b, 0644)
}
