//go:build linux

package power

import (
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/warthog618/go-gpiocdev"
)

// Switch is an output line that enables the strip supply. The zero Switch,
// returned for an empty chip name, does nothing.
type Switch struct {
	chip *gpiocdev.Chip
	line *gpiocdev.Line
}

// Open requests offset on chip, e.g. "gpiochip0", as an output driven low.
func Open(chip string, offset int) (*Switch, error) {
	if chip == "" {
		return &Switch{}, nil
	}
	c, err := gpiocdev.NewChip(chip)
	if err != nil {
		return nil, fmt.Errorf("power: open %s: %w", chip, err)
	}
	l, err := c.RequestLine(offset, gpiocdev.AsOutput(0), gpiocdev.WithConsumer(Consumer))
	if err != nil {
		c.Close()
		return nil, fmt.Errorf("power: request %s line %d: %w", chip, offset, err)
	}
	log.Info().Str("chip", chip).Int("line", offset).Msg("power: line ready")
	return &Switch{chip: c, line: l}, nil
}

func (s *Switch) On() error { return s.set(1) }

func (s *Switch) Off() error { return s.set(0) }

func (s *Switch) set(v int) error {
	if s.line == nil {
		return nil
	}
	if err := s.line.SetValue(v); err != nil {
		return fmt.Errorf("power: set %d: %w", v, err)
	}
	return nil
}

// Close drives the line low and releases it.
func (s *Switch) Close() error {
	if s.line == nil {
		return nil
	}
	err := s.Off()
	s.line.Close()
	s.chip.Close()
	s.line, s.chip = nil, nil
	return err
}
