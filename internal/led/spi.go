//go:build !tinygo

package led

import (
	"errors"
	"fmt"

	"periph.io/x/conn/v3"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
	"periph.io/x/conn/v3/spi/spireg"

	"github.com/coreman2200/arcastrip/internal/nrz"
)

// ErrFrameSize is returned when a frame does not fit in a single SPI
// transfer.
var ErrFrameSize = errors.New("led: frame larger than one spi transfer")

// SPI is an nrz.Port on the MOSI line of a SPI port. The SPI bit clock is the
// sample clock and MOSI is the only pin, bit 0 of the register.
type SPI struct {
	p      spi.PortCloser
	c      spi.Conn
	clock  physic.Frequency
	maxTx  int
	level  byte
	packed []byte
}

// OpenSPI opens the named SPI port, "" for the first one, clocked at f.
func OpenSPI(name string, f physic.Frequency) (*SPI, error) {
	p, err := spireg.Open(name)
	if err != nil {
		return nil, fmt.Errorf("led: open spi %q: %w", name, err)
	}
	s, err := NewSPI(p, f)
	if err != nil {
		_ = p.Close()
		return nil, err
	}
	return s, nil
}

// NewSPI connects to p at f in mode 0, 8 bits per word. p must actually run
// at f: a port limited below f would stretch every pulse.
func NewSPI(p spi.PortCloser, f physic.Frequency) (*SPI, error) {
	c, err := p.Connect(f, spi.Mode0, 8)
	if err != nil {
		return nil, fmt.Errorf("led: spi connect: %w", err)
	}
	s := &SPI{p: p, c: c, clock: f}
	if l, ok := c.(conn.Limits); ok {
		s.maxTx = l.MaxTxSize()
	}
	return s, nil
}

func (s *SPI) String() string {
	return fmt.Sprintf("spi{%s, %s}", s.c, s.clock)
}

// Clock implements nrz.Port.
func (s *SPI) Clock() physic.Frequency { return s.clock }

// Output implements nrz.Port. Only bit 0, MOSI, exists.
func (s *SPI) Output(mask byte) error {
	if mask&^0x01 != 0 {
		return fmt.Errorf("%w: %#02x, spi only has 0x01", ErrPin, mask)
	}
	return nil
}

// Level implements nrz.Port.
func (s *SPI) Level() byte { return s.level }

// MaxFrame is the largest packed frame in bytes the port sends in one
// transfer, 0 when the driver reports no limit.
func (s *SPI) MaxFrame() int { return s.maxTx }

// CheckFrame reports whether a frame of n channel bytes at t fits in one
// transfer.
func (s *SPI) CheckFrame(t nrz.Timing, n int) error {
	if size := (t.Samples(n) + 7) / 8; s.maxTx > 0 && size > s.maxTx {
		return fmt.Errorf("%w: %d channel bytes need %d bytes, limit %d", ErrFrameSize, n, size, s.maxTx)
	}
	return nil
}

// Stream implements nrz.Port. Samples are packed MSB first, eight per byte;
// a partial last byte is padded low. The frame goes out as a single transfer:
// a gap between transfers would land inside a pulse, so a frame larger than
// the driver limit fails with ErrFrameSize and nothing is sent.
func (s *SPI) Stream(samples []byte) error {
	n := (len(samples) + 7) / 8
	if s.maxTx > 0 && n > s.maxTx {
		return fmt.Errorf("%w: %d bytes, limit %d", ErrFrameSize, n, s.maxTx)
	}
	if cap(s.packed) < n {
		s.packed = make([]byte, n)
	}
	w := s.packed[:n]
	Pack(w, samples)
	if err := s.c.Tx(w, nil); err != nil {
		return err
	}
	if len(samples) > 0 {
		s.level = samples[len(samples)-1] & 0x01
	}
	return nil
}

// Close closes the port.
func (s *SPI) Close() error {
	return s.p.Close()
}

// Pack packs bit 0 of each sample into dst, MSB first, and zeroes the unused
// low bits of the last byte. dst must hold (len(samples)+7)/8 bytes.
func Pack(dst, samples []byte) {
	for i := range dst {
		dst[i] = 0
	}
	for i, v := range samples {
		if v&0x01 != 0 {
			dst[i/8] |= 0x80 >> uint(i%8)
		}
	}
}
