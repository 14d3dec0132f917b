// Package nrztest provides fakes for exercising nrz without hardware.
package nrztest

import (
	"periph.io/x/conn/v3/physic"

	"github.com/coreman2200/arcastrip/internal/critical"
)

// Recorder is a Port that records every streamed frame.
type Recorder struct {
	Freq    physic.Frequency
	Outputs byte // pins configured as outputs
	Reg     byte // register value, i.e. the last sample played
	Frames  [][]byte
	// Err, if set, is returned by Stream after recording nothing.
	Err error
	// OnStream, if set, runs at the start of every Stream call.
	OnStream func(samples []byte)
}

func (r *Recorder) Clock() physic.Frequency { return r.Freq }

func (r *Recorder) Output(mask byte) error {
	r.Outputs |= mask
	return nil
}

func (r *Recorder) Level() byte { return r.Reg }

func (r *Recorder) Stream(samples []byte) error {
	if r.OnStream != nil {
		r.OnStream(samples)
	}
	if r.Err != nil {
		return r.Err
	}
	r.Frames = append(r.Frames, append([]byte(nil), samples...))
	if len(samples) > 0 {
		r.Reg = samples[len(samples)-1]
	}
	return nil
}

// Last returns the most recent frame, nil if none.
func (r *Recorder) Last() []byte {
	if len(r.Frames) == 0 {
		return nil
	}
	return r.Frames[len(r.Frames)-1]
}

// Interrupts is a fake interrupt-enable flag.
type Interrupts struct {
	Enabled  bool
	Disables int
	Restores int
}

func (i *Interrupts) Disable() critical.State {
	i.Disables++
	prev := critical.State(0)
	if i.Enabled {
		prev = 1
	}
	i.Enabled = false
	return prev
}

func (i *Interrupts) Restore(s critical.State) {
	i.Restores++
	i.Enabled = s != 0
}
