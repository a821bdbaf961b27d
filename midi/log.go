package midi

import (
	"io"

	"github.com/charmbracelet/log"

	"go-stepseq/sequencer"
)

// LogOutput writes instructions to a logger instead of a port. It is the
// output of a sequencer started without a MIDI port.
type LogOutput struct {
	log *log.Logger
}

func NewLogOutput(logger *log.Logger) *LogOutput {
	if logger == nil {
		logger = log.New(io.Discard)
	}
	return &LogOutput{log: logger.WithPrefix("dry-run")}
}

func (o *LogOutput) Trigger(in sequencer.Instruction) error {
	o.log.Info("trigger", "kind", in.Kind, "track", in.Track, "step", in.Step, "instruction", in.String())
	return nil
}
