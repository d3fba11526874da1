// Package simulator is the public facade tying configuration, the
// tagged-operation parser, and the transaction manager together into a
// single runnable unit (spec §6, CLI requirements).
package simulator

import (
	"fmt"
	"io"

	"repcrec/internal/config"
	"repcrec/internal/ops"
	"repcrec/internal/tracelog"
	"repcrec/internal/txnmgr"
)

// Simulator runs one script against one fresh TransactionManager.
type Simulator struct {
	mgr   *txnmgr.Manager
	trace *tracelog.Trace
}

// New builds a Simulator. cfg must already be validated; trace
// receives every line of the required output (spec §6).
func New(cfg *config.Config, trace *tracelog.Trace) *Simulator {
	return &Simulator{
		mgr:   txnmgr.New(cfg, trace),
		trace: trace,
	}
}

// Summary is the per-run tally the original implementation prints
// after the last script line (see SPEC_FULL.md §5: supplemented,
// not part of the required trace wording).
type Summary struct {
	Committed int
	Aborted   int
	Ticks     int
}

func (s Summary) String() string {
	return fmt.Sprintf("committed=%d aborted=%d ticks=%d", s.Committed, s.Aborted, s.Ticks)
}

// Run parses r as a script and steps the manager through every
// operation in order, stopping at the first parse error or the first
// operation-level error (unknown transaction or site, spec §7).
func (s *Simulator) Run(r io.Reader) (Summary, error) {
	operations, err := ops.Parse(r)
	if err != nil {
		return Summary{}, err
	}
	for _, op := range operations {
		if err := s.mgr.Step(op); err != nil {
			return s.summary(), fmt.Errorf("line %d: %w", op.Line, err)
		}
	}
	return s.summary(), nil
}

func (s *Simulator) summary() Summary {
	return Summary{
		Committed: s.mgr.Committed(),
		Aborted:   s.mgr.Aborted(),
		Ticks:     s.mgr.Clock(),
	}
}
