// Package tracelog emits the simulator's required output trace (spec
// §6): one line per lock grant, block, commit, abort, site transition,
// and dump entry. It wraps zerolog the way the example pack's
// container orchestrator wraps it in pkg/log — a configured Logger
// held by each Trace plus small typed helper methods — rather than
// scattering fmt.Printf across the transaction manager.
package tracelog

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// Level is the trace verbosity.
type Level string

const (
	DebugLevel Level = "debug"
	InfoLevel  Level = "info"
	WarnLevel  Level = "warn"
	ErrorLevel Level = "error"
)

// Config controls how a Trace renders its output.
type Config struct {
	Level      Level
	JSONOutput bool
	Output     io.Writer
}

// Trace is the simulator's line-oriented output sink.
type Trace struct {
	logger zerolog.Logger
}

// New builds a Trace from cfg. A nil Output defaults to stdout.
func New(cfg Config) *Trace {
	var level zerolog.Level
	switch cfg.Level {
	case DebugLevel:
		level = zerolog.DebugLevel
	case WarnLevel:
		level = zerolog.WarnLevel
	case ErrorLevel:
		level = zerolog.ErrorLevel
	default:
		level = zerolog.InfoLevel
	}

	output := cfg.Output
	if output == nil {
		output = os.Stdout
	}

	var logger zerolog.Logger
	if cfg.JSONOutput {
		logger = zerolog.New(output).Level(level).With().Timestamp().Logger()
	} else {
		logger = zerolog.New(zerolog.ConsoleWriter{
			Out:        output,
			TimeFormat: time.Kitchen,
			NoColor:    true,
		}).Level(level).With().Timestamp().Logger()
	}

	return &Trace{logger: logger}
}

// Begin logs the start of a read-write transaction.
func (t *Trace) Begin(txn, tick int) {
	t.logger.Info().Str("event", "BEGIN").Int("txn", txn).Int("tick", tick).
		Msgf("BEGIN T%d at tick %d", txn, tick)
}

// BeginRO logs the start of a read-only transaction.
func (t *Trace) BeginRO(txn, tick int) {
	t.logger.Info().Str("event", "BEGINRO").Int("txn", txn).Int("tick", tick).
		Msgf("BEGINRO T%d at tick %d", txn, tick)
}

// Read logs a successful read result.
func (t *Trace) Read(txn, v, value int) {
	t.logger.Info().Str("event", "READ").Int("txn", txn).Int("var", v).Int("value", value).
		Msgf("T%d reads x%d: %d", txn, v, value)
}

// WriteGrant logs a write lock grant on one site.
func (t *Trace) WriteGrant(txn, v, site, tick int) {
	t.logger.Info().Str("event", "WRITE_GRANT").Int("txn", txn).Int("var", v).Int("site", site).Int("tick", tick).
		Msgf("T%d granted write lock on x%d at site %d (tick %d)", txn, v, site, tick)
}

// Blocked logs that an operation was deferred to the wait queue.
func (t *Trace) Blocked(txn int, op string, tick int) {
	t.logger.Info().Str("event", "BLOCKED").Int("txn", txn).Str("op", op).Int("tick", tick).
		Msgf("T%d blocked on %s at tick %d", txn, op, tick)
}

// AbortDeadlock logs a deadlock-victim abort.
func (t *Trace) AbortDeadlock(txn int) {
	t.logger.Info().Str("event", "ABORT_DEADLOCK").Int("txn", txn).
		Msgf("T%d aborted (deadlock victim)", txn)
}

// AbortFailedSite logs an abort caused by a touched site failure.
func (t *Trace) AbortFailedSite(txn int) {
	t.logger.Info().Str("event", "ABORT_SITE_FAILURE").Int("txn", txn).
		Msgf("T%d aborted (touched a site that failed)", txn)
}

// Commit logs a successful transaction commit.
func (t *Trace) Commit(txn int) {
	t.logger.Info().Str("event", "COMMIT").Int("txn", txn).
		Msgf("T%d committed", txn)
}

// CommitVar logs one per-variable, per-site commit during a transaction's commit.
func (t *Trace) CommitVar(txn, v, site, value, time int) {
	t.logger.Info().Str("event", "COMMIT_VAR").Int("txn", txn).Int("var", v).Int("site", site).
		Int("value", value).Int("time", time).
		Msgf("T%d commits x%d=%d at site %d, time %d", txn, v, value, site, time)
}

// SiteFail logs a site failure.
func (t *Trace) SiteFail(site, tick int) {
	t.logger.Info().Str("event", "SITE_FAIL").Int("site", site).Int("tick", tick).
		Msgf("site %d fails at tick %d", site, tick)
}

// SiteRecover logs a site recovery.
func (t *Trace) SiteRecover(site, tick int) {
	t.logger.Info().Str("event", "SITE_RECOVER").Int("site", site).Int("tick", tick).
		Msgf("site %d recovers at tick %d", site, tick)
}

// DumpHeader logs the start of a site's dump block.
func (t *Trace) DumpHeader(site int) {
	t.logger.Info().Str("event", "DUMP_SITE").Int("site", site).
		Msgf("site %d:", site)
}

// DumpVar logs one variable entry within a dump.
func (t *Trace) DumpVar(v, value int) {
	t.logger.Info().Str("event", "DUMP_VAR").Int("var", v).Int("value", value).
		Msgf("x%d:%d", v, value)
}
