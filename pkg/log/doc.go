/*
Package log provides structured logging for mudforge using zerolog.

The log package wraps zerolog to give JSON-structured logging with
component-specific child loggers, configurable levels, and helper functions
for common logging patterns. All logs include timestamps and support
filtering by severity for production debugging.

# Usage

Initializing the logger:

	log.Init(log.Config{
		Level:      log.InfoLevel,
		JSONOutput: true,
		Output:     os.Stdout,
	})

Component loggers:

	schedLog := log.WithComponent("scheduler")
	schedLog.Info().Msg("scheduler started")

	uLog := log.WithUniverse("main")
	uLog.Warn().Str("actor_id", "/p/hero").Msg("command rejected")

# Log Levels

Debug for verbose development detail, Info for the default production
level, Warn for conditions that may need attention, Error for failed
operations, Fatal for unrecoverable startup errors (exits the process).

# See Also

  - https://github.com/rs/zerolog
  - pkg/metrics for the numeric counterpart to these logs
*/
package log
