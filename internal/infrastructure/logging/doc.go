// Package logging builds the zap loggers used across the backend.
//
// Production loggers write JSON lines to stdout; development loggers write
// colored console output. Every child created with Named, With or
// ForSession shares its parent's level, so SetLevel on the root logger
// retunes the whole process.
//
//	log, err := logging.FromConfig(cfg.Logging.Level, cfg.Logging.Development)
//	log.ForSession("sess_01H...").Info("Command executed", zap.Int("return_code", 0))
package logging
