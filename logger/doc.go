// Package logger provides structured logging for remoter using zerolog.
//
// It supports JSON and console output, level configuration and
// component-scoped loggers carrying structured fields.
//
// # Configuration
//
//	logging:
//	  level: "info"
//	  format: "auto"   # json, console or auto (console on a terminal)
//
// # Usage
//
//	log := logger.WithComponent("orchestrator")
//	log.Info("scenario finished", logger.Fields("scenario", 0, "failed", 1))
package logger
