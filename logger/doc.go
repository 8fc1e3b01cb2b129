// Package logger provides structured logging for ingestkit built on zerolog.
//
// Loggers are scoped by service and component and accept structured fields as
// maps, usually built with Fields:
//
//	log := logger.Get("fetch")
//	log.Info("fetched", logger.Fields(logger.FieldURL, u, logger.FieldStatus, 200))
//
// # Configuration
//
//	logging:
//	  level: "info"
//	  format: "json"
//	  output: "stderr"
package logger
