// CasaOps - Smart Home Administration Platform
// Copyright 2026 CasaOps Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/casaops/casaops

// Package logging implements the CasaOps structured logging core: a
// leveled logger with sensitive-field masking, console and rotating
// per-level file destinations, request-scoped child loggers and live
// reconfiguration.
//
// # Quick start
//
//	logger, err := logging.New(logging.DefaultConfig())
//	if err != nil { ... }
//
//	logger.Info("Server starting", logging.Fields{"port": 3857})
//	logger.Error("Disk full", logging.Fields{"path": "/var/log/x"})
//
//	// Request-scoped correlation
//	reqLogger := logger.Child(logging.Fields{"requestId": id})
//	reqLogger.Info("Request received")
//
// # Reconfiguration
//
// A Logger holds its configuration in an immutable snapshot behind an
// atomic pointer. SetLevel, AddOutput, RemoveOutput and Reconfigure
// build a new snapshot and swap it in; every handle already handed out
// (children included) observes the change immediately. Each change is
// itself logged.
//
// # Failure policy
//
// Nothing in the emit path returns an error. Configuration mistakes
// degrade to defaults with a WARN record; file I/O failures are
// reported through the console sink and the write abandoned. Logging
// must never fail the operation that logs.
package logging
