// Package app provides application initialization and lifecycle management.
// It wires configuration, logging, observability, the store backend and the
// HTTP surface together at startup, and owns graceful shutdown.
//
// # Initialization Flow
//
// The typical initialization sequence:
//
//	1. Load configuration from environment and files
//	2. Initialize logging and observability
//	3. Open the application store (memory or postgres) and run migrations
//	4. Initialize services with their dependencies
//	5. Set up HTTP handlers and middleware
//	6. Configure the HTTP server
//
// # Usage
//
// The main entry point is typically:
//
//	app, err := app.NewApplication()
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := app.Run(); err != nil {
//	    log.Fatal(err)
//	}
//
// # Graceful Shutdown
//
// Run handles SIGINT and SIGTERM. Active requests are given up to the
// configured shutdown timeout, then telemetry providers, the store and the
// log file are closed in that order.
//
// All initialization errors are returned to the caller. The package never
// calls os.Exit() directly, leaving the exit decision to main.
package app
