// Package app provides application initialization and lifecycle management
// for the dataset exploration service. It wires configuration, logging,
// telemetry, the dataset store, services, handlers and the HTTP server, and
// handles graceful shutdown.
//
// # Initialization Flow
//
//	1. Load configuration from environment and an optional YAML file
//	2. Initialize logging and OpenTelemetry
//	3. Create the in-memory dataset store and websocket hub
//	4. Initialize services with their dependencies
//	5. Set up HTTP handlers and middleware
//	6. Configure the HTTP server
//
// # Usage
//
//	application, err := app.NewApplication(frontendFS)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if err := application.Run(); err != nil {
//	    log.Fatal(err)
//	}
//
// # Graceful Shutdown
//
// Run blocks until SIGINT or SIGTERM, then drains active requests, stops
// the websocket hub and the store janitor, and flushes telemetry.
package app
