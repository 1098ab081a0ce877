// Package app wires configuration, telemetry, storage and the portfolio
// services into an HTTP server and manages its lifecycle.
//
// # Initialization Flow
//
//  1. Load configuration (defaults, YAML file, environment)
//  2. Initialize logging and OpenTelemetry
//  3. Open the portfolio store (S3 or local directory)
//  4. Create the insights generator when an API key is configured
//  5. Build services, handlers and the chi router
//  6. Configure the HTTP server
//
// # Usage
//
//	a, err := app.NewApplication(ctx)
//	if err != nil {
//	    return err
//	}
//	return a.Run()
//
// Run blocks until SIGINT or SIGTERM and then drains in-flight requests
// within Server.ShutdownTimeout. Errors are returned to the caller; the
// package never calls os.Exit.
package app
