// Package domain contains the core entities shared across the application:
// cookie files found on disk and the status derived from them. These types
// are free of infrastructure concerns so they can be used by the checker,
// the HTTP API and the CLI alike.
package domain
