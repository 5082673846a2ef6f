// Package app wires the application together: logger, conversion registry,
// resolver, and job execution. The cmd/cli entrypoint and the integration
// tests both drive the application exclusively through this package.
package app
