// Package logging builds the process zap logger from environment variables,
// optionally teeing output into a daily rotated file.
package logging
