// Package logging provides the structured logging seam used by the utpm
// engine. It wraps log/slog behind a small interface so callers can supply
// their own implementation (for redaction policy or test capture) without
// taking a dependency on slog directly.
package logging
