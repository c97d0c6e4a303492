// Package internalcheck runs static-analysis tests over pkg/utpm rather than
// shipping runtime code. It is not intended for external use and is not
// part of the engine's public API.
package internalcheck
