// Package errors provides the structured error taxonomy used across ingestkit.
// Errors carry a machine-readable code, a retryable flag and an optional cause,
// and classify failures into source, item, fetch and store errors.
package errors
