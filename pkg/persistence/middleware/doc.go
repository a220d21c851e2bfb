// Package middleware wraps a ports.SessionStore with persistence policies for
// operator feedback: PII masking and AES-GCM encryption at rest.
package middleware
