// Package services defines the error taxonomy shared by pipeline stages and
// the helpers for wrapping external-tool failures with stage context.
package services
