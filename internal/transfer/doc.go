// Package transfer moves file bytes for the renamer: it downloads sources
// into a temporary directory, moves finished files into place and archives
// them to S3-compatible storage.
package transfer
