// Package inspector decodes the header of an existing package and reports it
// as YAML, checking the declared payload size against the file length.
package inspector
