// Package xxu describes the calculator OS-upgrade package container.
//
// A package is a fixed 74-byte header followed by the raw boot-code payload.
// The package defines the header layout and its BCD/little-endian field
// encodings, the closed table of device tokens, the two header-finalization
// profiles, and the typed errors shared by the converter and the CLI.
package xxu
