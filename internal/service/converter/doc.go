// Package converter turns a raw boot-code image into an installable package.
//
// Run resolves the device code, streams the payload behind a 74-byte header
// area and commits the header with one of the xxu profiles: "patch" writes
// the template first and fixes up the device and size bytes afterwards,
// "rewrite" reserves the header area and writes the complete dated header
// once the payload length is known.
package converter
