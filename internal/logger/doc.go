// Package logger provides a small wrapper around zap to offer:
//   - a global sugared logger with a console encoder writing to stderr,
//   - context helpers (ToContext/FromContext/WithName/WithKV),
//   - level configuration and parsing utilities,
//   - convenience functions (Debugf, InfoKV, WarnKV, ...).
//
// The converter and inspector accept a context and extract the logger from it,
// so every stage of a run logs under the same name and fields.
package logger
