// Package logging provides a simple leveled logging interface for the
// photo library service.
//
// It supports the following log levels:
//   - DEBUG: Verbose debugging information
//   - INFO: General operational messages
//   - WARN: Warning conditions
//   - ERROR: Error conditions
//   - FATAL: Fatal errors that terminate the application
//
// The log level is configured via the LOG_LEVEL environment variable, and
// DEBUG=true forces debug output. Long-lived services obtain a component
// logger with With so their lines can be told apart.
package logging
