// Package monitoring carries the diagnostic log hook used by the library
// packages. Library code calls Logf and never imports a logging backend; the
// command wires one in with SetLogger or UseZap.
package monitoring

import "log"

// Logf receives every diagnostic line, "[Component] Message: key=value, ...".
// It defaults to log.Printf.
var Logf func(format string, v ...interface{}) = log.Printf

func discard(string, ...interface{}) {}

// SetLogger installs f as Logf. nil mutes logging.
func SetLogger(f func(format string, v ...interface{})) {
	if f == nil {
		f = discard
	}
	Logf = f
}
