// corelog.go - package-wide logging

package jop

import "log"

// logf prefixes every core-side diagnostic with its component name, mirroring
// the rest of the codebase's plain log.Printf calls (no structured logging
// library is pulled in for a handful of warning-level lines).
func logf(component, format string, args ...any) {
	log.Printf("jop: "+component+": "+format, args...)
}
