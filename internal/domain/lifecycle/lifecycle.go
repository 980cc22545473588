// Package lifecycle holds shared constants for component startup and shutdown.
package lifecycle

import "time"

// DefaultTimeout bounds how long start/stop hooks may take before being abandoned.
const DefaultTimeout = 10 * time.Second
