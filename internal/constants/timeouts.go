package constants

import "time"

// Shared duration vocabulary used by timeouts and polling checks.
const (
	Duration5Seconds  = 5 * time.Second
	Duration10Seconds = 10 * time.Second
)

// Domain-level timeout constants.
const (
	// HistoryBusyTimeout bounds how long sqlite waits on a locked history db.
	HistoryBusyTimeout = Duration5Seconds
	// HistoryOpenTimeout bounds schema setup when opening the history db.
	HistoryOpenTimeout = Duration5Seconds

	// UpdateChildWaitDelay is how long a cancelled package-manager child may
	// keep its output pipes open after the termination signal before it is killed.
	UpdateChildWaitDelay = Duration10Seconds
)
