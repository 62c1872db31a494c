// ABOUTME: Centralized configuration defaults for readlist
// ABOUTME: Contains magic numbers and hardcoded values for display and storage

package config

import "time"

// HTTP and sync settings
const (
	DefaultHTTPTimeout  = 30 * time.Second
	DefaultSyncInterval = 15 * time.Minute
	DefaultEnrichLimit  = 20
)

// Display settings
const (
	DefaultListLimit = 20
	DisplayIDLength  = 8
	SeparatorWidth   = 60
	DateFormatShort  = "02 Jan 06 15:04 MST"
	DateFormatLong   = "Mon, 02 Jan 2006 15:04 MST"
)

// Storage settings
const (
	DefaultDBFilename     = "readlist.db"
	DefaultSourceFilename = "readinglist.json"
	DefaultDirPerms       = 0700
)
