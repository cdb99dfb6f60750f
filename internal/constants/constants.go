package constants

import "time"

const (
	AppName            = "calhours"
	Version            = "v0.1.0"
	DefaultKeyringUser = "endpoint-token"

	DefaultEndpoint   = "http://localhost:3000"
	DefaultConfigPath = "~/.config/calhours/calhours.db"
	DefaultTimeout    = 10 * time.Second

	// AggregatePath is the endpoint path serving hours per calendar.
	AggregatePath = "/api/caldav"
	// MaxResponseBytes caps how much of a response body is read.
	MaxResponseBytes = 4 << 20

	PageTitle  = "Calendar Time Analytics"
	ChartTitle = "Hours per Calendar"

	// Fallback messages shown when the endpoint gives us nothing better.
	MsgFetchFailed   = "Failed to fetch calendar data"
	MsgMalformedData = "Received malformed calendar data"
	MsgUnreachable   = "Could not reach calendar service"
	MsgNoData        = "No calendar data for this range."
	MsgNoSnapshot    = "No stored snapshot for this range."

	// DefaultHistoryLimit bounds the rows printed by `calhours history`.
	DefaultHistoryLimit = 20
)
