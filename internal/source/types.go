package source

import "encoding/json"

// blocksPayload is the raw `ccusage blocks --json` output.
type blocksPayload struct {
	Blocks []rawBlock `json:"blocks"`
}

// rawBlock is one reported usage block. Fields the reporter sometimes omits
// or mistypes are kept loose and parsed defensively.
type rawBlock struct {
	StartTime     string          `json:"startTime"`
	ActualEndTime string          `json:"actualEndTime,omitempty"`
	TotalTokens   json.RawMessage `json:"totalTokens,omitempty"`
	IsActive      bool            `json:"isActive"`
	IsGap         bool            `json:"isGap"`
}

// sessionPayload is the raw `ccusage session --json` output, reduced to the
// cumulative total used for window baselines.
type sessionPayload struct {
	Totals struct {
		TotalTokens json.RawMessage `json:"totalTokens"`
	} `json:"totals"`
}
