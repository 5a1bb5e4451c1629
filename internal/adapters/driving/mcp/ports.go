package mcp

import (
	"github.com/custodia-labs/skywatch/internal/core/ports/driving"
)

// Ports aggregates the driving ports the MCP server uses.
type Ports struct {
	// Reputation answers score lookups.
	Reputation driving.ReputationService

	// Trigger requests a recompute. Optional; the request_recompute tool
	// is only registered when set.
	Trigger driving.RecomputeTrigger

	// History reads recorded recompute runs. Optional; the
	// recompute/history resource is only registered when set.
	History driving.RecomputeHistory
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	if p.Reputation == nil {
		return ErrMissingReputationService
	}
	return nil
}
