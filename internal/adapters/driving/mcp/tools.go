package mcp

import (
	"context"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/skywatch/internal/core/domain"
)

// defaultListLimit caps list_reputation when no limit is given.
const defaultListLimit = 25

// GetReputationInput is the input schema for the get_reputation tool.
type GetReputationInput struct {
	Identity string `json:"identity" jsonschema:"the publisher identity (DID) to look up"`
}

// ListReputationInput is the input schema for the list_reputation tool.
type ListReputationInput struct {
	Limit    int     `json:"limit,omitempty" jsonschema:"maximum number of entries to return (default 25)"`
	MinScore float64 `json:"min_score,omitempty" jsonschema:"only return entries scoring at least this much"`
}

// ListReputationOutput is the output schema for the list_reputation tool.
type ListReputationOutput struct {
	Entries []ReputationOutput `json:"entries"`
	Count   int                `json:"count"`
}

// ReputationOutput is one reputation entry.
type ReputationOutput struct {
	Identity  string  `json:"identity"`
	Name      string  `json:"name"`
	Score     float64 `json:"reputation_score"`
	FirstSeen string  `json:"first_seen"`
	LastSeen  string  `json:"last_seen"`
}

// RequestRecomputeInput is the input schema for the request_recompute tool.
type RequestRecomputeInput struct {
	Reason string `json:"reason,omitempty" jsonschema:"why the recompute is requested"`
}

// RequestRecomputeOutput reports whether the request was accepted.
type RequestRecomputeOutput struct {
	Accepted bool `json:"accepted"`
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "get_reputation",
		Description: "Look up the longevity reputation of an MCP server publisher",
	}, s.handleGetReputation)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "list_reputation",
		Description: "List publishers ordered by reputation score",
	}, s.handleListReputation)

	if s.ports.Trigger != nil {
		mcp.AddTool(s.server, &mcp.Tool{
			Name:        "request_recompute",
			Description: "Ask the worker to recompute reputation scores now",
		}, s.handleRequestRecompute)
	}
}

func (s *Server) handleGetReputation(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input GetReputationInput,
) (*mcp.CallToolResult, ReputationOutput, error) {
	entry, err := s.ports.Reputation.Get(ctx, input.Identity)
	if err != nil {
		return nil, ReputationOutput{}, err
	}
	return nil, toOutput(*entry), nil
}

func (s *Server) handleListReputation(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input ListReputationInput,
) (*mcp.CallToolResult, ListReputationOutput, error) {
	limit := input.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}

	entries, err := s.ports.Reputation.List(ctx, limit, input.MinScore)
	if err != nil {
		return nil, ListReputationOutput{}, err
	}

	output := ListReputationOutput{
		Entries: make([]ReputationOutput, len(entries)),
		Count:   len(entries),
	}
	for i := range entries {
		output.Entries[i] = toOutput(entries[i])
	}
	return nil, output, nil
}

func (s *Server) handleRequestRecompute(
	_ context.Context,
	_ *mcp.CallToolRequest,
	input RequestRecomputeInput,
) (*mcp.CallToolResult, RequestRecomputeOutput, error) {
	reason := input.Reason
	if reason == "" {
		reason = "mcp"
	}
	return nil, RequestRecomputeOutput{Accepted: s.ports.Trigger.Request(reason)}, nil
}

func toOutput(e domain.ReputationEntry) ReputationOutput {
	return ReputationOutput{
		Identity:  e.Identity,
		Name:      e.Name,
		Score:     e.Score,
		FirstSeen: e.FirstSeen.UTC().Format(time.RFC3339),
		LastSeen:  e.LastSeen.UTC().Format(time.RFC3339),
	}
}
