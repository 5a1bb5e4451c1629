package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/skywatch/internal/core/domain"
)

// uriScheme is the custom URI scheme for skywatch resources.
const uriScheme = "skywatch://"

// registerResources registers all resource handlers with the MCP server.
func (s *Server) registerResources() {
	s.server.AddResource(&mcp.Resource{
		URI:         uriScheme + "reputation",
		Name:        "reputation",
		Description: "Every known publisher with its reputation score",
		MIMEType:    "application/json",
	}, s.handleReputationResource)

	s.server.AddResourceTemplate(&mcp.ResourceTemplate{
		URITemplate: uriScheme + "reputation/{identity}",
		Name:        "publisher-reputation",
		Description: "Reputation of a single publisher",
		MIMEType:    "application/json",
	}, s.handleIdentityResource)

	if s.ports.History != nil {
		s.server.AddResource(&mcp.Resource{
			URI:         uriScheme + "recompute/history",
			Name:        "recompute-history",
			Description: "The recompute schedule and the outcome of recent runs",
			MIMEType:    "application/json",
		}, s.handleHistoryResource)
	}
}

// historyResourceLimit is the number of runs the history resource returns.
const historyResourceLimit = 20

// HistoryOutput is the recompute/history resource body.
type HistoryOutput struct {
	Interval    string      `json:"interval,omitempty"`
	Enabled     bool        `json:"enabled"`
	LastRun     string      `json:"last_run,omitempty"`
	NextRun     string      `json:"next_run,omitempty"`
	LastSuccess string      `json:"last_success,omitempty"`
	LastError   string      `json:"last_error,omitempty"`
	Runs        []RunOutput `json:"runs"`
}

// RunOutput is one recompute run.
type RunOutput struct {
	RunID        string `json:"run_id"`
	Trigger      string `json:"trigger"`
	StartedAt    string `json:"started_at"`
	DurationMS   int64  `json:"duration_ms"`
	Success      bool   `json:"success"`
	Error        string `json:"error,omitempty"`
	FilesApplied int    `json:"files_applied"`
	FilesSkipped int    `json:"files_skipped"`
	Identities   int    `json:"identities"`
}

func (s *Server) handleHistoryResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	history, err := s.ports.History.History(ctx, historyResourceLimit)
	if err != nil {
		return nil, fmt.Errorf("reading recompute history: %w", err)
	}

	out := HistoryOutput{Runs: make([]RunOutput, len(history.Runs))}
	if task := history.Task; task != nil {
		out.Interval = task.Interval.String()
		out.Enabled = task.Enabled
		out.LastRun = formatTime(task.LastRun)
		out.NextRun = formatTime(task.NextRun)
		out.LastSuccess = formatTime(task.LastSuccess)
		out.LastError = task.LastError
	}
	for i, r := range history.Runs {
		out.Runs[i] = RunOutput{
			RunID:        r.RunID,
			Trigger:      r.Trigger,
			StartedAt:    formatTime(r.StartedAt),
			DurationMS:   r.Duration().Milliseconds(),
			Success:      r.Success,
			Error:        r.Error,
			FilesApplied: r.ItemsProcessed,
			FilesSkipped: r.FilesSkipped,
			Identities:   r.Identities,
		}
	}
	return jsonResult(req.Params.URI, out)
}

func (s *Server) handleReputationResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	entries, err := s.ports.Reputation.List(ctx, 0, 0)
	if err != nil {
		return nil, fmt.Errorf("listing reputation: %w", err)
	}

	out := make([]ReputationOutput, len(entries))
	for i := range entries {
		out[i] = toOutput(entries[i])
	}
	return jsonResult(req.Params.URI, out)
}

func (s *Server) handleIdentityResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	identity := extractIdentity(req.Params.URI)
	if identity == "" {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}

	entry, err := s.ports.Reputation.Get(ctx, identity)
	if errors.Is(err, domain.ErrNotFound) {
		return nil, mcp.ResourceNotFoundError(req.Params.URI)
	}
	if err != nil {
		return nil, fmt.Errorf("getting reputation: %w", err)
	}
	return jsonResult(req.Params.URI, toOutput(*entry))
}

func jsonResult(uri string, v any) (*mcp.ReadResourceResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshalling resource: %w", err)
	}
	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		}},
	}, nil
}

// formatTime renders t as RFC 3339 UTC, or "" for the zero time.
func formatTime(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

// extractIdentity extracts the identity from skywatch://reputation/{identity}.
func extractIdentity(uri string) string {
	prefix := uriScheme + "reputation/"
	if !strings.HasPrefix(uri, prefix) {
		return ""
	}
	identity := strings.TrimPrefix(uri, prefix)
	if identity == "" || strings.Contains(identity, "/") {
		return ""
	}
	return identity
}
