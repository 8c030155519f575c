package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/mark3labs/mcp-go/mcp"

	"github.com/dshills/capmatch-mcp/internal/assembler"
	"github.com/dshills/capmatch-mcp/internal/catalog"
	"github.com/dshills/capmatch-mcp/internal/health"
	"github.com/dshills/capmatch-mcp/internal/scorer"
	"github.com/dshills/capmatch-mcp/pkg/types"
)

// Error codes used in MCP tool responses.
const (
	ErrorCodeInvalidParams   = -32602
	ErrorCodeInternal        = -32603
	ErrorCodeNotFound        = -32001
	ErrorCodeAlreadyExists   = -32002
	ErrorCodeInvalidStrategy = -32003
	ErrorCodeDimension       = -32004
)

// MCPError is a structured error for MCP responses.
type MCPError struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    string `json:"data,omitempty"`
}

func (e *MCPError) Error() string {
	if e.Data != "" {
		return fmt.Sprintf("[%d] %s: %s", e.Code, e.Message, e.Data)
	}
	return fmt.Sprintf("[%d] %s", e.Code, e.Message)
}

func newMCPError(code int, message, data string) *MCPError {
	return &MCPError{Code: code, Message: message, Data: data}
}

// domainError maps engine sentinel errors onto MCP error codes.
func domainError(err error) *MCPError {
	switch {
	case errors.Is(err, types.ErrValidation):
		return newMCPError(ErrorCodeInvalidParams, "validation failed", err.Error())
	case errors.Is(err, types.ErrNotFound):
		return newMCPError(ErrorCodeNotFound, "module not found", err.Error())
	case errors.Is(err, types.ErrAlreadyExists):
		return newMCPError(ErrorCodeAlreadyExists, "module already registered", err.Error())
	case errors.Is(err, types.ErrInvalidStrategy):
		return newMCPError(ErrorCodeInvalidStrategy, "unknown assembly strategy", err.Error())
	case errors.Is(err, types.ErrDimensionMismatch):
		return newMCPError(ErrorCodeDimension, "embedding dimension mismatch", err.Error())
	default:
		return newMCPError(ErrorCodeInternal, "internal error", err.Error())
	}
}

// handleSearchModules handles the search_modules tool.
func (s *Server) handleSearchModules(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", "expected object arguments")
	}

	query, err := s.queryFromArgs(args)
	if err != nil {
		return nil, err
	}

	resp, searchErr := s.searcher.Search(ctx, query)
	if searchErr != nil {
		return nil, domainError(searchErr)
	}

	response := map[string]interface{}{
		"results":     renderResults(resp.Results),
		"cache_hit":   resp.CacheHit,
		"candidates":  resp.Candidates,
		"survivors":   resp.Survivors,
		"duration_ms": resp.Duration.Milliseconds(),
	}
	return mcp.NewToolResultText(formatJSON(response)), nil
}

// handleAssembleModules handles the assemble_modules tool: a search
// over a wider candidate pool, then strategy selection over the ranked
// list.
func (s *Server) handleAssembleModules(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", "expected object arguments")
	}

	name := getStringDefault(args, "name", "")
	if name == "" {
		return nil, newMCPError(ErrorCodeInvalidParams, "missing required parameter", "name is required")
	}
	strategy := getStringDefault(args, "strategy", assembler.StrategyBestMatch)

	query, err := s.queryFromArgs(args)
	if err != nil {
		return nil, err
	}
	query.Constraints.MaxResults = getIntDefault(args, "candidate_pool", 20)

	resp, searchErr := s.searcher.Search(ctx, query)
	if searchErr != nil {
		return nil, domainError(searchErr)
	}

	selector := s.selector
	if size := getIntDefault(args, "team_size", 0); size > 0 {
		selector = assembler.New(assembler.Config{
			BestMatchSize:  size,
			DiverseSize:    size,
			SpecialistSize: size,
		})
	}

	assembly, asmErr := selector.Assemble(resp.Results, strategy, name)
	if asmErr != nil {
		return nil, domainError(asmErr)
	}

	response := map[string]interface{}{
		"name":            assembly.Name,
		"strategy":        assembly.Strategy,
		"selected":        renderResults(assembly.Selected),
		"aggregate_score": assembly.AggregateScore,
		"task_projection": assembly.TaskProjection,
		"candidates":      len(resp.Results),
	}
	return mcp.NewToolResultText(formatJSON(response)), nil
}

// handleRegisterModule handles the register_module tool.
func (s *Server) handleRegisterModule(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", "expected object arguments")
	}

	mod := &types.CapabilityModule{
		ID:                getStringDefault(args, "id", ""),
		Name:              getStringDefault(args, "name", ""),
		Version:           getStringDefault(args, "version", ""),
		Specialization:    getStringDefault(args, "specialization", ""),
		Proficiency:       getFloatDefault(args, "proficiency", 0),
		HostLocation:      getStringDefault(args, "host_location", ""),
		CompatibilityTags: getStringSlice(args, "compatibility_tags"),
		CommunityRating:   getFloatDefault(args, "community_rating", 3),
		LastUpdated:       time.Now(),
	}
	if mod.ID == "" {
		mod.ID = uuid.New().String()
	}
	if prov := getStringDefault(args, "provenance", ""); prov != "" {
		mod.Provenance = map[string]string{"source": prov}
	}

	embedding := getFloatSlice(args, "embedding")
	if embedding != nil {
		mod.Embedding = make([]float32, len(embedding))
		for i, v := range embedding {
			mod.Embedding[i] = float32(v)
		}
	} else {
		req := types.Requirements{
			PrimarySkills: getStringSlice(args, "skills"),
			Description:   getStringDefault(args, "description", ""),
		}
		if len(req.PrimarySkills) == 0 && req.Description == "" {
			return nil, newMCPError(ErrorCodeInvalidParams, "missing capability description",
				"provide skills, description, or an explicit embedding")
		}
		vec, err := s.provider.Embed(ctx, req)
		if err != nil {
			return nil, newMCPError(ErrorCodeInternal, "failed to embed capability", err.Error())
		}
		mod.Embedding = vec
	}

	if err := s.registry.Add(mod); err != nil {
		return nil, domainError(err)
	}
	if err := s.catalog.Upsert(ctx, mod); err != nil {
		log.Printf("catalog upsert failed for %s: %v", mod.ID, err)
	}

	response := map[string]interface{}{
		"id":         mod.ID,
		"name":       mod.Name,
		"version":    mod.Version,
		"dimension":  len(mod.Embedding),
		"registered": true,
	}
	return mcp.NewToolResultText(formatJSON(response)), nil
}

// handleUpdatePerformance handles the update_performance tool.
func (s *Server) handleUpdatePerformance(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", "expected object arguments")
	}

	id := getStringDefault(args, "id", "")
	taskType := getStringDefault(args, "task_type", "")
	if id == "" || taskType == "" {
		return nil, newMCPError(ErrorCodeInvalidParams, "missing required parameter", "id and task_type are required")
	}

	sample := types.MetricSample{
		TaskType:     taskType,
		Accuracy:     getFloatDefault(args, "accuracy", 0),
		LatencyMs:    getFloatDefault(args, "latency_ms", 0),
		Efficiency:   getFloatDefault(args, "efficiency", 0),
		Satisfaction: getFloatDefault(args, "satisfaction", 0),
		Won:          getBoolDefault(args, "won", false),
		MeasuredAt:   time.Now(),
	}
	if v, present := getFloatOptional(args, "collaboration_score"); present {
		sample.CollaborationScore = &v
	}
	if v, present := getFloatOptional(args, "innovation_score"); present {
		sample.InnovationScore = &v
	}

	significant, err := s.registry.UpdatePerformance(id, sample)
	if err != nil {
		return nil, domainError(err)
	}

	mod, getErr := s.registry.Get(id)
	if getErr == nil {
		if err := s.catalog.Upsert(ctx, mod); err != nil {
			log.Printf("catalog upsert failed for %s: %v", id, err)
		}
	}

	response := map[string]interface{}{
		"id":                 id,
		"task_type":          taskType,
		"significant_change": significant,
		"cache_invalidated":  significant,
	}
	return mcp.NewToolResultText(formatJSON(response)), nil
}

// handleRemoveModule handles the remove_module tool.
func (s *Server) handleRemoveModule(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", "expected object arguments")
	}

	id := getStringDefault(args, "id", "")
	if id == "" {
		return nil, newMCPError(ErrorCodeInvalidParams, "missing required parameter", "id is required")
	}

	removed := s.registry.Remove(id)
	if removed {
		if err := s.catalog.Delete(ctx, id); err != nil {
			log.Printf("catalog delete failed for %s: %v", id, err)
		}
	}

	response := map[string]interface{}{
		"id":      id,
		"removed": removed,
	}
	return mcp.NewToolResultText(formatJSON(response)), nil
}

// handleReportHostHealth handles the report_host_health tool.
func (s *Server) handleReportHostHealth(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", "expected object arguments")
	}

	host := getStringDefault(args, "host", "")
	if host == "" {
		return nil, newMCPError(ErrorCodeInvalidParams, "missing required parameter", "host is required")
	}

	s.health.Set(host, health.HostStatus{
		Online:         getBoolDefault(args, "online", false),
		ResponseTimeMs: getFloatDefault(args, "response_time_ms", 0),
	})

	response := map[string]interface{}{
		"host":        host,
		"known_hosts": s.health.Len(),
	}
	return mcp.NewToolResultText(formatJSON(response)), nil
}

// handleGetStatus handles the get_status tool.
func (s *Server) handleGetStatus(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	persisted, err := s.catalog.Count(ctx)
	if err != nil {
		return nil, newMCPError(ErrorCodeInternal, "failed to count catalog", err.Error())
	}

	response := map[string]interface{}{
		"server":             ServerName,
		"version":            ServerVersion,
		"modules":            s.registry.Len(),
		"persisted_modules":  persisted,
		"index_size":         s.index.Size(),
		"index_dimension":    s.index.Dimension(),
		"cached_result_sets": s.searcher.Cache().Len(),
		"known_hosts":        s.health.Len(),
		"embedding_provider": s.provider.Name(),
		"storage_mode":       catalog.BuildMode,
	}
	return mcp.NewToolResultText(formatJSON(response)), nil
}

// queryFromArgs builds a search query from tool arguments, resolving a
// preset name into explicit weights when one is given.
func (s *Server) queryFromArgs(args map[string]interface{}) (types.SearchQuery, *MCPError) {
	query := types.SearchQuery{
		Requirements: types.Requirements{
			PrimarySkills:        getStringSlice(args, "primary_skills"),
			SecondarySkills:      getStringSlice(args, "secondary_skills"),
			Description:          getStringDefault(args, "description", ""),
			ProficiencyThreshold: getFloatDefault(args, "proficiency_threshold", 0),
			Specialization:       getStringDefault(args, "specialization", ""),
		},
		Constraints: types.Constraints{
			MaxLatencyMs:              getFloatDefault(args, "max_latency_ms", 0),
			ExcludedIDs:               getStringSlice(args, "excluded_ids"),
			RequiredCompatibilityTags: getStringSlice(args, "required_tags"),
			MaxResults:                getIntDefault(args, "max_results", 10),
			NodeAffinity:              getStringDefault(args, "node_affinity", ""),
		},
	}

	if raw, ok := args["weights"].(map[string]interface{}); ok {
		query.Weights = types.Weights{
			Similarity:   getFloatDefault(raw, "similarity", 0),
			Performance:  getFloatDefault(raw, "performance", 0),
			Availability: getFloatDefault(raw, "availability", 0),
			Recency:      getFloatDefault(raw, "recency", 0),
			Community:    getFloatDefault(raw, "community", 0),
		}
	} else if preset := getStringDefault(args, "preset", ""); preset != "" {
		weights, found := s.scorer.Preset(preset)
		if !found {
			return types.SearchQuery{}, newMCPError(ErrorCodeInvalidParams, "unknown weight preset",
				fmt.Sprintf("%q is not one of %s, %s, %s", preset,
					scorer.PresetBalanced, scorer.PresetPerformance, scorer.PresetSimilarity))
		}
		query.Weights = weights
	}
	return query, nil
}

// renderResults flattens ranked results for JSON output.
func renderResults(results []types.SearchResult) []map[string]interface{} {
	rendered := make([]map[string]interface{}, 0, len(results))
	for _, r := range results {
		entry := map[string]interface{}{
			"rank":            r.Rank,
			"id":              r.Module.ID,
			"name":            r.Module.Name,
			"version":         r.Module.Version,
			"specialization":  r.Module.Specialization,
			"host":            r.Module.HostLocation,
			"composite_score": r.CompositeScore,
			"scores": map[string]interface{}{
				"similarity":   r.Scores.Similarity,
				"performance":  r.Scores.Performance,
				"availability": r.Scores.Availability,
				"recency":      r.Scores.Recency,
				"community":    r.Scores.Community,
			},
			"rationale":            r.Rationale,
			"estimated_latency_ms": r.EstimatedLatencyMs,
		}
		if len(r.CompatibilityWarnings) > 0 {
			entry["warnings"] = r.CompatibilityWarnings
		}
		rendered = append(rendered, entry)
	}
	return rendered
}

// formatJSON formats a response map as indented JSON.
func formatJSON(data map[string]interface{}) string {
	out, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Sprintf(`{"error": "failed to format response: %v"}`, err)
	}
	return string(out)
}

// Argument extraction helpers. MCP arguments arrive as generic JSON, so
// numbers are float64 regardless of the schema's intent.

func getStringDefault(args map[string]interface{}, key, def string) string {
	if v, ok := args[key].(string); ok {
		return v
	}
	return def
}

func getBoolDefault(args map[string]interface{}, key string, def bool) bool {
	if v, ok := args[key].(bool); ok {
		return v
	}
	return def
}

func getFloatDefault(args map[string]interface{}, key string, def float64) float64 {
	if v, ok := args[key].(float64); ok {
		return v
	}
	return def
}

func getFloatOptional(args map[string]interface{}, key string) (float64, bool) {
	v, ok := args[key].(float64)
	return v, ok
}

func getIntDefault(args map[string]interface{}, key string, def int) int {
	if v, ok := args[key].(float64); ok {
		return int(v)
	}
	return def
}

func getStringSlice(args map[string]interface{}, key string) []string {
	raw, ok := args[key].([]interface{})
	if !ok {
		return nil
	}
	out := make([]string, 0, len(raw))
	for _, item := range raw {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func getFloatSlice(args map[string]interface{}, key string) []float64 {
	raw, ok := args[key].([]interface{})
	if !ok {
		return nil
	}
	out := make([]float64, 0, len(raw))
	for _, item := range raw {
		if f, ok := item.(float64); ok {
			out = append(out, f)
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}
