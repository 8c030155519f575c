package mcp

import "github.com/mark3labs/mcp-go/mcp"

// searchModulesTool returns the search_modules tool definition.
func searchModulesTool() mcp.Tool {
	return mcp.Tool{
		Name:        "search_modules",
		Description: "Search registered capability modules by required skills and constraints, returning ranked results with per-dimension scores and rationale",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"primary_skills": map[string]interface{}{
					"type":        "array",
					"items":       map[string]interface{}{"type": "string"},
					"description": "Skills the module must cover (drives the embedding)",
				},
				"secondary_skills": map[string]interface{}{
					"type":        "array",
					"items":       map[string]interface{}{"type": "string"},
					"description": "Nice-to-have skills (lower embedding weight)",
				},
				"description": map[string]interface{}{
					"type":        "string",
					"description": "Free-form description of the task the module is needed for",
				},
				"specialization": map[string]interface{}{
					"type":        "string",
					"description": "Preferred specialization domain",
				},
				"proficiency_threshold": map[string]interface{}{
					"type":        "number",
					"description": "Minimum proficiency in [0,1] (default: 0, no filter)",
				},
				"max_results": map[string]interface{}{
					"type":        "number",
					"description": "Maximum number of results to return (default: 10)",
				},
				"max_latency_ms": map[string]interface{}{
					"type":        "number",
					"description": "Flag results whose estimated latency exceeds this many milliseconds",
				},
				"excluded_ids": map[string]interface{}{
					"type":        "array",
					"items":       map[string]interface{}{"type": "string"},
					"description": "Module IDs to exclude from results",
				},
				"required_tags": map[string]interface{}{
					"type":        "array",
					"items":       map[string]interface{}{"type": "string"},
					"description": "Compatibility tags every result must carry",
				},
				"node_affinity": map[string]interface{}{
					"type":        "string",
					"description": "Preferred host location (soft preference, never filters)",
				},
				"preset": map[string]interface{}{
					"type":        "string",
					"description": "Named weight preset: balanced, performance, or similarity (default: balanced)",
				},
				"weights": map[string]interface{}{
					"type":        "object",
					"description": "Explicit scoring weights (similarity, performance, availability, recency, community); overrides preset",
				},
			},
		},
	}
}

// assembleModulesTool returns the assemble_modules tool definition.
func assembleModulesTool() mcp.Tool {
	return mcp.Tool{
		Name:        "assemble_modules",
		Description: "Search and then assemble a named team of modules using a selection strategy (best-match, diverse-ensemble, or specialist-stack)",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"name": map[string]interface{}{
					"type":        "string",
					"description": "Name for the assembled team",
				},
				"strategy": map[string]interface{}{
					"type":        "string",
					"description": "Selection strategy: best-match, diverse-ensemble, or specialist-stack (default: best-match)",
				},
				"team_size": map[string]interface{}{
					"type":        "number",
					"description": "Maximum team size (default depends on strategy)",
				},
				"primary_skills": map[string]interface{}{
					"type":        "array",
					"items":       map[string]interface{}{"type": "string"},
					"description": "Skills the team must cover",
				},
				"secondary_skills": map[string]interface{}{
					"type":        "array",
					"items":       map[string]interface{}{"type": "string"},
					"description": "Nice-to-have skills",
				},
				"description": map[string]interface{}{
					"type":        "string",
					"description": "Free-form description of the task",
				},
				"specialization": map[string]interface{}{
					"type":        "string",
					"description": "Preferred specialization domain",
				},
				"proficiency_threshold": map[string]interface{}{
					"type":        "number",
					"description": "Minimum proficiency in [0,1]",
				},
				"required_tags": map[string]interface{}{
					"type":        "array",
					"items":       map[string]interface{}{"type": "string"},
					"description": "Compatibility tags every candidate must carry",
				},
				"excluded_ids": map[string]interface{}{
					"type":        "array",
					"items":       map[string]interface{}{"type": "string"},
					"description": "Module IDs to exclude",
				},
				"candidate_pool": map[string]interface{}{
					"type":        "number",
					"description": "How many ranked candidates to consider before selection (default: 20)",
				},
				"preset": map[string]interface{}{
					"type":        "string",
					"description": "Named weight preset for the underlying search",
				},
			},
			Required: []string{"name"},
		},
	}
}

// registerModuleTool returns the register_module tool definition.
func registerModuleTool() mcp.Tool {
	return mcp.Tool{
		Name:        "register_module",
		Description: "Register a capability module. The capability embedding is computed from skills and description unless an explicit vector is provided",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"id": map[string]interface{}{
					"type":        "string",
					"description": "Module ID (generated if omitted)",
				},
				"name": map[string]interface{}{
					"type":        "string",
					"description": "Human-readable module name",
				},
				"version": map[string]interface{}{
					"type":        "string",
					"description": "Semantic version, e.g. 1.2.0",
				},
				"specialization": map[string]interface{}{
					"type":        "string",
					"description": "Specialization domain",
				},
				"proficiency": map[string]interface{}{
					"type":        "number",
					"description": "Self-reported proficiency in [0,1]",
				},
				"skills": map[string]interface{}{
					"type":        "array",
					"items":       map[string]interface{}{"type": "string"},
					"description": "Skills the module provides (used to compute the embedding)",
				},
				"description": map[string]interface{}{
					"type":        "string",
					"description": "Capability description (used to compute the embedding)",
				},
				"embedding": map[string]interface{}{
					"type":        "array",
					"items":       map[string]interface{}{"type": "number"},
					"description": "Explicit capability embedding (skips the embedding provider)",
				},
				"host_location": map[string]interface{}{
					"type":        "string",
					"description": "Host node the module runs on",
				},
				"compatibility_tags": map[string]interface{}{
					"type":        "array",
					"items":       map[string]interface{}{"type": "string"},
					"description": "Tags describing environments this module works with",
				},
				"provenance": map[string]interface{}{
					"type":        "string",
					"description": "Where the module came from",
				},
				"community_rating": map[string]interface{}{
					"type":        "number",
					"description": "Community rating in [1,5] (default: 3)",
				},
			},
			Required: []string{"name", "version", "specialization"},
		},
	}
}

// updatePerformanceTool returns the update_performance tool definition.
func updatePerformanceTool() mcp.Tool {
	return mcp.Tool{
		Name:        "update_performance",
		Description: "Record a measured performance sample for a module. Metrics merge into running averages; significant changes invalidate cached search results",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"id": map[string]interface{}{
					"type":        "string",
					"description": "Module ID",
				},
				"task_type": map[string]interface{}{
					"type":        "string",
					"description": "Task category the sample was measured on",
				},
				"accuracy": map[string]interface{}{
					"type":        "number",
					"description": "Measured accuracy in [0,1]",
				},
				"latency_ms": map[string]interface{}{
					"type":        "number",
					"description": "Measured latency in milliseconds",
				},
				"efficiency": map[string]interface{}{
					"type":        "number",
					"description": "Measured efficiency in [0,1]",
				},
				"satisfaction": map[string]interface{}{
					"type":        "number",
					"description": "Measured satisfaction in [0,1]",
				},
				"won": map[string]interface{}{
					"type":        "boolean",
					"description": "Whether the module won a competitive evaluation",
				},
				"collaboration_score": map[string]interface{}{
					"type":        "number",
					"description": "Collaboration score in [0,1]",
				},
				"innovation_score": map[string]interface{}{
					"type":        "number",
					"description": "Innovation score in [0,1]",
				},
			},
			Required: []string{"id", "task_type"},
		},
	}
}

// removeModuleTool returns the remove_module tool definition.
func removeModuleTool() mcp.Tool {
	return mcp.Tool{
		Name:        "remove_module",
		Description: "Remove a module from the registry, vector index, catalog, and any cached search results",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"id": map[string]interface{}{
					"type":        "string",
					"description": "Module ID to remove",
				},
			},
			Required: []string{"id"},
		},
	}
}

// reportHostHealthTool returns the report_host_health tool definition.
func reportHostHealthTool() mcp.Tool {
	return mcp.Tool{
		Name:        "report_host_health",
		Description: "Report the health of a host node. Availability scoring uses the most recent report per host",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"host": map[string]interface{}{
					"type":        "string",
					"description": "Host location identifier",
				},
				"online": map[string]interface{}{
					"type":        "boolean",
					"description": "Whether the host is reachable",
				},
				"response_time_ms": map[string]interface{}{
					"type":        "number",
					"description": "Observed response time in milliseconds",
				},
			},
			Required: []string{"host", "online"},
		},
	}
}

// getStatusTool returns the get_status tool definition.
func getStatusTool() mcp.Tool {
	return mcp.Tool{
		Name:        "get_status",
		Description: "Get engine status: registered module count, index size, cache entries, embedding provider, and storage build mode",
		InputSchema: mcp.ToolInputSchema{
			Type:       "object",
			Properties: map[string]interface{}{},
		},
	}
}
