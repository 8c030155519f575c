// Package mcp implements the Model Context Protocol (MCP) server for CapMatch.
//
// The MCP server exposes the capability-module retrieval engine to AI
// orchestrators as seven tools:
//   - search_modules: Rank registered modules against a skill requirement
//   - assemble_modules: Search and compose a bounded team via a strategy
//   - register_module: Add a module (embedding computed or supplied)
//   - update_performance: Merge a measured sample into a module's metrics
//   - remove_module: Drop a module from registry, index, catalog, and cache
//   - report_host_health: Feed the availability snapshot host-by-host
//   - get_status: Engine counters and build information
//
// # Protocol Overview
//
// MCP is a JSON-RPC 2.0 protocol over stdio transport:
//
//	Client → Server: {"method": "tools/call", "params": {...}}
//	Server → Client: {"result": {...}}
//
// Stdout carries protocol messages only; all logging goes to stderr.
//
// # Composition
//
// NewServer wires the full engine: the sqlite catalog is opened and its
// records seed the in-memory registry and vector index, a single
// embedding provider (with its cache) is shared by registration and
// search, and the result cache subscribes to registry mutations so
// removals and significant performance changes invalidate exactly the
// cached result sets that name the affected module.
//
// # Error Mapping
//
// Engine sentinel errors map onto JSON-RPC error codes: validation
// failures use -32602 (invalid params), unknown modules -32001,
// duplicate registrations -32002, unrecognized assembly strategies
// -32003, and embedding dimension mismatches -32004. Everything else
// is -32603 (internal).
package mcp
