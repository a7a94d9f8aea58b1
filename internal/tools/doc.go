// Package tools implements the four catalog tool operations exposed to agents:
// search_title, get_details, get_recommendations, and discover.
//
// Each adapter validates its arguments before any network access, calls the
// catalog client, and normalizes the provider JSON into a fixed schema.
// Service.Call is the transport-agnostic entry point shared by the HTTP tool
// server and the MCP server; it decodes raw JSON arguments, records call
// statistics, and returns failures that Envelope renders as
// {"error": kind, "message": text}.
package tools
