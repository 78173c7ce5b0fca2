// Package docdex indexes documentation fetched from curated link lists
// (llms.txt, sitemaps, or single pages) and serves ranked, snippet-bearing
// search results to an LLM-facing client over the Model Context Protocol.
//
// This package contains domain types and interfaces following Ben Johnson's
// Standard Package Layout. Implementations live in subdirectories named
// after their primary dependency (e.g., sqlite/, http/, mcp/, flock/).
package docdex
