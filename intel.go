// Package intel provides a competitive-intelligence ingestion pipeline.
// It fetches news articles, extracts clean text, asks a language model for
// a structured analysis (entities, summary, classification, sentiment) and
// persists the combined record for filtered, paginated retrieval.
//
// This package contains domain types and interfaces following Ben Johnson's
// Standard Package Layout. Implementations live in subdirectories named
// after their primary dependency (e.g., sqlite/, mongo/, gemini/, rod/).
package intel
