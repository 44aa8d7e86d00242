// Package agent implements the conversational buyer agent: a tool-calling
// orchestrator over the chat model, a dispatcher that executes the closed
// tool set against the catalog and inquiry services, and the confirmation
// gate that keeps inquiry submission a deliberate human act.
package agent
