// Package agent contains ready-to-register core.Agent implementations
// wrapping the collaborator types a flow typically coordinates:
//
//  1. Arbitrary Go functions and rule tables (FunctionAgent)
//  2. HTTP retrieval and notification calls (HTTPAgent)
//  3. LLM-backed content generation (GeneratorAgent)
//  4. Fixed pacing delays (WaitAgent)
//
// All implementations embed BaseAgent for identity plumbing and follow the
// adapter contract: they respect context cancellation and report failures
// as returned errors, leaving the conversion into Failed outputs to the
// orchestrator's dispatch boundary.
package agent
