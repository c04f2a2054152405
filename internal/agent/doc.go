// Package agent runs the bounded tool-calling loop that turns one
// natural-language request into Gmail actions and a final answer.
//
// A run seeds a fresh conversation with a system prompt and the user's
// prompt, then alternates model turns and tool executions for at most
// DefaultMaxIterations turns. Tool calls from one turn are executed in order,
// one at a time, and each result is cut to MaxToolResultChars before it is
// handed back to the model. Nothing survives the run.
package agent
