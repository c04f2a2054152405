// Package llm adapts an Azure OpenAI chat-completions deployment to the
// agent's Model interface.
package llm
