package agent_tools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	mcpserver "github.com/mark3labs/mcp-go/server"

	"github.com/teemow/mailagent/internal/agent"
	"github.com/teemow/mailagent/internal/auth"
	"github.com/teemow/mailagent/internal/server"
	"github.com/teemow/mailagent/internal/tools/common"
)

// Session is the part of *server.Session the tools use.
type Session interface {
	common.Observer
	Status(ctx context.Context) server.Status
	Query(ctx context.Context, prompt string) (*agent.Result, error)
	Reload() error
	Authenticate(ctx context.Context) (*auth.Result, error)
	Logout() error
}

// queryResult is the JSON body returned by gmail_agent_query.
type queryResult struct {
	Response    string             `json:"response"`
	ToolResults []agent.ToolResult `json:"tool_results"`
	Iterations  int                `json:"iterations"`
	Exhausted   bool               `json:"exhausted,omitempty"`
}

// RegisterAgentTools registers the agent tools with the MCP server.
func RegisterAgentTools(s *mcpserver.MCPServer, session Session) {
	queryTool := mcp.NewTool("gmail_agent_query",
		mcp.WithDescription("Carry out a Gmail request written in natural language, e.g. 'summarize my unread emails' or 'draft a reply to Alice'. Returns the agent's answer and the raw results of every Gmail action it ran."),
		mcp.WithString("query",
			mcp.Required(),
			mcp.Description("The request to carry out"),
		),
	)
	s.AddTool(queryTool, common.InstrumentedToolHandler("gmail_agent_query", session, handleQuery(session)))

	statusTool := mcp.NewTool("gmail_agent_status",
		mcp.WithDescription("Report whether credentials are configured and whether a Gmail account is connected"),
	)
	s.AddTool(statusTool, common.InstrumentedToolHandler("gmail_agent_status", session, handleStatus(session)))

	authTool := mcp.NewTool("gmail_agent_authenticate",
		mcp.WithDescription("Connect a Gmail account. Prints an authorization URL to the server's stderr and waits until the user completes it in a browser."),
	)
	s.AddTool(authTool, common.InstrumentedToolHandler("gmail_agent_authenticate", session, handleAuthenticate(session)))

	logoutTool := mcp.NewTool("gmail_agent_logout",
		mcp.WithDescription("Forget the connected Gmail account"),
	)
	s.AddTool(logoutTool, common.InstrumentedToolHandler("gmail_agent_logout", session, handleLogout(session)))
}

func handleQuery(session Session) common.ToolHandler {
	return func(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		args := request.GetArguments()
		query, _ := args["query"].(string)
		if strings.TrimSpace(query) == "" {
			return mcp.NewToolResultError("query is required"), nil
		}

		res, err := session.Query(ctx, query)
		if err != nil {
			return mcp.NewToolResultError(describe(err)), nil
		}

		out := queryResult{
			Response:    res.Response,
			ToolResults: res.ToolResults,
			Iterations:  res.Iterations,
			Exhausted:   res.Exhausted,
		}
		if out.ToolResults == nil {
			out.ToolResults = []agent.ToolResult{}
		}
		data, _ := json.MarshalIndent(out, "", "  ")
		return mcp.NewToolResultText(string(data)), nil
	}
}

func handleStatus(session Session) common.ToolHandler {
	return func(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		data, _ := json.MarshalIndent(session.Status(ctx), "", "  ")
		return mcp.NewToolResultText(string(data)), nil
	}
}

func handleAuthenticate(session Session) common.ToolHandler {
	return func(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		if err := session.Reload(); err != nil {
			return mcp.NewToolResultError(describe(err)), nil
		}
		res, err := session.Authenticate(ctx)
		if err != nil {
			return mcp.NewToolResultError(describe(err)), nil
		}
		if res.AlreadyConnected {
			return mcp.NewToolResultText(fmt.Sprintf("Already authenticated (connection %s)", res.ConnectionID)), nil
		}
		return mcp.NewToolResultText(fmt.Sprintf("Authentication successful (connection %s)", res.ConnectionID)), nil
	}
}

func handleLogout(session Session) common.ToolHandler {
	return func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		if err := session.Logout(); err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("Failed to clear authentication: %v", err)), nil
		}
		return mcp.NewToolResultText("Authentication cleared"), nil
	}
}

// describe turns agent and auth errors into guidance for the calling model.
func describe(err error) string {
	var cfgErr *agent.ConfigurationError
	switch {
	case errors.As(err, &cfgErr):
		return fmt.Sprintf("Missing credentials: %s. Set them with `mailagent config set` or the environment.", strings.Join(cfgErr.Missing, ", "))
	case errors.Is(err, agent.ErrNotAuthenticated):
		return "Gmail is not connected. Call gmail_agent_authenticate first."
	case errors.Is(err, auth.ErrAuthTimeout):
		return "Timed out waiting for the user to finish authorization. Call gmail_agent_authenticate again."
	default:
		return err.Error()
	}
}
