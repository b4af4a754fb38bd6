// Package mcp exposes the build status store to MCP clients over stdio.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"jenkins-notify-bot/src/contracts"
	"jenkins-notify-bot/src/store"
)

// Server is the MCP server for the notify bot.
type Server struct {
	mcpServer *server.MCPServer
	store     store.Store
	subs      []contracts.Subscription
}

// NewServer creates a new MCP server reading from st.
func NewServer(st store.Store, subs []contracts.Subscription, version string) *Server {
	s := server.NewMCPServer(
		"jenkins-notify-bot",
		version,
		server.WithToolCapabilities(true),
	)

	srv := &Server{
		mcpServer: s,
		store:     st,
		subs:      subs,
	}
	srv.registerTools()

	return srv
}

// registerTools registers all available tools.
func (s *Server) registerTools() {
	listTool := mcp.NewTool("list_build_status",
		mcp.WithDescription("List the last known build status of every Jenkins job the bot has seen, sorted by job name."),
		mcp.WithString("status",
			mcp.Description("Only return jobs whose last status equals this value (SUCCESS, FAILURE, UNSTABLE, ABORTED, NOT_BUILT)"),
		),
		mcp.WithBoolean("failing_only",
			mcp.Description("Only return jobs whose last build failed or was unstable"),
		),
	)

	getTool := mcp.NewTool("get_build_status",
		mcp.WithDescription("Get the last known build status of one Jenkins job."),
		mcp.WithString("job",
			mcp.Required(),
			mcp.Description("Jenkins job name"),
		),
	)

	subsTool := mcp.NewTool("list_subscriptions",
		mcp.WithDescription("List the notification subscriptions: which jobs notify which Chatwork rooms under which policy."),
	)

	s.mcpServer.AddTool(listTool, s.handleListBuildStatus)
	s.mcpServer.AddTool(getTool, s.handleGetBuildStatus)
	s.mcpServer.AddTool(subsTool, s.handleListSubscriptions)
}

// Run starts the MCP server on stdio.
func (s *Server) Run() error {
	return server.ServeStdio(s.mcpServer)
}

func (s *Server) handleListBuildStatus(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var filter contracts.BuildResult
	if raw := request.GetString("status", ""); raw != "" {
		parsed, err := contracts.ParseBuildResult(strings.ToUpper(raw))
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		filter = parsed
	}
	failingOnly := request.GetBool("failing_only", false)

	statuses, err := s.store.Load(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to load build statuses: %v", err)), nil
	}

	list := StatusList{Statuses: []StatusEntry{}}
	for _, st := range statuses {
		list.Total++
		if st.LastStatus.IsFailing() {
			list.Failing++
		}
		if filter != contracts.ResultUnknown && st.LastStatus != filter {
			continue
		}
		if failingOnly && !st.LastStatus.IsFailing() {
			continue
		}
		list.Statuses = append(list.Statuses, toEntry(st))
	}
	sort.Slice(list.Statuses, func(i, j int) bool {
		return list.Statuses[i].JobName < list.Statuses[j].JobName
	})

	return jsonResult(list)
}

func (s *Server) handleGetBuildStatus(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	job := request.GetString("job", "")
	if job == "" {
		return mcp.NewToolResultError("job parameter is required"), nil
	}

	statuses, err := s.store.Load(ctx)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to load build statuses: %v", err)), nil
	}

	st, ok := statuses[job]
	if !ok {
		return mcp.NewToolResultError(fmt.Sprintf("job not found: %s", job)), nil
	}
	return jsonResult(toEntry(st))
}

func (s *Server) handleListSubscriptions(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	infos := make([]SubscriptionInfo, 0, len(s.subs))
	for _, sub := range s.subs {
		infos = append(infos, SubscriptionInfo{
			Name:   sub.Name,
			Policy: sub.Policy.String(),
			Jobs:   sub.Jobs,
			Rooms:  sub.Rooms,
		})
	}
	return jsonResult(infos)
}

func jsonResult(v any) (*mcp.CallToolResult, error) {
	jsonBytes, err := json.Marshal(v)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to marshal response: %v", err)), nil
	}
	return mcp.NewToolResultText(string(jsonBytes)), nil
}
