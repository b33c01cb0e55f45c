// Package mcp exposes pages as Model Context Protocol tools, so an agent can
// inspect scenes and move or recolor objects while browsers watch.
package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	"github.com/aretw0/threeview"
	"github.com/aretw0/threeview/internal/presentation/graph"
	"github.com/aretw0/threeview/internal/sanitize"
	"github.com/aretw0/threeview/pkg/domain"
	"github.com/aretw0/threeview/pkg/scene"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// Pages is the page access the tools need. *page.Manager implements it.
type Pages interface {
	Get(pageID string) (*scene.View, error)
	Pages() []string
	WithLock(ctx context.Context, pageID string, fn func(context.Context, *scene.View) error) error
}

// Server wraps the page manager and exposes it as an MCP server.
type Server struct {
	pages     Pages
	mcpServer *server.MCPServer
}

// NewServer creates a new MCP server instance.
func NewServer(pages Pages) *Server {
	s := &Server{
		pages: pages,
		mcpServer: server.NewMCPServer("threeview-mcp", strings.TrimSpace(threeview.Version),
			server.WithToolCapabilities(false),
			server.WithResourceCapabilities(false, false),
		),
	}
	s.registerTools()
	s.registerResources()
	return s
}

// ServeStdio serves the tools on Stdin/Stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcpServer)
}

// SSEHandler returns an HTTP handler serving <basePath>/sse and
// <basePath>/message. baseURL is the externally visible origin.
func (s *Server) SSEHandler(baseURL, basePath string) http.Handler {
	return server.NewSSEServer(s.mcpServer,
		server.WithBaseURL(baseURL),
		server.WithStaticBasePath(basePath),
	)
}

func (s *Server) registerTools() {
	s.mcpServer.AddTool(mcp.NewTool("list_pages",
		mcp.WithDescription("List the pages that currently hold a scene."),
	), s.handleListPages)

	s.mcpServer.AddTool(mcp.NewTool("inspect_scene",
		mcp.WithDescription("Return every object of a page in construction order: id, type, parent, args, material and position."),
		mcp.WithString("page_id", mcp.Required(), mcp.Description("Page identifier")),
	), s.handleInspectScene)

	s.mcpServer.AddTool(mcp.NewTool("move_object",
		mcp.WithDescription("Move an object. Connected browsers see the change immediately."),
		mcp.WithString("page_id", mcp.Required(), mcp.Description("Page identifier")),
		mcp.WithString("object_id", mcp.Required(), mcp.Description("Object identifier")),
		mcp.WithNumber("x", mcp.Required()),
		mcp.WithNumber("y", mcp.Required()),
		mcp.WithNumber("z", mcp.Required()),
	), s.handleMoveObject)

	s.mcpServer.AddTool(mcp.NewTool("set_material",
		mcp.WithDescription("Change the color and opacity of an object."),
		mcp.WithString("page_id", mcp.Required(), mcp.Description("Page identifier")),
		mcp.WithString("object_id", mcp.Required(), mcp.Description("Object identifier")),
		mcp.WithString("color", mcp.Required(), mcp.Description("CSS color, e.g. #ff0000")),
		mcp.WithNumber("opacity", mcp.Description("Opacity between 0 and 1 (default 1)")),
	), s.handleSetMaterial)
}

func (s *Server) handleListPages(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	jsonBytes, _ := json.Marshal(s.pages.Pages())
	return mcp.NewToolResultText(string(jsonBytes)), nil
}

func (s *Server) handleInspectScene(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	pageID, err := requireText(request, "page_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	view, err := s.pages.Get(pageID)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("inspect failed: %v", err)), nil
	}
	jsonBytes, _ := json.Marshal(view.Snapshot())
	return mcp.NewToolResultText(string(jsonBytes)), nil
}

func (s *Server) handleMoveObject(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	var pos domain.Position
	var err error
	if pos.X, err = request.RequireFloat("x"); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if pos.Y, err = request.RequireFloat("y"); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if pos.Z, err = request.RequireFloat("z"); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	return s.mutate(ctx, request, func(obj *scene.Object) {
		obj.Move(pos.X, pos.Y, pos.Z)
	})
}

func (s *Server) handleSetMaterial(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	color, err := requireText(request, "color")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	opacity := request.GetFloat("opacity", domain.DefaultOpacity)
	if opacity < 0 || opacity > 1 {
		return mcp.NewToolResultError(fmt.Sprintf("opacity %v out of range [0, 1]", opacity)), nil
	}

	return s.mutate(ctx, request, func(obj *scene.Object) {
		obj.Material(color, opacity)
	})
}

// mutate applies fn to the requested object under the page lock and
// returns the object's resulting state.
func (s *Server) mutate(ctx context.Context, request mcp.CallToolRequest, fn func(*scene.Object)) (*mcp.CallToolResult, error) {
	pageID, err := requireText(request, "page_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	objectID, err := requireText(request, "object_id")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if _, err := s.pages.Get(pageID); err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	var snap domain.ObjectSnapshot
	err = s.pages.WithLock(ctx, pageID, func(ctx context.Context, v *scene.View) error {
		obj, err := v.Lookup(objectID)
		if err != nil {
			return err
		}
		fn(obj)
		snap = obj.Snapshot()
		return nil
	})
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	jsonBytes, _ := json.Marshal(snap)
	return mcp.NewToolResultText(string(jsonBytes)), nil
}

// requireText reads a required string argument and sanitizes it.
func requireText(request mcp.CallToolRequest, key string) (string, error) {
	v, err := request.RequireString(key)
	if err != nil {
		return "", err
	}
	clean, err := sanitize.Text(v)
	if err != nil {
		return "", fmt.Errorf("%s: %w", key, err)
	}
	return clean, nil
}

func (s *Server) registerResources() {
	s.mcpServer.AddResourceTemplate(mcp.NewResourceTemplate("threeview://pages/{page_id}/graph", "Scene graph (Mermaid)",
		mcp.WithTemplateMIMEType("text/plain"),
	), func(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
		uri := request.Params.URI
		pageID := strings.TrimSuffix(strings.TrimPrefix(uri, "threeview://pages/"), "/graph")
		view, err := s.pages.Get(pageID)
		if err != nil {
			return nil, fmt.Errorf("failed to inspect page: %w", err)
		}
		return []mcp.ResourceContents{
			mcp.TextResourceContents{
				URI:      uri,
				MIMEType: "text/plain",
				Text:     graph.GenerateMermaid(view.Snapshot(), nil),
			},
		}, nil
	})
}
