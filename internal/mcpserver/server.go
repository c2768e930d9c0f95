// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes the hash database to LLM clients via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/starford/hashdb/internal/apperr"
	"github.com/starford/hashdb/internal/recordservice"
)

// Server wraps the MCP server with hashdb tools.
type Server struct {
	mcp *server.MCPServer
	svc *recordservice.Service
}

// New creates a new MCP server with all hashdb tools registered.
func New(svc *recordservice.Service, version string) *Server {
	s := &Server{svc: svc}

	s.mcp = server.NewMCPServer(
		"hashdb",
		version,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("get_page",
		mcp.WithDescription("Get one page of up to 10 records, newest first. "+
			"Page 0 holds the most recently added records."),
		mcp.WithNumber("page", mcp.Description("Page number, default 0")),
		mcp.WithString("tag", mcp.Description("Only return records carrying this tag")),
	), s.getPage)

	s.mcp.AddTool(mcp.NewTool("add_hash",
		mcp.WithDescription("Add a content hash to the database. "+
			"Read the submission contract via get_submission_contract or the "+
			"hashdb://submission-contract resource first."),
		mcp.WithString("hash", mcp.Required(), mcp.Description("CIDv0 hash starting with Qm")),
		mcp.WithString("name", mcp.Required(), mcp.Description("Display name, 1-100 characters")),
		mcp.WithString("tags", mcp.Description("Comma separated tags")),
	), s.addHash)

	s.mcp.AddTool(mcp.NewTool("list_tags",
		mcp.WithDescription("List tags with the number of records carrying each, most used first."),
		mcp.WithNumber("limit", mcp.Description("Maximum number of tags, default 100")),
	), s.listTags)

	s.mcp.AddTool(mcp.NewTool("get_submission_contract",
		mcp.WithDescription("Returns the rules add_hash enforces."),
	), s.getSubmissionContract)

	s.mcp.AddResource(
		mcp.NewResource("hashdb://submission-contract", "Submission Contract",
			mcp.WithResourceDescription("Rules for hashes, names and tags accepted by add_hash."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readSubmissionContract,
	)

	return s
}

// ServeStdio starts the MCP server on stdin/stdout.
func (s *Server) ServeStdio() error {
	return server.ServeStdio(s.mcp)
}

// MCPServer returns the underlying server for testing.
func (s *Server) MCPServer() *server.MCPServer {
	return s.mcp
}

func (s *Server) getPage(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	page := req.GetInt("page", 0)
	res, err := s.svc.Page(ctx, page, req.GetString("tag", ""))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	out, _ := json.MarshalIndent(res, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) addHash(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	hash, err := req.RequireString("hash")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	name, err := req.RequireString("name")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	added, err := s.svc.AddHash(ctx, recordservice.AddInput{
		Hash: hash,
		Name: name,
		Tags: req.GetString("tags", ""),
	})
	if err != nil {
		if errors.Is(err, apperr.ErrInvalid) {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return nil, err
	}
	return mcp.NewToolResultText(fmt.Sprintf("added: %s as record %d", added.Record.Hash, added.Seq)), nil
}

func (s *Server) listTags(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	tags, err := s.svc.Tags(ctx, req.GetInt("limit", 0))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	if len(tags) == 0 {
		return mcp.NewToolResultText("no tags found"), nil
	}
	out, _ := json.MarshalIndent(tags, "", "  ")
	return mcp.NewToolResultText(string(out)), nil
}

func (s *Server) getSubmissionContract(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(SubmissionContract), nil
}

func (s *Server) readSubmissionContract(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      "hashdb://submission-contract",
			MIMEType: "text/markdown",
			Text:     SubmissionContract,
		},
	}, nil
}
