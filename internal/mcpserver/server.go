// Package mcpserver provides an MCP (Model Context Protocol) server
// that exposes zolapub tools for LLM integration via stdio transport.
package mcpserver

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/stella-dust/zolapub/internal/blogservice"
	"github.com/stella-dust/zolapub/internal/models"
)

// ArticleFormatURI is the resource carrying ArticleFormatContract.
const ArticleFormatURI = "zolapub://article-format"

// Server wraps the MCP server with zolapub tools.
type Server struct {
	mcp    *server.MCPServer
	svc    *blogservice.Service
	images *imageSource
}

// New creates a new MCP server with all zolapub tools registered.
func New(svc *blogservice.Service, version string) *Server {
	s := &Server{svc: svc, images: newImageSource()}

	s.mcp = server.NewMCPServer(
		"zolapub",
		version,
		server.WithToolCapabilities(false),
		server.WithResourceCapabilities(false, false),
	)

	s.mcp.AddTool(mcp.NewTool("sync_push",
		mcp.WithDescription("Copy vault articles and images to the Zola site tree. "+
			"Only changed articles are written; existing site images are never replaced."),
	), s.syncPush)

	s.mcp.AddTool(mcp.NewTool("sync_pull",
		mcp.WithDescription("Copy site articles and images back to the vault. Requires two-way sync mode."),
	), s.syncPull)

	s.mcp.AddTool(mcp.NewTool("list_articles",
		mcp.WithDescription("List catalogued articles with title, date and tags, newest first."),
		mcp.WithString("tree", mcp.Description("vault (default) or site")),
		mcp.WithString("tag", mcp.Description("Only articles carrying this tag")),
		mcp.WithBoolean("drafts", mcp.Description("Include draft articles")),
	), s.listArticles)

	s.mcp.AddTool(mcp.NewTool("list_tags",
		mcp.WithDescription("List tags with the number of articles using each."),
		mcp.WithString("tree", mcp.Description("vault (default) or site")),
	), s.listTags)

	s.mcp.AddTool(mcp.NewTool("search_articles",
		mcp.WithDescription("Full-text search through article titles, tags and bodies."),
		mcp.WithString("query", mcp.Required(), mcp.Description("Search query string")),
		mcp.WithString("tree", mcp.Description("vault (default) or site")),
	), s.searchArticles)

	s.mcp.AddTool(mcp.NewTool("read_activity",
		mcp.WithDescription("Read the most recent activity log entries, newest first."),
		mcp.WithNumber("limit", mcp.Description("Maximum entries (default 20)")),
	), s.readActivity)

	s.mcp.AddTool(mcp.NewTool("new_article",
		mcp.WithDescription("Create a draft article in the vault with a frontmatter block. "+
			"Read the contract first via get_article_contract or the "+ArticleFormatURI+" resource."),
		mcp.WithString("title", mcp.Required(), mcp.Description("Article title; the file name is derived from it")),
		mcp.WithString("tags", mcp.Description("Comma-separated tags")),
	), s.newArticle)

	s.mcp.AddTool(mcp.NewTool("add_image",
		mcp.WithDescription("Download an image (http/https URL or base64 data: URI) into the vault images directory. "+
			"Returns the wiki embed to paste into an article."),
		mcp.WithString("url", mcp.Required(), mcp.Description("Image URL or data URI")),
		mcp.WithString("filename", mcp.Description("Target file name (derived from the URL when empty)")),
	), s.addImage)

	s.mcp.AddTool(mcp.NewTool("get_article_contract",
		mcp.WithDescription("Returns the article format contract. "+
			"Call this before writing articles to ensure correct structure."),
	), s.getArticleContract)

	s.mcp.AddResource(
		mcp.NewResource(ArticleFormatURI, "Article Format Contract",
			mcp.WithResourceDescription("Frontmatter and image conventions all vault articles must follow."),
			mcp.WithMIMEType("text/markdown"),
		),
		s.readArticleFormatResource,
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

func jsonResult(v any) *mcp.CallToolResult {
	out, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError(err.Error())
	}
	return mcp.NewToolResultText(string(out))
}

func treeArg(req mcp.CallToolRequest) (models.Tree, bool) {
	switch t := models.Tree(req.GetString("tree", "")); t {
	case "":
		return models.TreeVault, true
	case models.TreeVault, models.TreeSite:
		return t, true
	default:
		return "", false
	}
}

func (s *Server) syncPush(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	report, err := s.svc.Push(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(report.String()), nil
}

func (s *Server) syncPull(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	report, err := s.svc.Pull(ctx)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return mcp.NewToolResultText(report.String()), nil
}

func (s *Server) listArticles(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	t, ok := treeArg(req)
	if !ok {
		return mcp.NewToolResultError("tree must be vault or site"), nil
	}
	rows, err := s.svc.Articles(ctx, blogservice.ArticleQuery{
		Tree:   t,
		Tag:    req.GetString("tag", ""),
		Drafts: req.GetBool("drafts", false),
	})
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(rows), nil
}

func (s *Server) listTags(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	t, ok := treeArg(req)
	if !ok {
		return mcp.NewToolResultError("tree must be vault or site"), nil
	}
	tags, err := s.svc.Tags(ctx, t)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(tags), nil
}

func (s *Server) searchArticles(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query, err := req.RequireString("query")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	t, ok := treeArg(req)
	if !ok {
		return mcp.NewToolResultError("tree must be vault or site"), nil
	}
	results, err := s.svc.Search(ctx, t, query, 20)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(results), nil
}

func (s *Server) readActivity(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	limit := req.GetInt("limit", 20)
	if limit <= 0 {
		limit = 20
	}
	return jsonResult(s.svc.Activity(limit)), nil
}

func (s *Server) newArticle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	title, err := req.RequireString("title")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	var tags []string
	for _, tag := range strings.Split(req.GetString("tags", ""), ",") {
		if tag = strings.TrimSpace(tag); tag != "" {
			tags = append(tags, tag)
		}
	}
	res, err := s.svc.NewArticle(ctx, title, tags)
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	return jsonResult(res), nil
}

func (s *Server) getArticleContract(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(ArticleFormatContract), nil
}

func (s *Server) readArticleFormatResource(_ context.Context, _ mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      ArticleFormatURI,
			MIMEType: "text/markdown",
			Text:     ArticleFormatContract,
		},
	}, nil
}
