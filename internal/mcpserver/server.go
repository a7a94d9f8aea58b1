// Package mcpserver exposes the catalog tools over the Model Context
// Protocol, either mounted in the tool server or on stdio.
package mcpserver

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"filmscout/internal/logging"
	"filmscout/internal/services"
	"filmscout/internal/tools"
)

const (
	implementationName = "filmscout"
	Version            = "1.0.0"
)

var mediaTypeSchema = map[string]any{
	"type":        "string",
	"enum":        []string{"movie", "tv"},
	"description": "Title type",
}

var yearSchema = map[string]any{
	"type":    "integer",
	"minimum": 1870,
	"maximum": 2100,
}

var idSchema = map[string]any{
	"type":        "integer",
	"minimum":     1,
	"description": "Catalog id as returned by search_title or discover",
}

func definitions() []*mcp.Tool {
	return []*mcp.Tool{
		{
			Name:        tools.ToolSearchTitle,
			Description: "Search movies or TV series by title. Returns at most 10 matches.",
			InputSchema: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"query":    map[string]any{"type": "string", "description": "Title to search for"},
					"type":     mediaTypeSchema,
					"year":     yearSchema,
					"language": map[string]any{"type": "string", "description": "Result language, e.g. en-US"},
				},
				"required": []string{"query"},
			},
		},
		{
			Name:        tools.ToolGetDetails,
			Description: "Full details for one movie or TV series.",
			InputSchema: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"id":   idSchema,
					"type": mediaTypeSchema,
				},
				"required": []string{"id", "type"},
			},
		},
		{
			Name:        tools.ToolGetRecommendations,
			Description: "Up to 10 titles similar to the given one, each with a short reason.",
			InputSchema: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"id":   idSchema,
					"type": mediaTypeSchema,
				},
				"required": []string{"id", "type"},
			},
		},
		{
			Name:        tools.ToolDiscover,
			Description: "Browse titles by genre names, year, original language and sort order. Returns at most 20.",
			InputSchema: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"type": mediaTypeSchema,
					"genre": map[string]any{
						"type":        "array",
						"items":       map[string]any{"type": "string"},
						"description": "Genre names such as Action or Science Fiction; unknown names are ignored",
					},
					"year":     yearSchema,
					"language": map[string]any{"type": "string", "description": "Original language code, e.g. en"},
					"sort_by": map[string]any{
						"type": "string",
						"enum": []string{tools.SortPopularity, tools.SortVoteAverage},
					},
				},
				"required": []string{"type"},
			},
		},
	}
}

// New builds an MCP server with the four catalog tools registered. Call
// statistics are recorded by the tool service itself.
func New(service *tools.Service, logger *slog.Logger) *mcp.Server {
	logger = logging.NewComponentLogger(logger, "mcp")
	server := mcp.NewServer(&mcp.Implementation{
		Name:    implementationName,
		Version: Version,
	}, &mcp.ServerOptions{HasTools: true})

	for _, tool := range definitions() {
		server.AddTool(tool, handler(service, tool.Name, logger))
	}
	return server
}

func handler(service *tools.Service, name string, logger *slog.Logger) mcp.ToolHandler {
	return func(ctx context.Context, req *mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		var args json.RawMessage
		if req != nil && req.Params != nil {
			args = req.Params.Arguments
		}
		result, err := service.Call(ctx, name, args)
		if err != nil {
			return errorResult(tools.Envelope(err)), nil
		}
		payload, err := json.Marshal(result)
		if err != nil {
			logger.Error("encode tool result failed", logging.String(logging.FieldTool, name), logging.Error(err))
			return errorResult(tools.ToolError{
				Kind:    services.KindInternal,
				Message: services.UserMessage(services.KindInternal),
			}), nil
		}
		return &mcp.CallToolResult{
			Content:           []mcp.Content{&mcp.TextContent{Text: string(payload)}},
			StructuredContent: result,
		}, nil
	}
}

func errorResult(envelope tools.ToolError) *mcp.CallToolResult {
	payload, _ := json.Marshal(envelope)
	return &mcp.CallToolResult{
		IsError:           true,
		Content:           []mcp.Content{&mcp.TextContent{Text: string(payload)}},
		StructuredContent: envelope,
	}
}
