package mcp

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/google/jsonschema-go/jsonschema"
	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/rpggio/chainledger/internal/transport"
)

const datePattern = `^\d{4}-\d{2}-\d{2}$`

func object(required []string, props map[string]*jsonschema.Schema) *jsonschema.Schema {
	if props == nil {
		props = map[string]*jsonschema.Schema{}
	}
	return &jsonschema.Schema{Type: "object", Properties: props, Required: required}
}

func integer(description string) *jsonschema.Schema {
	return &jsonschema.Schema{Type: "integer", Description: description}
}

func str(description string) *jsonschema.Schema {
	return &jsonschema.Schema{Type: "string", Description: description}
}

func date(description string) *jsonschema.Schema {
	return &jsonschema.Schema{Type: "string", Description: description + " (YYYY-MM-DD)", Pattern: datePattern}
}

func amount(description string) *jsonschema.Schema {
	return &jsonschema.Schema{Type: "string", Description: description + " as a decimal string, e.g. \"1250.50\"", Pattern: `^-?\d+(\.\d+)?$`}
}

func entryProps(extra map[string]*jsonschema.Schema) map[string]*jsonschema.Schema {
	props := map[string]*jsonschema.Schema{
		"week_number": integer("ISO-8601 week number of week_start (1-53)"),
		"week_start":  date("Monday the week starts on"),
		"week_end":    date("Sunday the week ends on"),
		"revenue":     amount("Revenue for the week"),
		"units_sold":  integer("Units sold during the week"),
	}
	for k, v := range extra {
		props[k] = v
	}
	return props
}

var entryRequired = []string{"week_number", "week_start", "week_end", "revenue", "units_sold"}

// buildToolCatalog returns all available MCP tools
func buildToolCatalog() []*sdkmcp.Tool {
	storeRange := object([]string{"store_id", "start", "end"}, map[string]*jsonschema.Schema{
		"store_id": integer("Store ID"),
		"start":    date("First day of the range"),
		"end":      date("Last day of the range"),
	})

	return []*sdkmcp.Tool{
		// Stores
		{
			Name:        "create_store",
			Description: "Register a store; periods can only be recorded for registered stores",
			InputSchema: object([]string{"code", "name"}, map[string]*jsonschema.Schema{
				"id":   integer("Store ID (optional, next free ID when omitted)"),
				"code": str("Short unique store code"),
				"name": str("Store display name"),
			}),
		},
		{
			Name:        "list_stores",
			Description: "List the tenant's stores",
			InputSchema: object(nil, nil),
		},
		{
			Name:        "get_store",
			Description: "Get a store by ID",
			InputSchema: object([]string{"id"}, map[string]*jsonschema.Schema{"id": integer("Store ID")}),
		},

		// Writes
		{
			Name:        "admit_period",
			Description: "Record a store's sales for one ISO week (Monday to Sunday)",
			InputSchema: object(append([]string{"store_id"}, entryRequired...), entryProps(map[string]*jsonschema.Schema{
				"store_id": integer("Store ID"),
			})),
		},
		{
			Name:        "revise_period",
			Description: "Replace the week, revenue and units of an active period",
			InputSchema: object(append([]string{"id"}, entryRequired...), entryProps(map[string]*jsonschema.Schema{
				"id": str("Period ID"),
			})),
		},
		{
			Name:        "retire_period",
			Description: "Retire an active period; its week becomes free again",
			InputSchema: object([]string{"id"}, map[string]*jsonschema.Schema{"id": str("Period ID")}),
		},

		// Queries
		{
			Name:        "get_period",
			Description: "Get an active period by ID",
			InputSchema: object([]string{"id"}, map[string]*jsonschema.Schema{"id": str("Period ID")}),
		},
		{
			Name:        "list_store_periods",
			Description: "List a store's active periods by week start",
			InputSchema: object([]string{"store_id"}, map[string]*jsonschema.Schema{"store_id": integer("Store ID")}),
		},
		{
			Name:        "list_periods_in_range",
			Description: "List active periods of all stores lying entirely within a date range",
			InputSchema: object([]string{"start", "end"}, map[string]*jsonschema.Schema{
				"start": date("First day of the range"),
				"end":   date("Last day of the range"),
			}),
		},
		{
			Name:        "get_store_week",
			Description: "Find a store's active period for a week number; year is the calendar year of the week's Monday",
			InputSchema: object([]string{"store_id", "week_number", "year"}, map[string]*jsonschema.Schema{
				"store_id":    integer("Store ID"),
				"week_number": integer("ISO week number"),
				"year":        integer("Calendar year of the week start"),
			}),
		},
		{
			Name:        "list_year_periods",
			Description: "List active periods starting in a calendar year, by store then week",
			InputSchema: object([]string{"year"}, map[string]*jsonschema.Schema{"year": integer("Calendar year of the week start")}),
		},
		{
			Name:        "total_revenue",
			Description: "Sum a store's revenue over periods lying within a date range",
			InputSchema: storeRange,
		},
		{
			Name:        "average_revenue",
			Description: "Average a store's weekly revenue over periods lying within a date range",
			InputSchema: storeRange,
		},

		// Calendar
		{
			Name:        "week_info",
			Description: "Get the Monday, Sunday and alignment of an ISO week",
			InputSchema: object([]string{"year", "week_number"}, map[string]*jsonschema.Schema{
				"year":        integer("ISO week-numbering year"),
				"week_number": integer("ISO week number"),
			}),
		},
		{
			Name:        "current_week",
			Description: "Get today's ISO week",
			InputSchema: object(nil, nil),
		},

		// Audit
		{
			Name:        "list_activity",
			Description: "List recent ledger activity, newest first",
			InputSchema: object(nil, map[string]*jsonschema.Schema{
				"store_id":  integer("Filter by store"),
				"period_id": str("Filter by period"),
				"type": {
					Type:        "string",
					Description: "Filter by activity type",
					Enum:        []any{"store_created", "period_admitted", "period_revised", "period_retired"},
				},
				"limit":  integer("Maximum number of entries (default 50)"),
				"offset": integer("Offset for pagination"),
			}),
		},
	}
}

// registerTools exposes every handler method as an MCP tool.
func registerTools(server *sdkmcp.Server, handler *Handler) {
	for _, tool := range buildToolCatalog() {
		server.AddTool(tool, toolHandler(handler, tool.Name))
	}
}

func toolHandler(handler *Handler, method string) sdkmcp.ToolHandler {
	return func(ctx context.Context, req *sdkmcp.CallToolRequest) (*sdkmcp.CallToolResult, error) {
		tenantID := getTenantID(ctx)
		if tenantID == "" {
			return nil, transport.ErrUnauthorized
		}

		var args json.RawMessage
		if req.Params != nil {
			args = req.Params.Arguments
		}

		result, err := handler.Handle(ctx, tenantID, method, args)
		if err != nil {
			var apiErr *APIError
			if !errors.As(err, &apiErr) {
				return nil, err
			}
			return textResult(apiErr, true)
		}
		return textResult(result, false)
	}
}

func textResult(payload any, isError bool) (*sdkmcp.CallToolResult, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return &sdkmcp.CallToolResult{
		Content: []sdkmcp.Content{&sdkmcp.TextContent{Text: string(data)}},
		IsError: isError,
	}, nil
}
