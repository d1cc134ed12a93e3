package llm

import openrouter "github.com/revrost/go-openrouter"

const (
	toolFinancialSummary = "GetFinancialSummary"
	toolTopProducts      = "GetTopProducts"
	toolDaySummary       = "GetDaySummary"
	toolSearchProducts   = "SearchProducts"
	toolListOrders       = "ListOrders"
	toolGetOrder         = "GetOrder"
	toolListLocales      = "ListLocales"
)

func ToolSchemas() []openrouter.Tool {
	return []openrouter.Tool{
		financialSummaryTool(),
		topProductsTool(),
		daySummaryTool(),
		searchProductsTool(),
		listOrdersTool(),
		getOrderTool(),
		listLocalesTool(),
	}
}

func dateProperty(description string) map[string]any {
	return map[string]any{
		"type":        "string",
		"format":      "date",
		"description": description,
	}
}

func kindProperty() map[string]any {
	return map[string]any{
		"type":        "string",
		"enum":        []string{"sale", "purchase"},
		"description": "Order kind: 'sale' (ventas) or 'purchase' (compras). Default: sale.",
	}
}

func financialSummaryTool() openrouter.Tool {
	return openrouter.Tool{
		Type: openrouter.ToolTypeFunction,
		Function: &openrouter.FunctionDefinition{
			Name:        toolFinancialSummary,
			Description: "Confirmed sales total, confirmed purchases total, gross margin (sales minus purchases) and order counts for a date range of the selected local.",
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"from": dateProperty("First day, YYYY-MM-DD. Omit for today."),
					"to":   dateProperty("Last day (inclusive), YYYY-MM-DD. Omit for today."),
				},
				"additionalProperties": false,
			},
		},
	}
}

func topProductsTool() openrouter.Tool {
	return openrouter.Tool{
		Type: openrouter.ToolTypeFunction,
		Function: &openrouter.FunctionDefinition{
			Name:        toolTopProducts,
			Description: "Best selling products by quantity in a date range, with quantity sold and revenue. Only confirmed sales count.",
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"from": dateProperty("First day, YYYY-MM-DD. Omit for today."),
					"to":   dateProperty("Last day (inclusive), YYYY-MM-DD. Omit for today."),
					"limit": map[string]any{
						"type":        "integer",
						"description": "How many products to return (default 5, max 50).",
					},
				},
				"additionalProperties": false,
			},
		},
	}
}

func daySummaryTool() openrouter.Tool {
	return openrouter.Tool{
		Type: openrouter.ToolTypeFunction,
		Function: &openrouter.FunctionDefinition{
			Name:        toolDaySummary,
			Description: "Today's summary of the selected local as reported by the backend.",
			Parameters: map[string]any{
				"type":                 "object",
				"properties":           map[string]any{},
				"additionalProperties": false,
			},
		},
	}
}

func searchProductsTool() openrouter.Tool {
	return openrouter.Tool{
		Type: openrouter.ToolTypeFunction,
		Function: &openrouter.FunctionDefinition{
			Name:        toolSearchProducts,
			Description: "Find catalog products by name, code or brand. Returns id, code, name, brand, sale price and current stock.",
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"query": map[string]any{
						"type":        "string",
						"description": "Text to search for.",
					},
					"limit": map[string]any{
						"type":        "integer",
						"description": "Maximum number of products (default 10, max 50).",
					},
				},
				"required":             []string{"query"},
				"additionalProperties": false,
			},
		},
	}
}

func listOrdersTool() openrouter.Tool {
	return openrouter.Tool{
		Type: openrouter.ToolTypeFunction,
		Function: &openrouter.FunctionDefinition{
			Name:        toolListOrders,
			Description: "List sales or purchases in a date range with id, date, status and total. Status is one of draft, confirmed, annulled.",
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"kind": kindProperty(),
					"from": dateProperty("First day, YYYY-MM-DD. Omit for today."),
					"to":   dateProperty("Last day (inclusive), YYYY-MM-DD. Omit for today."),
					"status": map[string]any{
						"type":        "string",
						"enum":        []string{"all", "draft", "confirmed", "annulled"},
						"description": "Optional status filter. Default: all.",
					},
				},
				"additionalProperties": false,
			},
		},
	}
}

func getOrderTool() openrouter.Tool {
	return openrouter.Tool{
		Type: openrouter.ToolTypeFunction,
		Function: &openrouter.FunctionDefinition{
			Name:        toolGetOrder,
			Description: "Fetch one sale or purchase with its lines (product, quantity, unit amount, discount, tax, line total).",
			Parameters: map[string]any{
				"type": "object",
				"properties": map[string]any{
					"kind": kindProperty(),
					"id": map[string]any{
						"type":        "integer",
						"description": "Order id.",
					},
				},
				"required":             []string{"id"},
				"additionalProperties": false,
			},
		},
	}
}

func listLocalesTool() openrouter.Tool {
	return openrouter.Tool{
		Type: openrouter.ToolTypeFunction,
		Function: &openrouter.FunctionDefinition{
			Name:        toolListLocales,
			Description: "List the business locations (locales) the user can work with, with id and name.",
			Parameters: map[string]any{
				"type":                 "object",
				"properties":           map[string]any{},
				"additionalProperties": false,
			},
		},
	}
}
