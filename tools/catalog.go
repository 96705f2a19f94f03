package tools

// personParam is shared by every account-scoped tool.
var personParam = Parameter{
	Name:        "person_id",
	Type:        "string",
	Description: "The affiliate account ID",
	Required:    true,
}

func accountEndpoint(suffix string) TemplatedEndpoint {
	return func(args map[string]string) string {
		return "/api/accounts/" + args["person_id"] + suffix
	}
}

// DefaultRegistry returns the production tool catalog. Adding a tool only
// requires appending a descriptor here; no other component names tools.
func DefaultRegistry() *Registry {
	r, err := NewRegistry(
		Descriptor{
			Name:        "get_account_overview",
			Description: "Retrieves complete account profile and performance summary including name, current rank/title, GSV (Group Sales Volume), CSV (Customer Sales Volume), DC-SV (Direct Customer Sales Volume), and team statistics. Use this for general account questions, \"how am I doing\", performance overview, or when you need to know the user's current standing.",
			Endpoint:    accountEndpoint("/overview"),
			Method:      "GET",
			Parameters:  []Parameter{personParam},
		},
		Descriptor{
			Name:        "get_qualification_status",
			Description: "Retrieves qualification progress showing current rank, requirements for next rank advancement, which requirements are met/unmet, and months qualified. Use this when users ask about qualifications, ranking up, requirements, \"what do I need to qualify\", or promotion criteria.",
			Endpoint:    accountEndpoint("/qualifications"),
			Method:      "GET",
			Parameters:  []Parameter{personParam},
		},
		Descriptor{
			Name:        "get_downline_team",
			Description: "Retrieves information about the user's downline team members including their names, ranks, sales volumes, activity status, and growth rates. Use this when users ask about their team, downlines, \"who needs help\", team performance, or managing their organization.",
			Endpoint:    accountEndpoint("/downline"),
			Method:      "GET",
			Parameters:  []Parameter{personParam},
		},
		Descriptor{
			Name:        "get_next_best_actions",
			Description: "Retrieves AI-generated personalized recommendations and next best actions for business growth. Use this when users ask for advice, tips, \"what should I do\", recommendations, suggestions, or how to improve their business.",
			Endpoint:    accountEndpoint("/nba"),
			Method:      "POST",
			DefaultBody: map[string]interface{}{},
			Parameters:  []Parameter{personParam},
		},
		Descriptor{
			Name:        "get_subscription_data",
			Description: "Retrieves subscription and recurring revenue information including total subscribers, active subscriptions, monthly recurring volume, churn rate, and breakdown by product. Use this when users ask about subscriptions, recurring revenue, auto-ship, or subscription growth.",
			Endpoint:    accountEndpoint("/subscriptions"),
			Method:      "GET",
			Parameters:  []Parameter{personParam},
		},
		Descriptor{
			Name:        "get_performance_history",
			Description: "Retrieves historical performance data with charts showing trends over multiple months. Includes sales trends, volume trends, and growth metrics. Use this when users ask about trends, history, \"how have I been doing\", progress over time, or want to see charts.",
			Endpoint: TemplatedEndpoint(func(args map[string]string) string {
				return "/api/analytics/" + args["person_id"] + "/chart-data"
			}),
			Method:     "GET",
			Parameters: []Parameter{personParam},
		},
		Descriptor{
			Name:        "get_segments",
			Description: "Retrieves customer and team member segmentation data showing different groups like active buyers, at-risk customers, VIPs, and new members. Use this when users ask about customer segments, who to focus on, or customer categories.",
			Endpoint:    accountEndpoint("/segments"),
			Method:      "GET",
			Parameters:  []Parameter{personParam},
		},
		Descriptor{
			Name:        "get_orders",
			Description: "Retrieves recent order history including order dates, amounts, products, and status. Use this when users ask about orders, recent purchases, sales history, or order details.",
			Endpoint:    accountEndpoint("/orders"),
			Method:      "GET",
			Parameters:  []Parameter{personParam},
		},
		Descriptor{
			Name:        "get_sales_breakdown",
			Description: "Retrieves detailed sales breakdown by category, product, or time period. Use this when users ask for sales details, product performance, or revenue breakdown.",
			Endpoint:    accountEndpoint("/sales-breakdown"),
			Method:      "GET",
			Parameters:  []Parameter{personParam},
		},
		Descriptor{
			Name:        "get_team_network",
			Description: "Retrieves the team network structure showing organizational hierarchy, levels, and relationships. Use this when users ask about their organization structure, team tree, or downline hierarchy.",
			Endpoint:    accountEndpoint("/team-network"),
			Method:      "GET",
			Parameters:  []Parameter{personParam},
		},
		Descriptor{
			Name:        "explain_spp_rule",
			Description: "Explains a specific Sales Performance Plan (SPP) rule or requirement. Use this when users ask about SPP rules, compensation plan details, or how specific requirements work.",
			Endpoint:    StaticEndpoint("/api/llm/explain-rule"),
			Method:      "POST",
			Parameters: []Parameter{{
				Name:        "rule_name",
				Type:        "string",
				Description: "The name of the SPP rule to explain",
				Required:    true,
			}},
		},
	)
	if err != nil {
		// The default catalog is built from literals; a failure here is a
		// programming error.
		panic(err)
	}
	return r
}
