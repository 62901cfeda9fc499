package agent

import (
	"bytes"
	"context"
	"fmt"

	"github.com/etnz/cryptofolio"
	"github.com/etnz/cryptofolio/date"
	"github.com/etnz/cryptofolio/docs"
	"github.com/etnz/cryptofolio/renderer"
	"google.golang.org/genai"
)

func instruction(text string) *genai.Content {
	return &genai.Content{Parts: []*genai.Part{{Text: text}}}
}

// newFacilitator creates the expert that talks to the user and delegates to experts.
func newFacilitator(model string, experts ...*Expert) *Expert {
	return &Expert{
		Name:      "Facilitator",
		ModelName: model,
		Config: &genai.GenerateContentConfig{
			Tools: []*genai.Tool{
				{FunctionDeclarations: NewDeclaration(experts)},
			},
			SystemInstruction: instruction(`
			As a facilitator you are in charge of the conversation and of solving the user's request.

			Learn about the experts' skills from the Tools and ask them questions.
			They keep the context of your previous questions.

			The user owns a crypto portfolio held on an exchange. Devise a plan of questions
			for the experts, then give a short and factual answer. Never present estimated
			prices as market data.
		`),
		},
		Library: NewLibrary(experts),
	}
}

// NewTrader creates an expert grounded on Google Search for market news.
func NewTrader(model string) *Expert {
	return &Expert{
		Name: "Trader",
		Description: `This is an expert crypto trader, aware of the latest market news and
		of the events that moved crypto prices. Ask the Trader for recent or grounding information.`,
		ModelName: model,
		Config: &genai.GenerateContentConfig{
			Tools:             []*genai.Tool{{GoogleSearch: &genai.GoogleSearch{}}},
			SystemInstruction: instruction(`You are an expert in crypto markets. Leverage Google Search to ground your assertions.`),
		},
	}
}

// NewAnalyst creates the expert that reads the user's portfolio report.
func NewAnalyst(model string, r *cryptofolio.Report) *Expert {
	lib := Tools(r)
	return &Expert{
		Name: "Analyst",
		Description: `This is the Analyst. It reads the user's portfolio report: balances,
		daily values, returns, risk statistics and the warnings of the run.`,
		ModelName: model,
		Config: &genai.GenerateContentConfig{
			Tools: []*genai.Tool{{FunctionDeclarations: NewDeclaration(lib)}},
			SystemInstruction: instruction(`
			You are the analyst of the user's crypto portfolio report.
			Use the Tools to read the report, the balances on a given day, the daily values and the period returns.
			Always mention when prices are estimated, and the warnings that affect your answer.
		`),
		},
		Library: NewLibrary(lib),
	}
}

// Tools returns the functions that expose r to a model.
func Tools(r *cryptofolio.Report) []*Func {
	return []*Func{
		{
			Decl: &genai.FunctionDeclaration{
				Name:        "Report",
				Description: "Report returns the full portfolio report in markdown: summary statistics, periodic returns, balances, activity and warnings.",
				Response:    &genai.Schema{Type: genai.TypeString, Description: "The markdown report."},
			},
			Func: func(_ context.Context, id string, _ map[string]any) *genai.FunctionResponse {
				return outputResponse(id, "Report", renderer.RenderReport(r, renderer.ReportRenderOptions{}))
			},
		},
		{
			Decl: &genai.FunctionDeclaration{
				Name:        "Balances",
				Description: "Balances returns the quantity of every asset, per account scope, at the end of a day.",
				Parameters: &genai.Schema{
					Type: genai.TypeObject,
					Properties: map[string]*genai.Schema{
						"date": {Type: genai.TypeString, Description: "The day, formatted YYYY-MM-DD. Defaults to the last day of the report."},
					},
				},
				Response: &genai.Schema{Type: genai.TypeString, Description: "A markdown table of balances."},
			},
			Func: func(_ context.Context, id string, args map[string]any) *genai.FunctionResponse {
				on, err := dateArg(args, "date", r.Span.To)
				if err != nil {
					return errorResponse(id, "Balances", err)
				}
				var b bytes.Buffer
				if r.Balances == nil || !renderer.RenderBalances(&b, r.Balances, on) {
					return outputResponse(id, "Balances", fmt.Sprintf("No balance on %s.", on))
				}
				return outputResponse(id, "Balances", b.String())
			},
		},
		{
			Decl: &genai.FunctionDeclaration{
				Name:        "Values",
				Description: "Values returns the daily portfolio value, the reference asset price and the price source between two days.",
				Parameters: &genai.Schema{
					Type: genai.TypeObject,
					Properties: map[string]*genai.Schema{
						"from": {Type: genai.TypeString, Description: "First day, formatted YYYY-MM-DD. Defaults to the first day of the report."},
						"to":   {Type: genai.TypeString, Description: "Last day, formatted YYYY-MM-DD. Defaults to the last day of the report."},
					},
				},
				Response: &genai.Schema{Type: genai.TypeString, Description: "A markdown table of daily values."},
			},
			Func: func(_ context.Context, id string, args map[string]any) *genai.FunctionResponse {
				from, err := dateArg(args, "from", r.Span.From)
				if err != nil {
					return errorResponse(id, "Values", err)
				}
				to, err := dateArg(args, "to", r.Span.To)
				if err != nil {
					return errorResponse(id, "Values", err)
				}
				var b bytes.Buffer
				rng := date.Range{From: from, To: to}
				if r.Valuation == nil || !renderer.RenderValues(&b, r.Valuation, r.Options.ValuationCurrency, rng) {
					return outputResponse(id, "Values", fmt.Sprintf("No value between %s and %s.", from, to))
				}
				return outputResponse(id, "Values", b.String())
			},
		},
		{
			Decl: &genai.FunctionDeclaration{
				Name:        "Returns",
				Description: "Returns lists the compounded portfolio return of every period (week, month, quarter or year) of the report.",
				Parameters: &genai.Schema{
					Type: genai.TypeObject,
					Properties: map[string]*genai.Schema{
						"period": {Type: genai.TypeString, Description: "One of weekly, monthly, quarterly or yearly. Defaults to monthly."},
					},
				},
				Response: &genai.Schema{Type: genai.TypeString, Description: "A markdown table of period returns."},
			},
			Func: func(_ context.Context, id string, args map[string]any) *genai.FunctionResponse {
				name, _ := args["period"].(string)
				if name == "" {
					name = "monthly"
				}
				period, err := date.ParsePeriod(name)
				if err != nil {
					return errorResponse(id, "Returns", err)
				}
				var returns []cryptofolio.PeriodReturn
				if r.Performance != nil {
					returns = cryptofolio.PeriodicReturns(r.Performance, period)
				}
				if len(returns) == 0 {
					return outputResponse(id, "Returns", "No return in the report.")
				}
				var b bytes.Buffer
				fmt.Fprintln(&b, "| Period | Kind | Return |")
				fmt.Fprintln(&b, "|:---|:---|---:|")
				for _, pr := range returns {
					fmt.Fprintf(&b, "| %s | %s | %s |\n", pr.Range.Identifier(), pr.Range.Name(), cryptofolio.Ratio(pr.Return).SignedString())
				}
				return outputResponse(id, "Returns", b.String())
			},
		},
		{
			Decl: &genai.FunctionDeclaration{
				Name:        "Documentation",
				Description: "Documentation explains how the report is computed and the formats of the exported tables.",
				Response:    &genai.Schema{Type: genai.TypeString, Description: "The documentation in markdown."},
			},
			Func: func(_ context.Context, id string, _ map[string]any) *genai.FunctionResponse {
				doc, err := docs.GetTopic("*")
				if err != nil {
					return errorResponse(id, "Documentation", err)
				}
				return outputResponse(id, "Documentation", doc)
			},
		},
	}
}

func dateArg(args map[string]any, name string, def date.Date) (date.Date, error) {
	v, ok := args[name]
	if !ok {
		return def, nil
	}
	s, ok := v.(string)
	if !ok {
		return def, fmt.Errorf("argument %q is not a string as expected but %T", name, v)
	}
	if s == "" {
		return def, nil
	}
	d, err := date.Parse(s)
	if err != nil {
		return def, fmt.Errorf("argument %q must be a YYYY-MM-DD date, got %q", name, s)
	}
	return d, nil
}
