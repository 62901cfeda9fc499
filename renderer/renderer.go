package renderer

import (
	"embed"
	"fmt"
	"io/fs"
	"strings"
	"text/template"

	"github.com/etnz/cryptofolio"
)

//go:embed templates/*.md
var templatesFS embed.FS

var templates, _ = fs.Sub(templatesFS, "templates")

// ReportRenderOptions holds configuration for rendering a report.
type ReportRenderOptions struct {
	SkipBalances bool // Do not render the final balances section.
	SkipActivity bool // Do not render the operations, profit sharing and fees sections.
	SkipWarnings bool // Do not render the warnings section.
}

// RenderReport renders a pipeline report to a markdown string.
func RenderReport(r *cryptofolio.Report, opts ReportRenderOptions) string {
	partials := map[string]string{
		"report_title":   "report_title.md",
		"report_summary": "report_summary.md",
		"report_returns": "report_returns.md",
		"report_tables":  "report_tables.md",
	}
	// An empty file name results in an empty template.
	partials["report_balances"] = "report_balances.md"
	if opts.SkipBalances {
		partials["report_balances"] = ""
	}
	partials["report_activity"] = "report_activity.md"
	if opts.SkipActivity {
		partials["report_activity"] = ""
	}
	partials["report_warnings"] = "report_warnings.md"
	if opts.SkipWarnings {
		partials["report_warnings"] = ""
	}
	return renderTemplate("report", "report.md", partials, NewReport(r))
}

// renderTemplate is a generic utility to render a main template that depends on several partials.
func renderTemplate(templateName, mainFile string, partials map[string]string, data any) string {
	mainContent, err := fs.ReadFile(templates, mainFile)
	if err != nil {
		return fmt.Sprintf("error reading main template %q: %v", mainFile, err)
	}

	tmpl, err := template.New(templateName).Parse(string(mainContent))
	if err != nil {
		return fmt.Sprintf("error parsing main template %q: %v", mainFile, err)
	}

	for name, file := range partials {
		var content []byte
		if file != "" {
			var readErr error
			content, readErr = fs.ReadFile(templates, file)
			if readErr != nil {
				return fmt.Sprintf("error reading partial template %q: %v", file, readErr)
			}
		}
		if _, err := tmpl.New(name).Parse(string(content)); err != nil {
			return fmt.Sprintf("error parsing partial template %q for %q: %v", file, name, err)
		}
	}

	var b strings.Builder
	if err := tmpl.ExecuteTemplate(&b, templateName, data); err != nil {
		return fmt.Sprintf("error executing template %q: %v", templateName, err)
	}
	return b.String()
}
