// Package assets carries the files compiled into the snipmark binary: the
// starter snippet schema that init writes into new projects and the HTML
// report template.
package assets

import "embed"

//go:embed embedded_templates
var templates embed.FS

//go:embed embedded_schemas
var schemas embed.FS

// reportTemplateAsset is the handlebars template behind `--format html`.
const reportTemplateAsset = "embedded_templates/templates/report/report.html.hbs"

// ReportTemplate returns the embedded HTML report template.
func ReportTemplate() ([]byte, bool) {
	data, err := templates.ReadFile(reportTemplateAsset)
	return data, err == nil
}
