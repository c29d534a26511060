package export

import (
	"bytes"
	"embed"
	"html/template"
	"strings"
	"time"
)

//go:embed templates/*.html
var templateFS embed.FS

var proposalTemplate *template.Template

func init() {
	funcMap := template.FuncMap{
		"lower": strings.ToLower,
		"formatDate": func(t time.Time, layout string) string {
			return t.Format(layout)
		},
	}

	templateContent, err := templateFS.ReadFile("templates/proposal.html")
	if err != nil {
		// Fallback to built-in template if file not found
		proposalTemplate = template.Must(template.New("proposal").Funcs(funcMap).Parse(fallbackTemplate))
		return
	}

	proposalTemplate = template.Must(template.New("proposal").Funcs(funcMap).Parse(string(templateContent)))
}

// TemplateData holds data for proposal template rendering
type TemplateData struct {
	Proposal  ProposalInfo
	Project   ProjectInfo
	Company   CompanyInfo
	Contact   ContactInfo
	Revisions []RevisionInfo
	Generated time.Time
}

// RenderProposalHTML renders the proposal template with provided data
func RenderProposalHTML(data TemplateData) (string, error) {
	var buf bytes.Buffer
	if err := proposalTemplate.Execute(&buf, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}

// fallbackTemplate is used if the embedded template fails to load
const fallbackTemplate = `<!DOCTYPE html>
<html>
<head>
  <meta charset="UTF-8">
  <title>{{.Proposal.Number}}</title>
  <style>
    body { font-family: Arial, sans-serif; line-height: 1.6; max-width: 800px; margin: 2rem auto; }
    h1 { border-bottom: 2px solid #333; padding-bottom: 0.5rem; }
    .meta { color: #666; font-size: 0.9em; margin-bottom: 2rem; }
    table { border-collapse: collapse; width: 100%; margin-top: 2rem; }
    th, td { border: 1px solid #ccc; padding: 0.4rem 0.6rem; text-align: left; font-size: 0.9em; }
  </style>
</head>
<body>
  <h1>{{.Proposal.Number}} {{.Proposal.Name}}</h1>
  {{if .Proposal.StrapLine}}<p>{{.Proposal.StrapLine}}</p>{{end}}
  <div class="meta">
    {{.Project.Name}} ({{.Project.Number}}){{if .Project.City}} | {{.Project.City}}, {{.Project.Country}}{{end}}
  </div>
  <p>
    {{.Company.Name}}<br>
    Attn: {{.Contact.FullName}}{{if .Contact.Position}}, {{.Contact.Position}}{{end}}
  </p>
  <p>Scope: {{.Proposal.Activity}}{{if .Proposal.Package}} / {{.Proposal.Package}}{{end}}</p>
  <p>Revision {{.Proposal.Rev}}{{if .Proposal.IssueDate}} | Issued {{.Proposal.IssueDate}}{{end}}</p>
  {{if .Revisions}}
  <h2>Revision History</h2>
  <table>
    <tr><th>Rev</th><th>Date</th><th>Author</th><th>Notes</th></tr>
    {{range .Revisions}}<tr><td>{{.Number}}</td><td>{{formatDate .Date "Jan 2, 2006"}}</td><td>{{.AuthorName}}</td><td>{{.Notes}}</td></tr>{{end}}
  </table>
  {{end}}
</body>
</html>`
