package handlers

import (
	"bytes"
	"html/template"
)

const pageLayout = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>{{.Title}}</title>
<style>
body{margin:0;min-height:100vh;display:flex;align-items:center;justify-content:center;font-family:system-ui,sans-serif;background:linear-gradient(135deg,#667eea,#764ba2);color:#fff}
main{max-width:32rem;padding:2.5rem;text-align:center;background:rgba(255,255,255,.12);border-radius:1rem}
h1{font-size:3rem;margin:0 0 .5rem}
code{background:rgba(0,0,0,.25);padding:.1rem .4rem;border-radius:.3rem}
a{color:#fff}
</style>
</head>
<body>
<main>
<h1>{{.Heading}}</h1>
<p>{{.Message}}</p>
{{if .Alias}}<p>Alias: <code>{{.Alias}}</code></p>{{end}}
{{if .BotURL}}<p><a href="{{.BotURL}}">Open the Telegram bot</a> to create and track your own links.</p>{{end}}
</main>
</body>
</html>`

type pageData struct {
	Title   string
	Heading string
	Message string
	Alias   string
	BotURL  string
}

// Pages renders the HTML pages served on the public routes.
type Pages struct {
	tmpl   *template.Template
	botURL string
}

// NewPages parses the page templates. botURL is linked from every page when set.
func NewPages(botURL string) *Pages {
	return &Pages{
		tmpl:   template.Must(template.New("page").Parse(pageLayout)),
		botURL: botURL,
	}
}

func (p *Pages) Landing() []byte {
	return p.render(pageData{
		Title:   "linkbot",
		Heading: "linkbot",
		Message: "Short links with click analytics.",
	})
}

func (p *Pages) NotFound(alias string) []byte {
	return p.render(pageData{
		Title:   "Link not found",
		Heading: "404",
		Message: "This short link does not exist or has been removed.",
		Alias:   alias,
	})
}

func (p *Pages) ServerError() []byte {
	return p.render(pageData{
		Title:   "Something went wrong",
		Heading: "500",
		Message: "We could not open this link right now. Please try again in a moment.",
	})
}

func (p *Pages) render(data pageData) []byte {
	data.BotURL = p.botURL

	var buf bytes.Buffer
	if err := p.tmpl.Execute(&buf, data); err != nil {
		return []byte(data.Heading + " " + data.Message)
	}

	return buf.Bytes()
}
