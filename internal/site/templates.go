package site

import "html/template"

type layoutData struct {
	SiteTitle string
	Title     string
	Base      string
	Content   template.HTML
}

var layoutTmpl = template.Must(template.New("layout").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<meta name="viewport" content="width=device-width, initial-scale=1">
<title>{{.Title}} · {{.SiteTitle}}</title>
<base href="{{.Base}}">
<style>
body { font-family: sans-serif; margin: 0; }
header { background: #24292f; padding: 0.6rem 1rem; }
header a { color: #fff; text-decoration: none; margin-right: 1rem; }
main { max-width: 72rem; margin: 0 auto; padding: 1rem; }
pre.draft-text, pre.diff { background: #f6f8fa; padding: 1rem; overflow-x: auto; }
nav.toctree ul { list-style: none; padding-left: 1rem; }
.draft-signature code { background: #f6f8fa; padding: 0.1rem 0.3rem; }
.draft-error, .draft-diff-unresolved { color: #a40e26; }
</style>
</head>
<body>
<header><a href="toc.html">{{.SiteTitle}}</a><a href="index.html">Versions</a></header>
<main>
{{.Content}}
</main>
</body>
</html>
`))

var indexTmpl = template.Must(template.New("index").Parse(`<h1>Draft versions</h1>
{{range .}}<h2>{{.RefType}}</h2>
<ul>
{{range .Entries}}<li><a href="{{.Document}}.html#{{.Anchor}}"><code>{{.Name}}</code></a> <em>{{.ObjectType}}</em></li>
{{end}}</ul>
{{end}}`))
