package core

import "html/template"

type pageView struct {
	Title   string
	Package string
	Form    template.HTML
	Content template.HTML
}

var pageTpl = template.Must(template.New("page").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
</head>
<body>
<nav><a href="/">Data quality</a></nav>
<main class="data-quality" data-package="{{.Package}}">
<h1>{{.Title}}</h1>
{{with .Form}}{{.}}
{{end}}{{.Content}}
</main>
</body>
</html>
`))

type indexEntry struct {
	Path  string
	Title string
}

type indexView struct {
	Pages []indexEntry
}

var indexTpl = template.Must(template.New("index").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>Data quality</title>
</head>
<body>
<main class="data-quality-index">
<h1>Data quality</h1>
<ul>
{{range .Pages}}<li><a href="/data-quality/{{.Path}}">{{.Title}}</a></li>
{{end}}</ul>
</main>
</body>
</html>
`))
