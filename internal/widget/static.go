package widget

import "html/template"

// Static is a fixed fragment with no data source, such as a set of chart
// embeds.
type Static struct {
	name string
	html template.HTML
}

func NewStatic(name string, html template.HTML) *Static {
	return &Static{name: name, html: html}
}

func (s *Static) Name() string {
	return s.name
}

func (s *Static) Render() template.HTML {
	return s.html
}
