package web

import (
	"embed"
	"html/template"
	"strings"
)

//go:embed templates/*.html
var templateFS embed.FS

// FormField is the view model of one input rendered by the "field" template
type FormField struct {
	Name  string
	Label string
	Type  string
	Value string
	Error string
}

// TemplateFuncs returns the functions available to page templates
func TemplateFuncs() template.FuncMap {
	return template.FuncMap{
		"join": strings.Join,
		"field": func(name, label, inputType, value, errMsg string) FormField {
			return FormField{Name: name, Label: label, Type: inputType, Value: value, Error: errMsg}
		},
	}
}

// Templates parses every embedded page template. Missing map keys such as
// absent field errors render as zero values.
func Templates() (*template.Template, error) {
	return template.New("").Funcs(TemplateFuncs()).Option("missingkey=zero").ParseFS(templateFS, "templates/*.html")
}
