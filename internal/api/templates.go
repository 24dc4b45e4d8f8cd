package api

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"strings"

	"github.com/lox/weatherwidget/internal/display"
	"github.com/lox/weatherwidget/internal/htmlutil"
	"github.com/lox/weatherwidget/internal/widget"
)

//go:embed templates/*
var templateFS embed.FS

func newTemplates() *template.Template {
	funcs := template.FuncMap{
		"num":     display.FormatNumber,
		"css":     cssColor,
		"lower":   strings.ToLower,
		"px":      px,
		"loading": func(v widget.View) bool { return v.Mode == widget.ModeLoading },
	}
	return template.Must(template.New("").Funcs(funcs).ParseFS(templateFS, "templates/*.html"))
}

// cssColor marks a colour as safe CSS. Anything but #RRGGBB is replaced by the default.
func cssColor(hex string) template.CSS {
	norm, err := display.NormalizeHex(hex)
	if err != nil {
		norm = display.DefaultBackground
	}
	return template.CSS(norm)
}

func px(f float64) template.CSS {
	return template.CSS(display.FormatNumber(f) + "px")
}

// RenderText renders the card as plain text.
func RenderText(v widget.View) (string, error) {
	var buf bytes.Buffer
	if err := newTemplates().ExecuteTemplate(&buf, "widget", v); err != nil {
		return "", fmt.Errorf("render widget: %w", err)
	}
	return strings.TrimSpace(htmlutil.ToText(buf.String())), nil
}
