// Package notify delivers account e-mails (activation and password reset).
package notify

import (
	"bytes"
	"context"
	"embed"
	"io/fs"
	"net/http"

	"github.com/gofiber/template/html/v2"
)

//go:embed templates/*.html
var templatesFS embed.FS

const (
	TemplateActivation = "activation"
	TemplateReset      = "reset"
)

// Message is a rendered e-mail ready for delivery.
type Message struct {
	To      string
	Subject string
	HTML    string
}

type Notifier interface {
	Send(ctx context.Context, msg Message) error
}

// Renderer turns the embedded templates into e-mail bodies.
type Renderer struct {
	engine *html.Engine
}

func NewRenderer() (*Renderer, error) {
	sub, err := fs.Sub(templatesFS, "templates")
	if err != nil {
		return nil, err
	}
	engine := html.NewFileSystem(http.FS(sub), ".html")
	if err := engine.Load(); err != nil {
		return nil, err
	}
	return &Renderer{engine: engine}, nil
}

// LinkData is the binding shared by every account e-mail.
type LinkData struct {
	Name     string
	URL      string
	ValidFor string
}

func (r *Renderer) Render(name string, data any) (string, error) {
	var buf bytes.Buffer
	if err := r.engine.Render(&buf, name, data); err != nil {
		return "", err
	}
	return buf.String(), nil
}
