package notify

import (
	"context"
	"errors"
	"net/smtp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRendererActivation(t *testing.T) {
	r, err := NewRenderer()
	require.NoError(t, err)

	body, err := r.Render(TemplateActivation, LinkData{Name: "Ann", URL: "https://shop.test/activation/abc", ValidFor: "5 minutes"})
	require.NoError(t, err)
	assert.Contains(t, body, "Hello Ann")
	assert.Contains(t, body, `href="https://shop.test/activation/abc"`)
	assert.Contains(t, body, "5 minutes")
}

func TestRendererEscapesName(t *testing.T) {
	r, err := NewRenderer()
	require.NoError(t, err)
	body, err := r.Render(TemplateReset, LinkData{Name: "<script>", URL: "https://x", ValidFor: "15 minutes"})
	require.NoError(t, err)
	assert.NotContains(t, body, "<script>")
}

func TestSMTPNotifierSend(t *testing.T) {
	n := NewSMTPNotifier(SMTPConfig{Host: "mail.test", Port: "587", User: "u", Password: "p", From: "shop@test"})
	var gotAddr string
	var gotMsg []byte
	n.send = func(addr string, a smtp.Auth, from string, to []string, msg []byte) error {
		gotAddr = addr
		gotMsg = msg
		assert.NotNil(t, a)
		assert.Equal(t, []string{"ann@example.com"}, to)
		return nil
	}

	err := n.Send(context.Background(), Message{To: "ann@example.com", Subject: "Activate", HTML: "<p>hi</p>"})
	require.NoError(t, err)
	assert.Equal(t, "mail.test:587", gotAddr)
	assert.True(t, strings.HasSuffix(string(gotMsg), "<p>hi</p>"))
	assert.Contains(t, string(gotMsg), "Subject: Activate\r\n")
}

func TestSMTPNotifierErrors(t *testing.T) {
	n := NewSMTPNotifier(SMTPConfig{Host: "mail.test", Port: "25"})
	n.send = func(string, smtp.Auth, string, []string, []byte) error { return errors.New("421 busy") }

	assert.Error(t, n.Send(context.Background(), Message{To: "a@b.c"}))
	assert.Error(t, n.Send(context.Background(), Message{To: "a@b.c\r\nBcc: x@y.z"}))
}

func TestLogNotifierRemembers(t *testing.T) {
	n := &LogNotifier{}
	_, ok := n.Last()
	assert.False(t, ok)
	require.NoError(t, n.Send(context.Background(), Message{To: "a@b.c", Subject: "s"}))
	m, ok := n.Last()
	assert.True(t, ok)
	assert.Equal(t, "a@b.c", m.To)
}
