package whatsapp

import (
	"context"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"mietbot/internal/config"
	"mietbot/internal/domain"
	"mietbot/internal/models"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeAccess struct {
	allowed map[string]bool
}

func (f *fakeAccess) IsWhatsAppSenderAuthorized(ctx context.Context, phone string) (bool, error) {
	return f.allowed[phone], nil
}

type fakeConversation struct {
	channel string
	sender  string
	text    string
	replies []domain.Reply
}

func (f *fakeConversation) HandleMessage(ctx context.Context, channel, sender, text string) []domain.Reply {
	f.channel, f.sender, f.text = channel, sender, text
	return f.replies
}

type fakeSender struct {
	texts     []string
	documents []string
	captions  []string
}

func (f *fakeSender) SendText(ctx context.Context, to, body string) error {
	f.texts = append(f.texts, to+"|"+body)
	return nil
}

func (f *fakeSender) SendDocument(ctx context.Context, to, filePath, fileName, caption string) error {
	f.documents = append(f.documents, fileName)
	f.captions = append(f.captions, caption)
	return nil
}

func newTestServer(conv *fakeConversation, sender *fakeSender, allowed ...string) *Server {
	access := &fakeAccess{allowed: make(map[string]bool)}
	for _, phone := range allowed {
		access.allowed[phone] = true
	}

	logger := zerolog.New(os.Stdout).Level(zerolog.Disabled)
	cfg := config.WhatsAppConfig{VerifyToken: "geheim", WebhookPort: 0}
	return NewServer(cfg, access, conv, sender, &logger)
}

func TestVerifyHandshake(t *testing.T) {
	srv := newTestServer(&fakeConversation{}, &fakeSender{})

	req := httptest.NewRequest(http.MethodGet,
		"/webhook?hub.mode=subscribe&hub.verify_token=geheim&hub.challenge=12345", nil)
	rec := httptest.NewRecorder()
	srv.handleWebhook(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "12345", rec.Body.String())
}

func TestVerifyRejectsWrongToken(t *testing.T) {
	srv := newTestServer(&fakeConversation{}, &fakeSender{})

	req := httptest.NewRequest(http.MethodGet,
		"/webhook?hub.mode=subscribe&hub.verify_token=falsch&hub.challenge=12345", nil)
	rec := httptest.NewRecorder()
	srv.handleWebhook(rec, req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.NotContains(t, rec.Body.String(), "12345")
}

const inboundBody = `{
  "entry": [{
    "changes": [{
      "value": {
        "messages": [{
          "from": "491701234567",
          "type": "text",
          "text": {"body": "status"}
        }]
      }
    }]
  }]
}`

func TestInboundMessageIsRouted(t *testing.T) {
	conv := &fakeConversation{replies: []domain.Reply{{Text: "Aktuell keine offenen Rechnungen. ✅"}}}
	sender := &fakeSender{}
	srv := newTestServer(conv, sender, "491701234567")

	req := httptest.NewRequest(http.MethodPost, "/webhook", strings.NewReader(inboundBody))
	rec := httptest.NewRecorder()
	srv.handleWebhook(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, models.ChannelWhatsApp, conv.channel)
	assert.Equal(t, "491701234567", conv.sender)
	assert.Equal(t, "status", conv.text)

	require.Len(t, sender.texts, 1)
	assert.Equal(t, "491701234567|Aktuell keine offenen Rechnungen. ✅", sender.texts[0])
}

func TestUnknownSenderIsIgnoredSilently(t *testing.T) {
	conv := &fakeConversation{}
	sender := &fakeSender{}
	srv := newTestServer(conv, sender)

	req := httptest.NewRequest(http.MethodPost, "/webhook", strings.NewReader(inboundBody))
	rec := httptest.NewRecorder()
	srv.handleWebhook(rec, req)

	// Входящий запрос подтверждаем, но не отвечаем отправителю
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, conv.text)
	assert.Empty(t, sender.texts)
}

func TestNonTextMessagesAreSkipped(t *testing.T) {
	conv := &fakeConversation{}
	srv := newTestServer(conv, &fakeSender{}, "491701234567")

	body := `{"entry":[{"changes":[{"value":{"messages":[{"from":"491701234567","type":"image"}]}}]}]}`
	req := httptest.NewRequest(http.MethodPost, "/webhook", strings.NewReader(body))
	rec := httptest.NewRecorder()
	srv.handleWebhook(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, conv.text)
}

func TestInvalidPayload(t *testing.T) {
	srv := newTestServer(&fakeConversation{}, &fakeSender{})

	req := httptest.NewRequest(http.MethodPost, "/webhook", strings.NewReader("kein json"))
	rec := httptest.NewRecorder()
	srv.handleWebhook(rec, req)

	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDocumentReplyCleansUpFile(t *testing.T) {
	tmp := filepath.Join(t.TempDir(), "Rechnung_2026-0001.pdf")
	require.NoError(t, os.WriteFile(tmp, []byte("%PDF-1.4"), 0o644))

	conv := &fakeConversation{replies: []domain.Reply{{Document: &domain.Document{
		FilePath: tmp,
		FileName: "Rechnung_2026-0001.pdf",
		Caption:  "✅ Rechnung 2026-0001 erstellt.",
		Cleanup:  true,
	}}}}
	sender := &fakeSender{}
	srv := newTestServer(conv, sender, "491701234567")

	req := httptest.NewRequest(http.MethodPost, "/webhook", strings.NewReader(inboundBody))
	rec := httptest.NewRecorder()
	srv.handleWebhook(rec, req)

	require.Len(t, sender.documents, 1)
	assert.Equal(t, "Rechnung_2026-0001.pdf", sender.documents[0])
	assert.Equal(t, "✅ Rechnung 2026-0001 erstellt.", sender.captions[0])

	_, err := os.Stat(tmp)
	assert.True(t, os.IsNotExist(err))
}
