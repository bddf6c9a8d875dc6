package whatsapp

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"time"

	"mietbot/internal/config"
	"mietbot/internal/domain"
	"mietbot/internal/metrics"
	"mietbot/internal/models"

	"github.com/rs/zerolog"
)

// Sender delivers outbound WhatsApp messages.
type Sender interface {
	SendText(ctx context.Context, to, body string) error
	SendDocument(ctx context.Context, to, filePath, fileName, caption string) error
}

// AccessChecker answers whether a phone number may talk to the bot.
type AccessChecker interface {
	IsWhatsAppSenderAuthorized(ctx context.Context, phone string) (bool, error)
}

// Server receives Cloud API webhook callbacks: GET for the one-time
// subscription handshake, POST for inbound messages.
type Server struct {
	cfg          config.WhatsAppConfig
	access       AccessChecker
	conversation domain.Conversation
	sender       Sender
	server       *http.Server
	logger       *zerolog.Logger
}

func NewServer(cfg config.WhatsAppConfig, access AccessChecker, conversation domain.Conversation, sender Sender, logger *zerolog.Logger) *Server {
	srv := &Server{
		cfg:          cfg,
		access:       access,
		conversation: conversation,
		sender:       sender,
		logger:       logger,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("/webhook", srv.handleWebhook)

	srv.server = &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.WebhookPort),
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
		WriteTimeout:      15 * time.Second,
	}

	return srv
}

func (s *Server) Start() error {
	if s.server == nil {
		return fmt.Errorf("webhook server is not initialized")
	}
	s.logger.Info().Str("addr", s.server.Addr).Msg("whatsapp webhook listening")
	if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	if s.server == nil {
		return nil
	}
	return s.server.Shutdown(ctx)
}

func (s *Server) handleWebhook(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		metrics.IncWebhook("verify")
		s.handleVerify(w, r)
	case http.MethodPost:
		metrics.IncWebhook("inbound")
		s.handleInbound(w, r)
	default:
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
	}
}

// handleVerify answers the subscription handshake: Meta sends the
// verify token and expects the challenge echoed back verbatim.
func (s *Server) handleVerify(w http.ResponseWriter, r *http.Request) {
	mode := r.URL.Query().Get("hub.mode")
	token := r.URL.Query().Get("hub.verify_token")
	challenge := r.URL.Query().Get("hub.challenge")

	if mode != "subscribe" || subtle.ConstantTimeCompare([]byte(token), []byte(s.cfg.VerifyToken)) != 1 {
		s.logger.Warn().Str("mode", mode).Msg("webhook verification rejected")
		writeError(w, http.StatusForbidden, "verification failed")
		return
	}

	w.WriteHeader(http.StatusOK)
	fmt.Fprint(w, challenge)
}

type webhookPayload struct {
	Entry []struct {
		Changes []struct {
			Value struct {
				Messages []inboundMessage `json:"messages"`
			} `json:"value"`
		} `json:"changes"`
	} `json:"entry"`
}

type inboundMessage struct {
	From string `json:"from"`
	Type string `json:"type"`
	Text struct {
		Body string `json:"body"`
	} `json:"text"`
}

func (s *Server) handleInbound(w http.ResponseWriter, r *http.Request) {
	var payload webhookPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		writeError(w, http.StatusBadRequest, "invalid payload")
		return
	}

	// Собираем текстовые сообщения из всех изменений
	for _, entry := range payload.Entry {
		for _, change := range entry.Changes {
			for _, msg := range change.Value.Messages {
				if msg.Type != "text" || msg.From == "" {
					continue
				}
				s.processMessage(r.Context(), msg.From, msg.Text.Body)
			}
		}
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "received"})
}

func (s *Server) processMessage(ctx context.Context, from, body string) {
	s.logger.Info().Str("from", from).Str("text", body).Msg("whatsapp message")

	authorized, err := s.access.IsWhatsAppSenderAuthorized(ctx, from)
	if err != nil {
		s.logger.Error().Err(err).Str("from", from).Msg("authorization check failed")
		return
	}
	if !authorized {
		// Неизвестные номера игнорируются без ответа
		s.logger.Warn().Str("from", from).Msg("Zugriff verweigert")
		return
	}

	replies := s.conversation.HandleMessage(ctx, models.ChannelWhatsApp, from, body)
	s.deliver(ctx, from, replies)
}

func (s *Server) deliver(ctx context.Context, to string, replies []domain.Reply) {
	for _, reply := range replies {
		if reply.Text != "" {
			if err := s.sender.SendText(ctx, to, reply.Text); err != nil {
				s.logger.Error().Err(err).Str("to", to).Msg("send text error")
			}
		}
		if reply.Document == nil {
			continue
		}

		doc := reply.Document
		if err := s.sender.SendDocument(ctx, to, doc.FilePath, doc.FileName, doc.Caption); err != nil {
			s.logger.Error().Err(err).Str("file", doc.FileName).Msg("send document error")
		}
		if doc.Cleanup {
			if err := os.Remove(doc.FilePath); err != nil && !os.IsNotExist(err) {
				s.logger.Warn().Err(err).Str("file", doc.FilePath).Msg("temp file cleanup failed")
			}
		}
	}
}

func writeJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}

func writeError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}
