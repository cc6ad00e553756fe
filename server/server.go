// Package server exposes the conversation-to-configuration loop over HTTP.
package server

import (
	"fmt"
	"strings"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/spheronhq/iclgen/agent"
	"github.com/spheronhq/iclgen/pkg/icl"
	"github.com/spheronhq/iclgen/pkg/knowledge"
	"github.com/spheronhq/iclgen/pkg/llm"
	"github.com/spheronhq/iclgen/pkg/prompt"
)

// ErrorResponse is the JSON envelope for HTTP-level failures.
type ErrorResponse struct {
	Error string `json:"error"`
}

// Server wires the session manager and agent behind a fiber app.
type Server struct {
	config  Config
	logger  *zap.Logger
	app     *fiber.App
	manager *agent.Manager
	agent   *agent.Agent
}

// New creates a server around the given generation client. recorder may be
// nil to disable persistence.
func New(config Config, client llm.Client, recorder agent.Recorder, logger *zap.Logger) (*Server, error) {
	base := knowledge.Default()
	if config.Prompt.KnowledgePath != "" {
		loaded, err := knowledge.Load(config.Prompt.KnowledgePath)
		if err != nil {
			return nil, fmt.Errorf("failed to load knowledge base: %w", err)
		}
		base = loaded
		logger.Info("loaded knowledge base", zap.String("path", config.Prompt.KnowledgePath))
	}

	composer := prompt.NewComposer(base, config.Prompt.MaxHistoryMessages)
	a := agent.New(client, composer, icl.DefaultSchema(), recorder, logger).
		WithTimeout(config.Gemini.Timeout.Duration)

	app := fiber.New(fiber.Config{
		// Disable startup message for cleaner logs
		DisableStartupMessage: true,
	})

	s := &Server{
		config:  config,
		logger:  logger,
		app:     app,
		manager: agent.NewManager(),
		agent:   a,
	}

	// Register routes
	app.Post("/api/sessions", s.handleCreateSession)
	app.Get("/api/sessions", s.handleListSessions)
	app.Post("/api/sessions/:id/messages", s.handleSubmitMessage)
	app.Get("/api/sessions/:id/document", s.handleGetDocument)

	// Health check
	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(map[string]string{"status": "ok"})
	})

	return s, nil
}

// Run starts the server on the configured listening address.
func (s *Server) Run() error {
	s.logger.Info("starting server", zap.String("listen", s.config.Listen))
	return s.app.Listen(s.config.Listen)
}

// Shutdown stops the server gracefully.
func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}

// handleCreateSession starts a fresh conversation session.
func (s *Server) handleCreateSession(c *fiber.Ctx) error {
	sess := s.manager.Create()
	s.logger.Info("session created", zap.String("session", sess.ID))
	return c.Status(fiber.StatusCreated).JSON(map[string]string{"session_id": sess.ID})
}

// handleListSessions returns a snapshot of live sessions.
func (s *Server) handleListSessions(c *fiber.Ctx) error {
	infos := s.manager.List()
	return c.JSON(map[string]any{
		"count":    len(infos),
		"sessions": infos,
	})
}

// submitRequest is the body of a submit-message call.
type submitRequest struct {
	Text string `json:"text"`
}

// submitResponse is the outcome of one conversation turn.
type submitResponse struct {
	Reply            string           `json:"reply"`
	Document         *string          `json:"document"`
	ValidationErrors []icl.FieldError `json:"validation_errors"`
	ErrorKind        string           `json:"error_kind,omitempty"`
}

// handleSubmitMessage runs one full turn: compose, generate, extract,
// validate, commit. Turn failures are part of the response, not HTTP errors;
// the session stays usable either way.
func (s *Server) handleSubmitMessage(c *fiber.Ctx) error {
	sess, ok := s.manager.Get(c.Params("id"))
	if !ok {
		return c.Status(fiber.StatusNotFound).JSON(ErrorResponse{Error: "session not found"})
	}

	var req submitRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "invalid request body"})
	}
	if strings.TrimSpace(req.Text) == "" {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "text is required"})
	}

	result := s.agent.HandleMessage(c.Context(), sess, req.Text)

	resp := submitResponse{
		Reply:            result.Reply,
		ValidationErrors: result.ValidationErrors,
		ErrorKind:        result.ErrorKind,
	}
	if result.DocumentYAML != "" {
		doc := result.DocumentYAML
		resp.Document = &doc
	}
	if resp.ValidationErrors == nil {
		resp.ValidationErrors = []icl.FieldError{}
	}

	return c.JSON(resp)
}

// handleGetDocument serves the session's current validated document as YAML.
func (s *Server) handleGetDocument(c *fiber.Ctx) error {
	sess, ok := s.manager.Get(c.Params("id"))
	if !ok {
		return c.Status(fiber.StatusNotFound).JSON(ErrorResponse{Error: "session not found"})
	}

	doc := sess.DocumentYAML()
	if doc == "" {
		return c.Status(fiber.StatusNotFound).JSON(ErrorResponse{Error: "session has no validated document"})
	}

	c.Set("Content-Type", "application/x-yaml")
	c.Set("Content-Disposition", `attachment; filename="config.yaml"`)
	return c.SendString(doc)
}
