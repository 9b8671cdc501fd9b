// Package handler exposes the user service over HTTP under /usuarios.
package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"user-registry/internal/platform/web"
	"user-registry/internal/user/domain"
	"user-registry/internal/user/service"
)

// Client-facing messages.
const (
	msgCreated          = "Usuário criado com sucesso"
	msgUpdated          = "Usuário atualizado com sucesso"
	msgDeleted          = "Usuário removido com sucesso"
	msgMissingFields    = "Todos os campos são obrigatórios"
	msgNoFields         = "Pelo menos um campo deve ser fornecido para atualização"
	msgInvalidEmail     = "Email inválido"
	msgInvalidAge       = "Idade inválida"
	msgInvalidName      = "Nome inválido"
	msgInvalidBody      = "Corpo da requisição inválido"
	msgEmailInUse       = "Este email já está em uso"
	msgEmailInUseUpdate = "Este email já está em uso por outro usuário"
	msgNotFound         = "Usuário não encontrado"
	msgInternal         = "Erro interno do servidor"
)

// UserService is the service surface the handler needs.
type UserService interface {
	List(ctx context.Context) ([]domain.User, error)
	Get(ctx context.Context, id string) (*domain.User, error)
	Create(ctx context.Context, in service.CreateInput) (*domain.User, error)
	Update(ctx context.Context, id string, in service.UpdateInput) (*domain.User, error)
	Delete(ctx context.Context, id string) error
}

// Server serves the /usuarios routes.
type Server struct {
	svc UserService
	log *slog.Logger
}

// NewServer returns a Server. A nil log uses slog.Default.
func NewServer(svc UserService, log *slog.Logger) *Server {
	if log == nil {
		log = slog.Default()
	}
	return &Server{svc: svc, log: log}
}

// Register adds the user routes to app.
func (s *Server) Register(app *web.App) {
	app.Handle(http.MethodGet, "/usuarios", s.List)
	app.Handle(http.MethodPost, "/usuarios", s.Create)
	app.Handle(http.MethodGet, "/usuarios/{id}", s.Get)
	app.Handle(http.MethodPut, "/usuarios/{id}", s.Update)
	app.Handle(http.MethodDelete, "/usuarios/{id}", s.Delete)
}

type messageResponse struct {
	Message string `json:"message"`
}

type userResponse struct {
	Message string       `json:"message"`
	User    *domain.User `json:"user"`
}

// userPayload keeps raw field values so presence, null and type can be told apart.
type userPayload struct {
	Email json.RawMessage `json:"email"`
	Name  json.RawMessage `json:"name"`
	Age   json.RawMessage `json:"age"`
}

func (p userPayload) fields() (email, name, age *string, err error) {
	if email, err = textField(p.Email, service.FieldEmail, false); err != nil {
		return nil, nil, nil, err
	}
	if name, err = textField(p.Name, service.FieldName, false); err != nil {
		return nil, nil, nil, err
	}
	if age, err = textField(p.Age, service.FieldAge, true); err != nil {
		return nil, nil, nil, err
	}
	return email, name, age, nil
}

// List handles GET /usuarios.
func (s *Server) List(ctx context.Context, r *http.Request) web.Encoder {
	users, err := s.svc.List(ctx)
	if err != nil {
		return s.errorResponse(ctx, err, false)
	}
	return web.NewJSONResponse(users)
}

// Get handles GET /usuarios/{id}.
func (s *Server) Get(ctx context.Context, r *http.Request) web.Encoder {
	u, err := s.svc.Get(ctx, web.Param(r, "id"))
	if err != nil {
		return s.errorResponse(ctx, err, false)
	}
	return web.NewJSONResponse(u)
}

// Create handles POST /usuarios.
func (s *Server) Create(ctx context.Context, r *http.Request) web.Encoder {
	p, ok := decodePayload(r)
	if !ok {
		return web.NewError(http.StatusBadRequest, msgInvalidBody)
	}
	email, name, age, err := p.fields()
	if err != nil {
		return s.errorResponse(ctx, err, false)
	}
	u, err := s.svc.Create(ctx, service.CreateInput{Email: email, Name: name, Age: age})
	if err != nil {
		return s.errorResponse(ctx, err, false)
	}
	return web.NewJSONResponseWithStatus(userResponse{Message: msgCreated, User: u}, http.StatusCreated)
}

// Update handles PUT /usuarios/{id}.
func (s *Server) Update(ctx context.Context, r *http.Request) web.Encoder {
	p, ok := decodePayload(r)
	if !ok {
		return web.NewError(http.StatusBadRequest, msgInvalidBody)
	}
	id := web.Param(r, "id")
	email, name, age, err := p.fields()
	if err != nil {
		// An unknown id is reported before field errors.
		if _, getErr := s.svc.Get(ctx, id); getErr != nil {
			return s.errorResponse(ctx, getErr, true)
		}
		return s.errorResponse(ctx, err, true)
	}
	u, err := s.svc.Update(ctx, id, service.UpdateInput{Email: email, Name: name, Age: age})
	if err != nil {
		return s.errorResponse(ctx, err, true)
	}
	return web.NewJSONResponse(userResponse{Message: msgUpdated, User: u})
}

// Delete handles DELETE /usuarios/{id}.
func (s *Server) Delete(ctx context.Context, r *http.Request) web.Encoder {
	if err := s.svc.Delete(ctx, web.Param(r, "id")); err != nil {
		return s.errorResponse(ctx, err, false)
	}
	return web.NewJSONResponse(messageResponse{Message: msgDeleted})
}

// decodePayload treats an empty body as an empty object.
func decodePayload(r *http.Request) (userPayload, bool) {
	var p userPayload
	if err := web.DecodeJSON(r, &p); err != nil && !errors.Is(err, web.ErrEmptyBody) {
		return userPayload{}, false
	}
	return p, true
}

// textField returns nil for an absent or null field. Strings are returned as-is; numbers only
// when allowNumber is set. Any other JSON type is an invalid value for field.
func textField(raw json.RawMessage, field string, allowNumber bool) (*string, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil, nil
	}
	invalid := &service.ValidationError{Field: field, Reason: service.ReasonInvalid}
	switch c := raw[0]; {
	case c == '"':
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return nil, invalid
		}
		return &s, nil
	case allowNumber && (c == '-' || (c >= '0' && c <= '9')):
		s := string(raw)
		return &s, nil
	default:
		return nil, invalid
	}
}

func (s *Server) errorResponse(ctx context.Context, err error, updating bool) web.Encoder {
	var verr *service.ValidationError
	switch {
	case errors.As(err, &verr):
		return web.NewError(http.StatusBadRequest, validationMessage(verr))
	case errors.Is(err, service.ErrValidation):
		return web.NewError(http.StatusBadRequest, msgMissingFields)
	case errors.Is(err, service.ErrDuplicateEmail):
		if updating {
			return web.NewError(http.StatusConflict, msgEmailInUseUpdate)
		}
		return web.NewError(http.StatusConflict, msgEmailInUse)
	case errors.Is(err, service.ErrNotFound):
		return web.NewError(http.StatusNotFound, msgNotFound)
	default:
		s.log.ErrorContext(ctx, "user handler: request failed", "error", err)
		return web.NewError(http.StatusInternalServerError, msgInternal)
	}
}

func validationMessage(verr *service.ValidationError) string {
	switch verr.Reason {
	case service.ReasonMissing:
		return msgMissingFields
	case service.ReasonNoFields:
		return msgNoFields
	}
	switch verr.Field {
	case service.FieldEmail:
		return msgInvalidEmail
	case service.FieldAge:
		return msgInvalidAge
	default:
		return msgInvalidName
	}
}
