// Package service implements the user record contract: validation, existence and email
// uniqueness checks, and the error kinds the transport maps to status codes.
package service

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"user-registry/internal/telemetry"
	telemetrydomain "user-registry/internal/telemetry/domain"
	"user-registry/internal/user/domain"
	"user-registry/internal/user/repository"
)

// Sentinel errors for the user service; handlers map them to HTTP status codes.
var (
	ErrValidation       = errors.New("invalid user input")
	ErrDuplicateEmail   = errors.New("email already in use")
	ErrNotFound         = errors.New("user not found")
	ErrStoreUnavailable = errors.New("user store unavailable")
)

// Reason classifies a ValidationError.
type Reason string

const (
	ReasonMissing  Reason = "missing"
	ReasonInvalid  Reason = "invalid"
	ReasonNoFields Reason = "no_fields"
)

// Field names used in ValidationError.
const (
	FieldEmail = "email"
	FieldName  = "name"
	FieldAge   = "age"
)

// ValidationError reports which input field was rejected. errors.Is(err, ErrValidation) holds for it.
type ValidationError struct {
	Field  string
	Reason Reason
}

func (e *ValidationError) Error() string {
	if e.Reason == ReasonNoFields {
		return "invalid user input: no fields to update"
	}
	return fmt.Sprintf("invalid user input: %s %s", e.Field, e.Reason)
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// EventSource is the Source recorded on events emitted by the service.
const EventSource = "user-service"

// agePattern accepts integers with an optional all-zero fraction ("30", "30.0").
var agePattern = regexp.MustCompile(`^-?[0-9]+(\.0+)?$`)

// CreateInput carries raw create fields. nil means the field was not sent.
type CreateInput struct {
	Email *string
	Name  *string
	Age   *string
}

// UpdateInput carries raw update fields. nil means keep the current value.
type UpdateInput struct {
	Email *string
	Name  *string
	Age   *string
}

func (in UpdateInput) empty() bool {
	return in.Email == nil && in.Name == nil && in.Age == nil
}

// UserService implements List, Get, Create, Update and Delete over a Repository.
// It holds no per-request state and is safe for concurrent use.
type UserService struct {
	repo    repository.Repository
	emitter telemetry.EventEmitter
}

// NewUserService returns a UserService. emitter may be nil to disable user events.
func NewUserService(repo repository.Repository, emitter telemetry.EventEmitter) *UserService {
	return &UserService{repo: repo, emitter: emitter}
}

// List returns every user ordered by id. The slice is never nil on success.
func (s *UserService) List(ctx context.Context) ([]domain.User, error) {
	users, err := s.repo.List(ctx)
	if err != nil {
		return nil, storeErr(err)
	}
	if users == nil {
		users = []domain.User{}
	}
	return users, nil
}

// Get returns the user for id, or ErrNotFound.
func (s *UserService) Get(ctx context.Context, id string) (*domain.User, error) {
	uid, ok := parseID(id)
	if !ok {
		return nil, ErrNotFound
	}
	u, err := s.repo.GetByID(ctx, uid)
	if err != nil {
		return nil, storeErr(err)
	}
	if u == nil {
		return nil, ErrNotFound
	}
	return u, nil
}

// Create validates in, rejects an email already in use, and inserts the user.
func (s *UserService) Create(ctx context.Context, in CreateInput) (*domain.User, error) {
	email, name, ageText := trimmed(in.Email), trimmed(in.Name), trimmed(in.Age)
	switch {
	case email == "":
		return nil, &ValidationError{Field: FieldEmail, Reason: ReasonMissing}
	case name == "":
		return nil, &ValidationError{Field: FieldName, Reason: ReasonMissing}
	case ageText == "":
		return nil, &ValidationError{Field: FieldAge, Reason: ReasonMissing}
	}
	age, err := parseAge(ageText)
	if err != nil {
		return nil, err
	}
	// Zero is falsy, so a zero age counts as not provided.
	if age == 0 {
		return nil, &ValidationError{Field: FieldAge, Reason: ReasonMissing}
	}

	existing, err := s.repo.GetByEmail(ctx, email)
	if err != nil {
		return nil, storeErr(err)
	}
	if existing != nil {
		return nil, ErrDuplicateEmail
	}

	u := &domain.User{Email: email, Name: name, Age: age}
	if err := u.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrValidation, err)
	}
	if err := s.repo.Create(ctx, u); err != nil {
		return nil, writeErr(err)
	}
	s.emit(ctx, telemetrydomain.EventUserCreated, u)
	return u, nil
}

// Update merges the provided fields of in into the user with id.
func (s *UserService) Update(ctx context.Context, id string, in UpdateInput) (*domain.User, error) {
	if in.empty() {
		return nil, &ValidationError{Reason: ReasonNoFields}
	}
	uid, ok := parseID(id)
	if !ok {
		return nil, ErrNotFound
	}
	current, err := s.repo.GetByID(ctx, uid)
	if err != nil {
		return nil, storeErr(err)
	}
	if current == nil {
		return nil, ErrNotFound
	}

	next := *current
	if in.Email != nil {
		email := strings.TrimSpace(*in.Email)
		if email == "" {
			return nil, &ValidationError{Field: FieldEmail, Reason: ReasonInvalid}
		}
		next.Email = email
	}
	if in.Name != nil {
		name := strings.TrimSpace(*in.Name)
		if name == "" {
			return nil, &ValidationError{Field: FieldName, Reason: ReasonInvalid}
		}
		next.Name = name
	}
	if in.Age != nil {
		age, err := parseAge(strings.TrimSpace(*in.Age))
		if err != nil {
			return nil, err
		}
		next.Age = age
	}

	if next.Email != current.Email {
		holder, err := s.repo.GetByEmail(ctx, next.Email)
		if err != nil {
			return nil, storeErr(err)
		}
		if holder != nil && holder.ID != current.ID {
			return nil, ErrDuplicateEmail
		}
	}

	if err := s.repo.Update(ctx, &next); err != nil {
		return nil, writeErr(err)
	}
	s.emit(ctx, telemetrydomain.EventUserUpdated, &next)
	return &next, nil
}

// Delete removes the user with id permanently.
func (s *UserService) Delete(ctx context.Context, id string) error {
	uid, ok := parseID(id)
	if !ok {
		return ErrNotFound
	}
	current, err := s.repo.GetByID(ctx, uid)
	if err != nil {
		return storeErr(err)
	}
	if current == nil {
		return ErrNotFound
	}
	if err := s.repo.Delete(ctx, uid); err != nil {
		return writeErr(err)
	}
	s.emit(ctx, telemetrydomain.EventUserDeleted, current)
	return nil
}

// Ping reports whether the underlying store is reachable.
func (s *UserService) Ping(ctx context.Context) error {
	return s.repo.Ping(ctx)
}

func (s *UserService) emit(ctx context.Context, eventType telemetrydomain.EventType, u *domain.User) {
	if s.emitter == nil {
		return
	}
	telemetry.EmitAsync(ctx, s.emitter, telemetrydomain.NewUserEvent(eventType, u.ID, u.Email, EventSource))
}

func trimmed(p *string) string {
	if p == nil {
		return ""
	}
	return strings.TrimSpace(*p)
}

// parseID accepts positive base-10 integers only; anything else cannot name a user.
func parseID(id string) (int64, bool) {
	n, err := strconv.ParseInt(id, 10, 64)
	if err != nil || n <= 0 {
		return 0, false
	}
	return n, true
}

func parseAge(s string) (int, error) {
	invalid := &ValidationError{Field: FieldAge, Reason: ReasonInvalid}
	if !agePattern.MatchString(s) {
		return 0, invalid
	}
	whole, _, _ := strings.Cut(s, ".")
	age, err := strconv.Atoi(whole)
	if err != nil || age < 0 || age > domain.MaxAge {
		return 0, invalid
	}
	return age, nil
}

func storeErr(err error) error {
	return fmt.Errorf("%w: %v", ErrStoreUnavailable, err)
}

// writeErr maps repository write errors; a unique violation on insert or update is the same
// DuplicateEmail kind as the pre-check.
func writeErr(err error) error {
	switch {
	case errors.Is(err, repository.ErrDuplicateEmail):
		return ErrDuplicateEmail
	case errors.Is(err, repository.ErrNotFound):
		return ErrNotFound
	default:
		return storeErr(err)
	}
}
