package web

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
)

const jsonContentType = "application/json; charset=utf-8"

type httpStatus interface {
	HTTPStatus() int
}

// JSONResponse encodes Data as JSON with Status (200 when zero).
type JSONResponse[T any] struct {
	Data   T
	Status int
}

// NewJSONResponse returns a 200 JSON response.
func NewJSONResponse[T any](data T) *JSONResponse[T] {
	return &JSONResponse[T]{Data: data}
}

// NewJSONResponseWithStatus returns a JSON response with the given status.
func NewJSONResponseWithStatus[T any](data T, status int) *JSONResponse[T] {
	return &JSONResponse[T]{Data: data, Status: status}
}

func (j *JSONResponse[T]) Encode() ([]byte, string, error) {
	data, err := json.Marshal(j.Data)
	if err != nil {
		return nil, "", err
	}
	return data, jsonContentType, nil
}

func (j *JSONResponse[T]) HTTPStatus() int {
	if j.Status == 0 {
		return http.StatusOK
	}
	return j.Status
}

// ErrorResponse renders {"error": message} with Status.
type ErrorResponse struct {
	Message string `json:"error"`
	Status  int    `json:"-"`
}

// NewError returns an ErrorResponse. A zero status means 500.
func NewError(status int, msg string) *ErrorResponse {
	return &ErrorResponse{Message: msg, Status: status}
}

func (e *ErrorResponse) Encode() ([]byte, string, error) {
	data, err := json.Marshal(e)
	return data, jsonContentType, err
}

func (e *ErrorResponse) HTTPStatus() int {
	if e.Status == 0 {
		return http.StatusInternalServerError
	}
	return e.Status
}

// Respond writes resp to w. A nil resp writes 204 with no body.
func Respond(ctx context.Context, w http.ResponseWriter, resp Encoder) error {
	// The client is gone; nothing to write to.
	if err := ctx.Err(); err != nil && errors.Is(err, context.Canceled) {
		return errors.New("respond: client disconnected")
	}

	statusCode := http.StatusOK
	switch v := resp.(type) {
	case nil:
		statusCode = http.StatusNoContent
	case httpStatus:
		statusCode = v.HTTPStatus()
	}

	if statusCode == http.StatusNoContent {
		w.WriteHeader(statusCode)
		return nil
	}

	data, contentType, err := resp.Encode()
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		return fmt.Errorf("respond: encode: %w", err)
	}

	w.Header().Set("Content-Type", contentType)
	w.WriteHeader(statusCode)
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("respond: write: %w", err)
	}
	return nil
}

// WriteJSON writes v with status outside of an App handler (middleware, health checks).
func WriteJSON(w http.ResponseWriter, status int, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		w.WriteHeader(http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", jsonContentType)
	w.WriteHeader(status)
	_, _ = w.Write(data)
}
