// Package jsonapi writes JSON:API documents for the catalog endpoints.
// See https://jsonapi.org for the format.
package jsonapi

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
)

// ContentType is the JSON:API media type.
const ContentType = "application/vnd.api+json"

// Document is a JSON:API top-level document.
type Document struct {
	Data   any     `json:"data,omitempty"`
	Errors []Error `json:"errors,omitempty"`
	Meta   Meta    `json:"meta,omitempty"`
}

// Resource is a JSON:API resource object.
type Resource struct {
	Type       string         `json:"type"`
	ID         string         `json:"id"`
	Attributes map[string]any `json:"attributes,omitempty"`
}

// Error is a JSON:API error object.
type Error struct {
	Status string `json:"status"`
	Code   string `json:"code"`
	Title  string `json:"title"`
	Detail string `json:"detail,omitempty"`
}

// Meta is free-form document metadata.
type Meta map[string]any

// NewResource creates a resource with an empty attribute map.
func NewResource(resourceType, id string) Resource {
	return Resource{Type: resourceType, ID: id, Attributes: make(map[string]any)}
}

// Attr sets one attribute and returns the resource.
func (r Resource) Attr(key string, value any) Resource {
	if r.Attributes == nil {
		r.Attributes = make(map[string]any)
	}
	r.Attributes[key] = value
	return r
}

// StatusCode returns the HTTP status code as an int.
func (e Error) StatusCode() int {
	code, _ := strconv.Atoi(e.Status)
	return code
}

func newError(status int, code, detail string) Error {
	return Error{
		Status: strconv.Itoa(status),
		Code:   code,
		Title:  http.StatusText(status),
		Detail: detail,
	}
}

// ErrNotFound creates a 404 error for a resource type.
func ErrNotFound(resourceType string) Error {
	return newError(http.StatusNotFound, "not_found", fmt.Sprintf("The requested %s was not found", resourceType))
}

// ErrConflict creates a 409 error.
func ErrConflict(detail string) Error {
	return newError(http.StatusConflict, "conflict", detail)
}

// ErrInternal creates a 500 error.
func ErrInternal(detail string) Error {
	if detail == "" {
		detail = "An internal error occurred"
	}
	return newError(http.StatusInternalServerError, "internal_error", detail)
}

// WriteDocument writes doc with the JSON:API content type.
func WriteDocument(w http.ResponseWriter, status int, doc Document) {
	w.Header().Set("Content-Type", ContentType)
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(doc)
}

// WriteCollection writes a collection with optional metadata. A nil slice
// is written as an empty array.
func WriteCollection(w http.ResponseWriter, status int, resources []Resource, meta Meta) {
	if resources == nil {
		resources = []Resource{}
	}
	WriteDocument(w, status, Document{Data: resources, Meta: meta})
}

// WriteError writes one or more errors. The HTTP status is taken from the
// first error.
func WriteError(w http.ResponseWriter, errs ...Error) {
	if len(errs) == 0 {
		errs = []Error{ErrInternal("")}
	}
	status := errs[0].StatusCode()
	if status == 0 {
		status = http.StatusInternalServerError
	}
	WriteDocument(w, status, Document{Errors: errs})
}
