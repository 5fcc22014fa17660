package api

import (
	"context"
	"net/http"

	"github.com/erazemk/kristalball/internal/model"
)

// The helpers below adapt service methods of the common shapes to handlers.

func getHandler[Out any](fn func(context.Context, model.Principal, int64) (Out, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r)
		if err != nil {
			writeError(w, r, err)
			return
		}
		out, err := fn(r.Context(), GetPrincipal(r.Context()), id)
		if err != nil {
			writeError(w, r, err)
			return
		}
		jsonResponse(w, r, http.StatusOK, out)
	}
}

func createHandler[In, Out any](fn func(context.Context, model.Principal, In) (Out, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req In
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, r, err)
			return
		}
		out, err := fn(r.Context(), GetPrincipal(r.Context()), req)
		if err != nil {
			writeError(w, r, err)
			return
		}
		jsonResponse(w, r, http.StatusCreated, out)
	}
}

func updateHandler[In, Out any](fn func(context.Context, model.Principal, int64, In) (Out, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r)
		if err != nil {
			writeError(w, r, err)
			return
		}
		var req In
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, r, err)
			return
		}
		out, err := fn(r.Context(), GetPrincipal(r.Context()), id, req)
		if err != nil {
			writeError(w, r, err)
			return
		}
		jsonResponse(w, r, http.StatusOK, out)
	}
}

func deleteHandler(entity string, fn func(context.Context, model.Principal, int64) error) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := pathID(r)
		if err != nil {
			writeError(w, r, err)
			return
		}
		if err := fn(r.Context(), GetPrincipal(r.Context()), id); err != nil {
			writeError(w, r, err)
			return
		}
		jsonResponse(w, r, http.StatusOK, message(entity+" deleted"))
	}
}

// listResponse writes items, never null.
func listResponse[T any](w http.ResponseWriter, r *http.Request, items []T) {
	if items == nil {
		items = []T{}
	}
	jsonResponse(w, r, http.StatusOK, items)
}
