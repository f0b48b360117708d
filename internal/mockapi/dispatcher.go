// Package mockapi answers REST-shaped requests in process, without a network
// hop. Callers hand it (method, path, body, query) and get back the payload
// the HTTP API would have produced. It never returns an error: failures come
// back as an error envelope so the caller can keep rendering.
package mockapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/aoideee/libraryhub/internal/data"
)

// Request is one call against the mock surface.
type Request struct {
	Method string
	Path   string
	Body   json.RawMessage
	Query  url.Values
}

// envelope mirrors the HTTP API's top-level JSON object.
type envelope map[string]any

var (
	errBodyRequired = errors.New("request body is required")
	errInvalidID    = errors.New("invalid id parameter")
)

func errMethodOnItem(method string) error {
	return fmt.Errorf("the %s method is not supported on a single record", method)
}

func errMethodOnCollection(method string) error {
	return fmt.Errorf("the %s method requires a record id", method)
}

// handlerFunc serves a matched request. id is nil on collection routes.
type handlerFunc func(ctx context.Context, req Request, id *int64) (any, error)

type route struct {
	path   string
	prefix bool // also match path + "/<id>"
	serve  map[string]handlerFunc
}

// Dispatcher routes requests to the record stores.
type Dispatcher struct {
	models data.Models
	logger *slog.Logger
	routes []route
}

func New(models data.Models, logger *slog.Logger) *Dispatcher {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	d := &Dispatcher{models: models, logger: logger}
	d.routes = d.buildRoutes()
	return d
}

// Dispatch serves req. The result is always JSON-encodable: a record, a
// list, nil for a missing record, or an envelope.
func (d *Dispatcher) Dispatch(ctx context.Context, req Request) (resp any) {
	req.Method = strings.ToUpper(req.Method)
	req.Path, req.Query = splitPath(req.Path, req.Query)
	endpoint := req.Method + " " + req.Path

	defer func() {
		if r := recover(); r != nil {
			d.logger.Error("dispatch panic", "endpoint", endpoint, "panic", r)
			resp = errorEnvelope(endpoint, fmt.Sprint(r), nil)
		}
	}()

	rt, id, matched, err := d.match(req.Path)
	if !matched {
		return envelope{"success": true, "message": "no handler for " + endpoint}
	}
	if err != nil {
		return d.fail(endpoint, err)
	}

	h, ok := rt.serve[req.Method]
	if !ok {
		return d.fail(endpoint, fmt.Errorf("the %s method is not supported for this resource", req.Method))
	}
	switch req.Method {
	case http.MethodPost, http.MethodPut, http.MethodPatch:
		if len(bytes.TrimSpace(req.Body)) == 0 {
			return d.fail(endpoint, errBodyRequired)
		}
	}

	out, err := h(ctx, req, id)
	if err != nil {
		if errors.Is(err, data.ErrRecordNotFound) {
			return nil
		}
		return d.fail(endpoint, err)
	}
	return out
}

// match finds the route for path. An exact match wins; otherwise the first
// prefix route whose path is followed by "/<id>" is used.
func (d *Dispatcher) match(path string) (route, *int64, bool, error) {
	for _, rt := range d.routes {
		if path == rt.path {
			return rt, nil, true, nil
		}
	}
	for _, rt := range d.routes {
		if !rt.prefix || !strings.HasPrefix(path, rt.path+"/") {
			continue
		}
		rest := strings.TrimPrefix(path, rt.path+"/")
		id, err := strconv.ParseInt(rest, 10, 64)
		if err != nil || id < 1 {
			return rt, nil, true, errInvalidID
		}
		return rt, &id, true, nil
	}
	return route{}, nil, false, nil
}

func (d *Dispatcher) fail(endpoint string, err error) envelope {
	d.logger.Warn("dispatch failed", "endpoint", endpoint, "error", err)
	var verr *data.ValidationError
	if errors.As(err, &verr) {
		return errorEnvelope(endpoint, err.Error(), verr.Errors)
	}
	return errorEnvelope(endpoint, err.Error(), nil)
}

func errorEnvelope(endpoint, message string, fields map[string]string) envelope {
	env := envelope{"error": true, "message": message, "endpoint": endpoint}
	if len(fields) > 0 {
		env["errors"] = fields
	}
	return env
}

// splitPath moves an inline query string into query and drops a trailing slash.
func splitPath(path string, query url.Values) (string, url.Values) {
	if query == nil {
		query = url.Values{}
	}
	if i := strings.IndexByte(path, '?'); i >= 0 {
		if inline, err := url.ParseQuery(path[i+1:]); err == nil {
			for k, vs := range inline {
				for _, v := range vs {
					query.Add(k, v)
				}
			}
		}
		path = path[:i]
	}
	if len(path) > 1 {
		path = strings.TrimSuffix(path, "/")
	}
	return path, query
}

func decode(body json.RawMessage, dst any) error {
	if err := json.Unmarshal(body, dst); err != nil {
		return fmt.Errorf("body contains badly-formed JSON: %w", err)
	}
	return nil
}

func queryInt(q url.Values, key string) int {
	n, err := strconv.Atoi(q.Get(key))
	if err != nil {
		return 0
	}
	return n
}
