// Package httpapi is the JSON/HTTP frontend described in §6: it translates
// the documented routes into wire.Query values, calls engine.Execute, and
// renders the wire.Reply (or error) back as JSON. It carries no business
// logic of its own.
package httpapi

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/zknill/poorly/engine"
	"github.com/zknill/poorly/value"
	"github.com/zknill/poorly/wire"
)

// Handler serves the route surface documented in spec.md §6 on top of a
// single engine.
type Handler struct {
	engine *engine.Engine
}

// NewHandler returns an http.Handler backed by e.
func NewHandler(e *engine.Engine) http.Handler {
	h := &Handler{engine: e}
	mux := http.NewServeMux()
	mux.HandleFunc("/", h.route)
	return mux
}

func (h *Handler) route(w http.ResponseWriter, r *http.Request) {
	parts := strings.Split(strings.Trim(r.URL.Path, "/"), "/")
	if len(parts) == 0 || parts[0] == "" {
		writeError(w, http.StatusBadRequest, errors.New("httpapi: empty path"))
		return
	}

	var q wire.Query
	var err error

	switch {
	case len(parts) == 1:
		q, err = h.dbLevelQuery(r, parts[0])
	case len(parts) == 2 && parts[1] == "":
		q, err = h.dbLevelQuery(r, parts[0])
	case len(parts) == 3 && parts[1] == "create":
		q, err = h.createTableQuery(r, parts[0], parts[2])
	case len(parts) == 3 && parts[1] == "drop":
		q = wire.Query{Kind: wire.QueryDrop, Database: parts[0], Table: parts[2]}
	case len(parts) == 3 && parts[1] == "alter":
		q, err = h.alterTableQuery(r, parts[0], parts[2])
	case len(parts) == 3:
		q, err = h.joinOrRowQuery(r, parts[0], parts[1], parts[2])
	case len(parts) == 2:
		q, err = h.rowQuery(r, parts[0], parts[1])
	default:
		err = errors.New("httpapi: unrecognized route")
	}
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	reply, err := h.engine.Execute(r.Context(), q)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeReply(w, statusFor2xx(r.Method), reply)
}

func (h *Handler) dbLevelQuery(r *http.Request, db string) (wire.Query, error) {
	switch r.Method {
	case http.MethodPost:
		var body struct {
			Kind string `json:"kind"`
		}
		decodeBody(r, &body)
		kind := body.Kind
		if kind == "" {
			kind = "Poorly"
		}
		return wire.Query{Kind: wire.QueryCreateDb, Database: db, BackendKind: kind}, nil
	case http.MethodDelete:
		return wire.Query{Kind: wire.QueryDropDb, Database: db}, nil
	case http.MethodGet:
		return wire.Query{Kind: wire.QueryShowTables, Database: db}, nil
	default:
		return wire.Query{}, errors.New("httpapi: method not allowed for database route")
	}
}

func (h *Handler) createTableQuery(r *http.Request, db, table string) (wire.Query, error) {
	var body struct {
		Columns []struct {
			Name string     `json:"name"`
			Type value.Kind `json:"type"`
		} `json:"columns"`
	}
	if err := decodeBody(r, &body); err != nil {
		return wire.Query{}, err
	}
	cols := make([]wire.Column, len(body.Columns))
	for i, c := range body.Columns {
		cols[i] = wire.Column{Name: c.Name, Kind: c.Type}
	}
	return wire.Query{Kind: wire.QueryCreate, Database: db, Table: table, NewColumns: cols}, nil
}

func (h *Handler) alterTableQuery(r *http.Request, db, table string) (wire.Query, error) {
	renamings := map[string]string{}
	if raw := r.URL.Query().Get("renamings"); raw != "" {
		for _, pair := range strings.Split(raw, ",") {
			kv := strings.SplitN(pair, ":", 2)
			if len(kv) != 2 {
				return wire.Query{}, errors.New("httpapi: malformed renamings query parameter")
			}
			renamings[kv[0]] = kv[1]
		}
	}
	return wire.Query{Kind: wire.QueryAlter, Database: db, Table: table, Renamings: renamings}, nil
}

func (h *Handler) joinOrRowQuery(r *http.Request, db, t1, t2 string) (wire.Query, error) {
	if r.Method != http.MethodPut {
		return wire.Query{}, errors.New("httpapi: join route only supports PUT")
	}
	var body struct {
		On         map[string]string      `json:"on"`
		Conditions map[string]interface{} `json:"conditions"`
	}
	if err := decodeBody(r, &body); err != nil {
		return wire.Query{}, err
	}
	return wire.Query{
		Kind: wire.QueryJoin, Database: db, Table: t1, JoinTable: t2,
		JoinOn: body.On, JoinConditions: body.Conditions,
	}, nil
}

func (h *Handler) rowQuery(r *http.Request, db, table string) (wire.Query, error) {
	conditions := parseFilter(r.URL.Query().Get("filter"))

	switch r.Method {
	case http.MethodGet:
		var columns []string
		if proj := r.URL.Query().Get("columns"); proj != "" {
			columns = strings.Split(proj, ",")
		}
		return wire.Query{Kind: wire.QuerySelect, Database: db, Table: table, Columns: columns, Conditions: conditions}, nil
	case http.MethodPost:
		var values map[string]interface{}
		if err := decodeBody(r, &values); err != nil {
			return wire.Query{}, err
		}
		return wire.Query{Kind: wire.QueryInsert, Database: db, Table: table, Values: values}, nil
	case http.MethodPut:
		var set map[string]interface{}
		if err := decodeBody(r, &set); err != nil {
			return wire.Query{}, err
		}
		return wire.Query{Kind: wire.QueryUpdate, Database: db, Table: table, Set: set, Conditions: conditions}, nil
	case http.MethodDelete:
		return wire.Query{Kind: wire.QueryDelete, Database: db, Table: table, Conditions: conditions}, nil
	default:
		return wire.Query{}, errors.New("httpapi: method not allowed for row route")
	}
}

// parseFilter decodes a "filter" query-string parameter as a JSON object
// of column -> literal, per §6's "query-string filter" row-op contract.
func parseFilter(raw string) map[string]interface{} {
	if raw == "" {
		return nil
	}
	var m map[string]interface{}
	if err := json.Unmarshal([]byte(raw), &m); err != nil {
		return nil
	}
	return m
}

func decodeBody(r *http.Request, dst interface{}) error {
	if r.Body == nil {
		return nil
	}
	dec := json.NewDecoder(r.Body)
	dec.UseNumber()
	if err := dec.Decode(dst); err != nil {
		return err
	}
	return nil
}

func writeReply(w http.ResponseWriter, status int, reply wire.Reply) {
	rows := make([]map[string]interface{}, len(reply.Rows))
	for i, row := range reply.Rows {
		out := make(map[string]interface{}, len(row))
		for k, tv := range row {
			out[k] = literalOf(tv)
		}
		rows[i] = out
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(rows); err != nil {
		slog.Warn("httpapi: encoding response failed", "error", err)
	}
}

func literalOf(tv wire.TypedValue) interface{} {
	switch tv.Kind {
	case value.KindInt:
		return tv.Int
	case value.KindFloat:
		return tv.Float
	case value.KindChar:
		return string(tv.Char)
	case value.KindString, value.KindEmail:
		return tv.Str
	case value.KindSerial:
		return tv.Serial
	case value.KindCharInterval:
		return []string{string(tv.CharLow), string(tv.CharHigh)}
	case value.KindStringInterval:
		return []string{tv.StrLow, tv.StrHigh}
	default:
		return nil
	}
}

func writeError(w http.ResponseWriter, status int, err error) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(err.Error())
}

func statusFor2xx(method string) int {
	if method == http.MethodPost {
		return http.StatusCreated
	}
	return http.StatusOK
}

// statusFor maps an engine error to an HTTP status by its message text:
// "not found" errors are 404, "corrupt" errors are 500, and every other
// error, filesystem failures included, is 400.
func statusFor(err error) int {
	msg := err.Error()
	switch {
	case strings.Contains(msg, "not found"):
		return http.StatusNotFound
	case strings.Contains(msg, "corrupt"):
		return http.StatusInternalServerError
	default:
		return http.StatusBadRequest
	}
}
