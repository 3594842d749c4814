// Package api exposes the table-order store over HTTP.
package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	httpSwagger "github.com/swaggo/http-swagger"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"tableflow/pkg/logger"
	"tableflow/pkg/order"
	"tableflow/pkg/otel"
)

// Usage is returned by the root path.
const Usage = "This is the tableflow server. Use GET/POST /table/{table} and PUT/DELETE /table/{table}/item/{item_id}."

// Server routes HTTP requests to an order repository.
type Server struct {
	repo   order.Repository
	log    *logger.Logger
	tracer trace.Tracer
	router *mux.Router
}

// NewServer builds the router. A nil tracer falls back to the global provider.
func NewServer(repo order.Repository, log *logger.Logger, tracer trace.Tracer) *Server {
	s := &Server{
		repo:   repo,
		log:    log,
		tracer: tracer,
		router: mux.NewRouter(),
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.router.Use(s.traceMiddleware, s.logMiddleware)

	s.router.HandleFunc("/", s.welcomeHandler).Methods(http.MethodGet)
	s.router.HandleFunc("/table/{table}", s.tableItemsHandler).Methods(http.MethodGet)
	s.router.HandleFunc("/table/{table}", s.insertHandler).Methods(http.MethodPost)
	s.router.HandleFunc("/table/{table}/item/{item_id}", s.updateHandler).Methods(http.MethodPut)
	s.router.HandleFunc("/table/{table}/item/{item_id}", s.deleteHandler).Methods(http.MethodDelete)

	s.router.PathPrefix("/swagger/").Handler(httpSwagger.WrapHandler)
}

// ServeHTTP implements http.Handler.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// welcomeHandler describes the API.
// @Summary Usage
// @Produce plain
// @Success 200 {string} string
// @Router / [get]
func (s *Server) welcomeHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.Write([]byte(Usage))
}

// tableItemsHandler lists the items ordered at a table.
// @Summary List table items
// @Produce json
// @Param table path int true "Table ID"
// @Success 200 {array} order.Item
// @Failure 400 {string} string
// @Failure 500 {string} string
// @Router /table/{table} [get]
func (s *Server) tableItemsHandler(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.AddSpan(r.Context(), "tableItemsHandler")
	defer span.End()

	table, ok := tableParam(w, r)
	if !ok {
		return
	}
	span.SetAttributes(attribute.Int("table", int(table)))

	items, err := s.repo.ItemsFromTable(ctx, table)
	if err != nil {
		s.log.Error(ctx, "items from table", "table", table, "error", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(items)
}

// insertHandler adds one item to a table.
// @Summary Add item
// @Accept json
// @Produce plain
// @Param table path int true "Table ID"
// @Param item body order.Payload true "Item"
// @Success 200 {string} string "Inserted"
// @Failure 400 {string} string
// @Failure 500 {string} string
// @Router /table/{table} [post]
func (s *Server) insertHandler(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.AddSpan(r.Context(), "insertHandler")
	defer span.End()

	table, ok := tableParam(w, r)
	if !ok {
		return
	}
	p, ok := payload(w, r)
	if !ok {
		return
	}

	if err := s.repo.AddItems(ctx, table, []order.Item{p.Item(uuid.Nil)}); err != nil {
		s.log.Error(ctx, "add items", "table", table, "error", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Write([]byte("Inserted"))
}

// updateHandler replaces an item, keeping its id.
// @Summary Update item
// @Accept json
// @Produce plain
// @Param table path int true "Table ID"
// @Param item_id path string true "Item ID"
// @Param item body order.Payload true "Item"
// @Success 200 {string} string "Updated"
// @Failure 400 {string} string
// @Failure 500 {string} string
// @Router /table/{table}/item/{item_id} [put]
func (s *Server) updateHandler(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.AddSpan(r.Context(), "updateHandler")
	defer span.End()

	table, ok := tableParam(w, r)
	if !ok {
		return
	}
	id, ok := itemParam(w, r)
	if !ok {
		return
	}
	p, ok := payload(w, r)
	if !ok {
		return
	}

	if err := s.repo.UpdateItem(ctx, table, id, p.Item(id)); err != nil {
		s.log.Error(ctx, "update item", "table", table, "item", id, "error", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Write([]byte("Updated"))
}

// deleteHandler removes an item from a table.
// @Summary Delete item
// @Produce plain
// @Param table path int true "Table ID"
// @Param item_id path string true "Item ID"
// @Success 200 {string} string "Deleted"
// @Failure 400 {string} string
// @Failure 500 {string} string
// @Router /table/{table}/item/{item_id} [delete]
func (s *Server) deleteHandler(w http.ResponseWriter, r *http.Request) {
	ctx, span := otel.AddSpan(r.Context(), "deleteHandler")
	defer span.End()

	table, ok := tableParam(w, r)
	if !ok {
		return
	}
	id, ok := itemParam(w, r)
	if !ok {
		return
	}

	if err := s.repo.RemoveItem(ctx, table, id); err != nil {
		s.log.Error(ctx, "remove item", "table", table, "item", id, "error", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.Write([]byte("Deleted"))
}

func tableParam(w http.ResponseWriter, r *http.Request) (order.TableID, bool) {
	table, err := order.ParseTableID(mux.Vars(r)["table"])
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return 0, false
	}
	return table, true
}

func itemParam(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(mux.Vars(r)["item_id"])
	if err != nil {
		http.Error(w, "invalid item id: "+err.Error(), http.StatusBadRequest)
		return uuid.Nil, false
	}
	return id, true
}

func payload(w http.ResponseWriter, r *http.Request) (order.Payload, bool) {
	var p order.Payload
	if err := json.NewDecoder(r.Body).Decode(&p); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return p, false
	}
	if err := p.Validate(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return p, false
	}
	return p, true
}

func (s *Server) traceMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if s.tracer != nil {
			ctx = otel.InjectTracing(ctx, s.tracer)
		}
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (sr *statusRecorder) WriteHeader(code int) {
	sr.status = code
	sr.ResponseWriter.WriteHeader(code)
}

func (s *Server) logMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sr := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(sr, r)
		s.log.Info(r.Context(), "request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", sr.status,
			"since", time.Since(start).String(),
		)
	})
}
