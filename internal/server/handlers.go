package server

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/careops-labs/careboard/pkg/core"
)

// widgetResult is one entry of a refresh response. Data rows are
// objects keyed by column name; Columns carries the order JSON
// objects cannot.
type widgetResult struct {
	Columns []string         `json:"columns"`
	Data    []map[string]any `json:"data"`
	Error   string           `json:"error,omitempty"`
}

func toWidgetResult(res core.ExecutionResult) widgetResult {
	return widgetResult{
		Columns: res.Columns,
		Data:    res.Records(),
		Error:   res.Error,
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleRefresh executes every widget of a dashboard concurrently.
// Body is a flat key/value filter map; per-widget failures come back
// inline, never as an HTTP error.
func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if _, err := s.store.GetDashboard(r.Context(), id); err != nil {
		respondStoreError(w, err)
		return
	}

	filterMap, err := decodeFilterMap(r.Body)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid filter body: %v", err)
		return
	}

	widgets, err := s.store.ListWidgets(r.Context(), id)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "failed to load widgets: %v", err)
		return
	}

	results := s.dispatcher.RefreshDashboard(r.Context(), widgets, core.FiltersFromMap(filterMap))
	response := make(map[string]widgetResult, len(results))
	for widgetID, res := range results {
		response[widgetID] = toWidgetResult(res)
	}
	respondJSON(w, http.StatusOK, response)
}

// handleExecuteWidget runs a single stored widget.
func (s *Server) handleExecuteWidget(w http.ResponseWriter, r *http.Request) {
	widget, err := s.store.GetWidget(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondStoreError(w, err)
		return
	}

	filterMap, err := decodeFilterMap(r.Body)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid filter body: %v", err)
		return
	}

	res := s.dispatcher.Execute(r.Context(), *widget, core.FiltersFromMap(filterMap))
	respondJSON(w, http.StatusOK, toWidgetResult(res))
}

// handleRunScenario runs one what-if optimization. All scenario
// outcomes, Error included, are reported with HTTP 200 and a status
// tag; only an unreadable request is an HTTP error.
func (s *Server) handleRunScenario(w http.ResponseWriter, r *http.Request) {
	var req core.ScenarioRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid scenario request: %v", err)
		return
	}
	respondJSON(w, http.StatusOK, s.bridge.Run(r.Context(), req))
}

func (s *Server) handleListDashboards(w http.ResponseWriter, r *http.Request) {
	dashboards, err := s.store.ListDashboards(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, "%v", err)
		return
	}
	if dashboards == nil {
		dashboards = []core.Dashboard{}
	}
	respondJSON(w, http.StatusOK, dashboards)
}

func (s *Server) handleCreateDashboard(w http.ResponseWriter, r *http.Request) {
	var d core.Dashboard
	if err := json.NewDecoder(r.Body).Decode(&d); err != nil {
		respondError(w, http.StatusBadRequest, "invalid dashboard: %v", err)
		return
	}
	if err := s.store.CreateDashboard(r.Context(), &d); err != nil {
		respondError(w, http.StatusBadRequest, "%v", err)
		return
	}
	respondJSON(w, http.StatusCreated, d)
}

func (s *Server) handleGetDashboard(w http.ResponseWriter, r *http.Request) {
	d, err := s.store.GetDashboard(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondStoreError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, d)
}

func (s *Server) handleRenameDashboard(w http.ResponseWriter, r *http.Request) {
	var body struct {
		Name string `json:"name"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Name == "" {
		respondError(w, http.StatusBadRequest, "name is required")
		return
	}
	if err := s.store.RenameDashboard(r.Context(), chi.URLParam(r, "id"), body.Name); err != nil {
		respondStoreError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleDeleteDashboard(w http.ResponseWriter, r *http.Request) {
	if err := s.store.DeleteDashboard(r.Context(), chi.URLParam(r, "id")); err != nil {
		respondStoreError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleListWidgets(w http.ResponseWriter, r *http.Request) {
	widgets, err := s.store.ListWidgets(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, http.StatusInternalServerError, "%v", err)
		return
	}
	if widgets == nil {
		widgets = []core.WidgetDefinition{}
	}
	respondJSON(w, http.StatusOK, widgets)
}

func (s *Server) handleSaveWidget(w http.ResponseWriter, r *http.Request) {
	var widget core.WidgetDefinition
	if err := json.NewDecoder(r.Body).Decode(&widget); err != nil {
		respondError(w, http.StatusBadRequest, "invalid widget: %v", err)
		return
	}
	if err := s.store.SaveWidget(r.Context(), &widget); err != nil {
		respondError(w, http.StatusBadRequest, "%v", err)
		return
	}
	respondJSON(w, http.StatusCreated, widget)
}

func (s *Server) handleGetWidget(w http.ResponseWriter, r *http.Request) {
	widget, err := s.store.GetWidget(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondStoreError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, widget)
}

func (s *Server) handleDeleteWidget(w http.ResponseWriter, r *http.Request) {
	if err := s.store.DeleteWidget(r.Context(), chi.URLParam(r, "id")); err != nil {
		respondStoreError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleListTemplates(w http.ResponseWriter, r *http.Request) {
	templates, err := s.store.ListTemplates(r.Context())
	if err != nil {
		respondError(w, http.StatusInternalServerError, "%v", err)
		return
	}
	if templates == nil {
		templates = []core.QueryTemplate{}
	}
	respondJSON(w, http.StatusOK, templates)
}

func (s *Server) handleSaveTemplate(w http.ResponseWriter, r *http.Request) {
	var tpl core.QueryTemplate
	if err := json.NewDecoder(r.Body).Decode(&tpl); err != nil {
		respondError(w, http.StatusBadRequest, "invalid template: %v", err)
		return
	}
	if err := s.store.SaveTemplate(r.Context(), &tpl); err != nil {
		respondError(w, http.StatusBadRequest, "%v", err)
		return
	}
	respondJSON(w, http.StatusCreated, tpl)
}

func (s *Server) handleGetTemplate(w http.ResponseWriter, r *http.Request) {
	tpl, err := s.store.Template(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondStoreError(w, err)
		return
	}
	respondJSON(w, http.StatusOK, tpl)
}

func (s *Server) handleDeleteTemplate(w http.ResponseWriter, r *http.Request) {
	if err := s.store.DeleteTemplate(r.Context(), chi.URLParam(r, "id")); err != nil {
		respondStoreError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// decodeFilterMap reads an optional flat key/value JSON object. An
// empty body means no filters.
func decodeFilterMap(body io.Reader) (map[string]any, error) {
	buf, err := io.ReadAll(io.LimitReader(body, 1<<20))
	if err != nil {
		return nil, err
	}
	if len(buf) == 0 {
		return nil, nil
	}
	var m map[string]any
	if err := json.Unmarshal(buf, &m); err != nil {
		return nil, err
	}
	return m, nil
}
