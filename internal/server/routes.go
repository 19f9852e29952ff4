package server

import "github.com/go-chi/chi/v5"

func (s *Server) setupRoutes(r chi.Router) {
	r.Get("/healthz", s.handleHealth)

	r.Route("/dashboards", func(r chi.Router) {
		r.Get("/", s.handleListDashboards)
		r.Post("/", s.handleCreateDashboard)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", s.handleGetDashboard)
			r.Put("/", s.handleRenameDashboard)
			r.Delete("/", s.handleDeleteDashboard)
			r.Get("/widgets", s.handleListWidgets)
			r.Post("/refresh", s.handleRefresh)
		})
	})

	r.Route("/widgets", func(r chi.Router) {
		r.Post("/", s.handleSaveWidget)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", s.handleGetWidget)
			r.Delete("/", s.handleDeleteWidget)
			r.Post("/execute", s.handleExecuteWidget)
		})
	})

	r.Route("/templates", func(r chi.Router) {
		r.Get("/", s.handleListTemplates)
		r.Post("/", s.handleSaveTemplate)
		r.Route("/{id}", func(r chi.Router) {
			r.Get("/", s.handleGetTemplate)
			r.Delete("/", s.handleDeleteTemplate)
		})
	})

	r.Post("/simulation/run", s.handleRunScenario)
}
