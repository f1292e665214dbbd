package http

import "github.com/drompincen/archviz-go/internal/diagrams/service"

// Handler bundles the dependencies for diagram HTTP endpoints.
type Handler struct {
	svc *service.DiagramService
}

func New(svc *service.DiagramService) *Handler {
	return &Handler{svc: svc}
}
