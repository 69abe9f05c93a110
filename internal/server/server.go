// Package server exposes primer design over HTTP for the web frontend.
package server

import (
	"context"
	"net/http"

	"go.uber.org/zap"

	"github.com/IHGGM-Aachen/primertool/internal/primertool"
)

// Designer is the primer design surface the server exposes; satisfied
// by *primertool.Generator.
type Designer interface {
	Variant(ctx context.Context, description string) (*primertool.OrderTable, error)
	Exon(ctx context.Context, nmNumber string, exonNumber int) (*primertool.OrderTable, error)
	Gene(ctx context.Context, nmNumber string) (*primertool.OrderTable, error)
	Position(ctx context.Context, chromosome string, start, end int) (*primertool.OrderTable, error)
}

// Server handles primer design requests for the configured assemblies
type Server struct {
	designers map[primertool.Assembly]Designer

	// initials stamped on rows when the request carries none
	initials string

	log *zap.Logger
}

// New builds a Server from per-assembly designers
func New(designers map[primertool.Assembly]Designer, initials string, log *zap.Logger) *Server {
	return &Server{designers: designers, initials: initials, log: log}
}

// Handler returns the routed handler with middleware applied
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/primers", s.primersHandler)
	mux.HandleFunc("/healthz", s.healthHandler)
	return withRequestID(withLogging(s.log, mux))
}
