package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/IHGGM-Aachen/primertool/internal/primertool"
)

// designRequest is the body of POST /api/v1/primers. Mode selects which
// of the remaining fields are read.
type designRequest struct {
	// variant | exon | gene | position
	Mode string `json:"mode"`

	// hg19 | hg38
	Assembly string `json:"assembly"`

	// operator initials for the order table; the server default is
	// used when empty
	Initials string `json:"initials,omitempty"`

	// mode=variant: HGVS description, e.g. NM_000451.3:c.1702G>A
	Variant string `json:"variant,omitempty"`

	// mode=exon|gene: transcript accession, e.g. NM_000451
	NMNumber string `json:"nmNumber,omitempty"`

	// mode=exon: transcript-order exon number, 1-based
	Exon int `json:"exon,omitempty"`

	// mode=position
	Chromosome string `json:"chromosome,omitempty"`
	Start      int    `json:"start,omitempty"`
	End        int    `json:"end,omitempty"`
}

type errorResponse struct {
	Error     string `json:"error"`
	RequestID string `json:"requestId,omitempty"`
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}

func (s *Server) primersHandler(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		s.writeError(w, r, http.StatusMethodNotAllowed, errors.New("use POST"))
		return
	}

	var req designRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.writeError(w, r, http.StatusBadRequest, err)
		return
	}

	assembly, err := primertool.ParseAssembly(req.Assembly)
	if err != nil {
		s.writeError(w, r, http.StatusBadRequest, err)
		return
	}
	designer, ok := s.designers[assembly]
	if !ok {
		s.writeError(w, r, http.StatusBadRequest, errors.New("assembly not configured"))
		return
	}

	ctx := r.Context()

	var table *primertool.OrderTable
	switch req.Mode {
	case "variant":
		table, err = designer.Variant(ctx, req.Variant)
	case "exon":
		table, err = designer.Exon(ctx, req.NMNumber, req.Exon)
	case "gene":
		table, err = designer.Gene(ctx, req.NMNumber)
	case "position":
		table, err = designer.Position(ctx, req.Chromosome, req.Start, req.End)
	default:
		s.writeError(w, r, http.StatusBadRequest, errors.New(`mode must be one of "variant", "exon", "gene", "position"`))
		return
	}

	if err != nil {
		s.writeError(w, r, statusFor(err), err)
		return
	}

	initials := req.Initials
	if initials == "" {
		initials = s.initials
	}
	for i := range table.Rows {
		table.Rows[i].Person = initials
	}

	w.Header().Set("Content-Type", "application/json")
	if err := table.WriteJSON(w); err != nil {
		s.log.Error("failed to write response", zap.Error(err))
	}
}

// statusFor maps the design error taxonomy onto HTTP status codes
func statusFor(err error) int {
	var inputErr *primertool.InputError
	var exonLenErr *primertool.ExonLengthError
	var intronicErr *primertool.IntronicPositionError
	var notFoundErr *primertool.NoPrimerFoundError
	var mutalyzerErr *primertool.MutalyzerError
	var genomeErr *primertool.GenomeError

	switch {
	case errors.As(err, &inputErr), errors.As(err, &exonLenErr), errors.As(err, &intronicErr):
		return http.StatusBadRequest
	case errors.As(err, &notFoundErr):
		return http.StatusUnprocessableEntity
	case errors.As(err, &mutalyzerErr), errors.As(err, &genomeErr):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, status int, err error) {
	requestID := requestIDFrom(r.Context())
	s.log.Warn("request failed",
		zap.String("requestId", requestID),
		zap.Int("status", status),
		zap.Error(err),
	)

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(errorResponse{Error: err.Error(), RequestID: requestID})
}
