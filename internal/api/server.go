// Package api serves the model over HTTP with fasthttp.
package api

import (
	"context"
	"errors"
	"time"

	"github.com/goccy/go-json"
	"github.com/valyala/fasthttp"

	"github.com/dutchbay/dbmodel/internal/calculation"
	"github.com/dutchbay/dbmodel/internal/config"
	"github.com/dutchbay/dbmodel/internal/domain"
	"github.com/dutchbay/dbmodel/internal/scenario"
)

// ErrorResponse is the body of every non-2xx reply
type ErrorResponse struct {
	Status  int    `json:"status"`
	Message string `json:"message"`
}

// TornadoRequest is the body of POST /v1/tornado
type TornadoRequest struct {
	Params     map[string]any                `json:"params"`
	Parameters []domain.SensitivityParameter `json:"parameters,omitempty"`
	Metric     string                        `json:"metric,omitempty"`
	Sort       string                        `json:"sort,omitempty"`
}

// ScenariosResponse is the body returned by POST /v1/scenarios
type ScenariosResponse struct {
	Rows []scenario.Row `json:"rows"`
}

// Server routes requests to the model drivers
type Server struct {
	model       *calculation.ModelEngine
	parser      *config.InputParser
	runner      *scenario.Runner
	sensitivity *calculation.SensitivityAnalyzer
	Logger      calculation.Logger
}

// NewServer creates a server over model; nil uses the baseline engine
func NewServer(model *calculation.ModelEngine) *Server {
	if model == nil {
		model = calculation.NewModelEngine()
	}
	return &Server{
		model:       model,
		parser:      config.NewInputParser(),
		runner:      scenario.NewRunner(model),
		sensitivity: calculation.NewSensitivityAnalyzer(model),
		Logger:      calculation.NopLogger{},
	}
}

// ListenAndServe blocks serving addr, e.g. ":8080"
func (s *Server) ListenAndServe(addr string) error {
	srv := &fasthttp.Server{
		Handler:      s.Handle,
		Name:         "dbmodel",
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 2 * time.Minute,
	}
	s.Logger.Infof("API listening on %s", addr)
	return srv.ListenAndServe(addr)
}

// Handle is the fasthttp request handler
func (s *Server) Handle(ctx *fasthttp.RequestCtx) {
	start := time.Now()
	path := string(ctx.Path())

	switch path {
	case "/healthz":
		if !ctx.IsGet() {
			writeError(ctx, fasthttp.StatusMethodNotAllowed, "Method not allowed")
			break
		}
		writeJSON(ctx, fasthttp.StatusOK, map[string]string{"status": "ok"})
	case "/v1/model":
		s.post(ctx, s.handleModel)
	case "/v1/scenarios":
		s.post(ctx, s.handleScenarios)
	case "/v1/tornado":
		s.post(ctx, s.handleTornado)
	default:
		writeError(ctx, fasthttp.StatusNotFound, "Not found: "+path)
	}

	s.Logger.Infof("%s %s %d %s", ctx.Method(), path, ctx.Response.StatusCode(), time.Since(start))
}

func (s *Server) post(ctx *fasthttp.RequestCtx, h fasthttp.RequestHandler) {
	if !ctx.IsPost() {
		writeError(ctx, fasthttp.StatusMethodNotAllowed, "Method not allowed")
		return
	}
	h(ctx)
}

func (s *Server) handleModel(ctx *fasthttp.RequestCtx) {
	raw := map[string]any{}
	if body := ctx.PostBody(); len(body) > 0 {
		if err := json.Unmarshal(body, &raw); err != nil {
			writeError(ctx, fasthttp.StatusBadRequest, "Invalid request body: "+err.Error())
			return
		}
	}
	clean, ok := s.validate(ctx, raw, "request")
	if !ok {
		return
	}
	res, err := s.model.BuildFinancialModel(clean)
	if err != nil {
		writeModelError(ctx, err)
		return
	}
	writeJSON(ctx, fasthttp.StatusOK, res)
}

func (s *Server) handleScenarios(ctx *fasthttp.RequestCtx) {
	scenarios, err := scenario.ParseMatrix(ctx.PostBody())
	if err != nil {
		writeError(ctx, fasthttp.StatusBadRequest, "Invalid request body: "+err.Error())
		return
	}
	if len(scenarios) == 0 {
		writeError(ctx, fasthttp.StatusBadRequest, "At least one scenario is required")
		return
	}
	rows, err := s.runner.RunAll(context.Background(), scenarios)
	if err != nil {
		writeModelError(ctx, err)
		return
	}
	writeJSON(ctx, fasthttp.StatusOK, ScenariosResponse{Rows: rows})
}

func (s *Server) handleTornado(ctx *fasthttp.RequestCtx) {
	req := TornadoRequest{Metric: string(domain.MetricIRR), Sort: string(domain.SortAbs)}
	if body := ctx.PostBody(); len(body) > 0 {
		if err := json.Unmarshal(body, &req); err != nil {
			writeError(ctx, fasthttp.StatusBadRequest, "Invalid request body: "+err.Error())
			return
		}
	}
	metric, err := calculation.ParseTornadoMetric(req.Metric)
	if err != nil {
		writeError(ctx, fasthttp.StatusBadRequest, err.Error())
		return
	}
	order, err := calculation.ParseTornadoSort(req.Sort)
	if err != nil {
		writeError(ctx, fasthttp.StatusBadRequest, err.Error())
		return
	}
	clean, ok := s.validate(ctx, req.Params, "request.params")
	if !ok {
		return
	}
	res, err := s.sensitivity.Tornado(clean, req.Parameters, metric, order)
	if err != nil {
		writeModelError(ctx, err)
		return
	}
	writeJSON(ctx, fasthttp.StatusOK, res)
}

func (s *Server) validate(ctx *fasthttp.RequestCtx, raw map[string]any, where string) (map[string]any, bool) {
	clean, err := s.parser.ValidateParams(raw, where)
	if err != nil {
		writeError(ctx, fasthttp.StatusUnprocessableEntity, err.Error())
		return nil, false
	}
	return clean, true
}

// writeModelError maps validation and domain failures to 422, anything
// else to 500
func writeModelError(ctx *fasthttp.RequestCtx, err error) {
	var verr *config.ValidationError
	if errors.As(err, &verr) || errors.Is(err, domain.ErrDomain) {
		writeError(ctx, fasthttp.StatusUnprocessableEntity, err.Error())
		return
	}
	writeError(ctx, fasthttp.StatusInternalServerError, err.Error())
}

func writeJSON(ctx *fasthttp.RequestCtx, status int, v any) {
	body, err := json.Marshal(v)
	if err != nil {
		writeError(ctx, fasthttp.StatusInternalServerError, "encode response: "+err.Error())
		return
	}
	ctx.SetContentType("application/json")
	ctx.SetStatusCode(status)
	ctx.SetBody(body)
}

func writeError(ctx *fasthttp.RequestCtx, status int, message string) {
	body, _ := json.Marshal(ErrorResponse{Status: status, Message: message})
	ctx.SetContentType("application/json")
	ctx.SetStatusCode(status)
	ctx.SetBody(body)
}
