package handlers

import (
	"net/http"

	"go.uber.org/zap"

	"ReelForge/pkg/compose"
)

// CompileHandler compiles an edit without rendering it.
type CompileHandler struct {
	compiler *compose.Compiler
	logger   *zap.Logger
}

func NewCompileHandler(compiler *compose.Compiler, logger *zap.Logger) *CompileHandler {
	return &CompileHandler{compiler: compiler, logger: logger}
}

type ClipInfo struct {
	Path     string  `json:"path"`
	Duration float64 `json:"duration"`
	HasAudio bool    `json:"hasAudio"`
}

type CompileRequest struct {
	Config     compose.EditConfig `json:"config"`
	Text       string             `json:"text"`
	Hook       ClipInfo           `json:"hook"`
	Demo       ClipInfo           `json:"demo"`
	OutputPath string             `json:"outputPath"`
}

type CompileResponse struct {
	Args             []string `json:"args"`
	FilterGraph      string   `json:"filterGraph"`
	HasAudio         bool     `json:"hasAudio"`
	ExpectedDuration float64  `json:"expectedDuration"`
}

func (h *CompileHandler) Handle(w http.ResponseWriter, r *http.Request) {
	var req CompileRequest
	if err := decodeJSON(w, r, &req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	hook := req.Hook
	if hook.Path == "" {
		hook.Path = "hook.mp4"
	}
	demo := req.Demo
	if demo.Path == "" {
		demo.Path = "demo.mp4"
	}
	output := req.OutputPath
	if output == "" {
		output = "output.mp4"
	}

	program, err := h.compiler.Compile(compose.Request{
		Hook:       compose.Input{Path: hook.Path, Duration: hook.Duration, HasAudio: hook.HasAudio},
		Demo:       compose.Input{Path: demo.Path, Duration: demo.Duration, HasAudio: demo.HasAudio},
		Text:       req.Text,
		Config:     req.Config,
		OutputPath: output,
	})
	if err != nil {
		status := compileStatus(err)
		if status >= http.StatusInternalServerError {
			h.logger.Error("Compile failed", zap.Error(err))
		}
		http.Error(w, err.Error(), status)
		return
	}

	writeJSON(w, http.StatusOK, CompileResponse{
		Args:             program.Args,
		FilterGraph:      program.FilterGraph,
		HasAudio:         program.HasAudio,
		ExpectedDuration: program.ExpectedDuration,
	})
}
