package handlers

import (
	"net/http"

	"github.com/nikhilbhutani/pdfnarrator/internal/llm"
)

type LLMHandler struct {
	gateway llm.Gateway
}

func NewLLMHandler(gw llm.Gateway) *LLMHandler {
	return &LLMHandler{gateway: gw}
}

// ListModels reports which cleaning models are reachable with the current
// provider credentials.
func (h *LLMHandler) ListModels(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]interface{}{"models": h.gateway.ListModels()})
}
