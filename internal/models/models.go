package models

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"
	"time"
)

// GeneralLot is the sentinel lot name used when a tender has no lots and the
// analysis applies to the contract as a whole.
const GeneralLot = "SIN_LOTES"

type Project struct {
	ProjectID string    `json:"project_id"`
	Name      string    `json:"name"`
	FolderID  string    `json:"folder_id"`
	CreatedAt time.Time `json:"created_at"`
}

// LotAnalysis is the cached result of the lot-detection call,
// persisted as resultado_analisis_lotes.json in the project folder.
type LotAnalysis struct {
	TieneLotes bool     `json:"tiene_lotes"`
	Lotes      []string `json:"lotes"`
}

// FlexFloat tolerates page counts emitted either as JSON numbers or as free
// text ("2", "2,5", "aprox. 3 páginas"). Unparseable values decode to zero.
type FlexFloat float64

func (f *FlexFloat) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || string(b) == "null" {
		*f = 0
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*f = FlexFloat(parseLooseFloat(s))
		return nil
	}
	var v float64
	if err := json.Unmarshal(b, &v); err != nil {
		*f = 0
		return nil
	}
	*f = FlexFloat(v)
	return nil
}

func (f FlexFloat) Float() float64 { return float64(f) }

func parseLooseFloat(s string) float64 {
	s = strings.ReplaceAll(strings.TrimSpace(s), ",", ".")
	start := -1
	for i, r := range s {
		if r >= '0' && r <= '9' {
			start = i
			break
		}
	}
	if start < 0 {
		return 0
	}
	end := start
	for end < len(s) && ((s[end] >= '0' && s[end] <= '9') || s[end] == '.') {
		end++
	}
	v, err := strconv.ParseFloat(strings.TrimRight(s[start:end], "."), 64)
	if err != nil {
		return 0
	}
	return v
}

// TenderConfig carries the document-wide constraints declared by the tender.
// MaxPaginas is free text; the first integer found in it is authoritative.
type TenderConfig struct {
	MaxPaginas         string `json:"max_paginas"`
	ReglasFormato      string `json:"reglas_formato,omitempty"`
	ExclusionesPaginas string `json:"exclusiones_paginas,omitempty"`
}

type Apartado struct {
	Apartado     string   `json:"apartado"`
	Subapartados []string `json:"subapartados"`
}

type Matiz struct {
	Apartado      string   `json:"apartado"`
	Subapartado   string   `json:"subapartado"`
	Indicaciones  string   `json:"indicaciones"`
	PalabrasClave []string `json:"palabras_clave,omitempty"`
}

type SubapartadoPlan struct {
	Subapartado            string    `json:"subapartado"`
	PaginasSugeridas       FlexFloat `json:"paginas_sugeridas"`
	MinCaracteresSugeridos int       `json:"min_caracteres_sugeridos"`
	MaxCaracteresSugeridos int       `json:"max_caracteres_sugeridos"`
}

type ApartadoPlan struct {
	Apartado                 string            `json:"apartado"`
	PaginasSugeridasApartado FlexFloat         `json:"paginas_sugeridas_apartado"`
	PuntuacionSugerida       string            `json:"puntuacion_sugerida,omitempty"`
	DesgloseSubapartados     []SubapartadoPlan `json:"desglose_subapartados"`
}

// TenderIndex is the index/outline artifact, persisted as ultimo_indice.json
// (or ultimo_indice_lote<suffix>.json per lot). Matices and PlanExtension may
// be missing entries for subapartados listed in Estructura; readers fall back
// to defaults instead of failing.
type TenderIndex struct {
	TituloMemoria string         `json:"titulo_memoria"`
	Configuracion TenderConfig   `json:"configuracion_licitacion"`
	Estructura    []Apartado     `json:"estructura_memoria"`
	Matices       []Matiz        `json:"matices_desarrollo,omitempty"`
	PlanExtension []ApartadoPlan `json:"plan_extension,omitempty"`
}

// PromptTask is one budgeted generation task produced by guion decomposition.
// PromptParaAsistente is sent to the model verbatim, except for the
// per-fragment budget placeholders substituted at assembly time.
type PromptTask struct {
	ApartadoReferencia    string `json:"apartado_referencia"`
	SubapartadoReferencia string `json:"subapartado_referencia"`
	PromptID              string `json:"prompt_id"`
	PromptParaAsistente   string `json:"prompt_para_asistente"`
}

type PromptPlan struct {
	Tasks []PromptTask `json:"plan_de_prompts"`
}

const (
	RunStatusPending  = "pending"
	RunStatusRunning  = "running"
	RunStatusComplete = "complete"
	RunStatusPartial  = "partial"
	RunStatusAborted  = "aborted"
)

const (
	PhaseLots     = "lots"
	PhaseIndex    = "index"
	PhaseGuiones  = "guiones"
	PhasePlans    = "plans"
	PhaseAssembly = "assembly"
	PhaseFinal    = "final"
)

type Run struct {
	RunID     string    `json:"run_id"`
	ProjectID string    `json:"project_id"`
	Lot       string    `json:"lot"`
	Phase     string    `json:"phase"`
	Status    string    `json:"status"`
	Error     string    `json:"error,omitempty"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

const (
	TaskStatusPending = "pending"
	TaskStatusRunning = "running"
	TaskStatusDone    = "done"
	TaskStatusFailed  = "failed"
)

// RunItem tracks one unit of fan-out work (one subapartado, or one assembly
// task) within a run.
type RunItem struct {
	RunID     string    `json:"run_id"`
	Item      string    `json:"item"`
	Status    string    `json:"status"`
	Error     string    `json:"error,omitempty"`
	UpdatedAt time.Time `json:"updated_at"`
}

// LLMCall is one audited provider invocation.
type LLMCall struct {
	CallID     string    `json:"call_id"`
	RunID      string    `json:"run_id"`
	Phase      string    `json:"phase"`
	Provider   string    `json:"provider"`
	Model      string    `json:"model"`
	LatencyMS  int64     `json:"latency_ms"`
	ErrorClass string    `json:"error_class,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}
