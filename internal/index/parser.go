// Package index parses and normalizes the JSON-shaped artifacts the model
// produces: the tender index/outline, the lot analysis, and prompt plans.
// Parsing is tolerant about wrapper prose and fences, strict about the
// required top-level keys.
package index

import (
	"encoding/json"
	"fmt"

	"memoflow/internal/models"
	"memoflow/internal/util"
)

func ParseTenderIndex(raw string) (models.TenderIndex, error) {
	obj := util.ExtractJSONObject(raw)
	if obj == "" {
		return models.TenderIndex{}, fmt.Errorf("index response has no JSON object: %w", util.ErrMalformedOutput)
	}
	var idx models.TenderIndex
	if err := json.Unmarshal([]byte(obj), &idx); err != nil {
		return models.TenderIndex{}, fmt.Errorf("decode index (%v): %w", err, util.ErrMalformedOutput)
	}
	if len(idx.Estructura) == 0 {
		return models.TenderIndex{}, fmt.Errorf("index missing estructura_memoria: %w", util.ErrMalformedOutput)
	}
	return idx, nil
}

func ParseLotAnalysis(raw string) (models.LotAnalysis, error) {
	obj := util.ExtractJSONObject(raw)
	if obj == "" {
		return models.LotAnalysis{}, fmt.Errorf("lot analysis has no JSON object: %w", util.ErrMalformedOutput)
	}
	var out models.LotAnalysis
	if err := json.Unmarshal([]byte(obj), &out); err != nil {
		return models.LotAnalysis{}, fmt.Errorf("decode lot analysis (%v): %w", err, util.ErrMalformedOutput)
	}
	if !out.TieneLotes || len(out.Lotes) == 0 {
		return models.LotAnalysis{TieneLotes: false}, nil
	}
	return out, nil
}

// ParsePromptPlan fails when the plan_de_prompts key is absent; a plan
// missing its key is a decomposition failure, never an empty default.
func ParsePromptPlan(raw string) (models.PromptPlan, error) {
	obj := util.ExtractJSONObject(raw)
	if obj == "" {
		return models.PromptPlan{}, fmt.Errorf("plan response has no JSON object: %w", util.ErrMalformedOutput)
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal([]byte(obj), &fields); err != nil {
		return models.PromptPlan{}, fmt.Errorf("decode plan (%v): %w", err, util.ErrMalformedOutput)
	}
	rawTasks, ok := fields["plan_de_prompts"]
	if !ok {
		return models.PromptPlan{}, fmt.Errorf("plan missing plan_de_prompts: %w", util.ErrMalformedOutput)
	}
	var tasks []models.PromptTask
	if err := json.Unmarshal(rawTasks, &tasks); err != nil {
		return models.PromptPlan{}, fmt.Errorf("decode plan tasks (%v): %w", err, util.ErrMalformedOutput)
	}
	return models.PromptPlan{Tasks: tasks}, nil
}
