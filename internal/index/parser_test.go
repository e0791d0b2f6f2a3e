package index

import (
	"errors"
	"testing"

	"memoflow/internal/plan"
	"memoflow/internal/util"
)

func TestParseTenderIndexFromFencedResponse(t *testing.T) {
	raw := "Aquí tienes el índice:\n```json\n{\"titulo_memoria\": \"Memoria\", \"configuracion_licitacion\": {\"max_paginas\": \"30\"}, \"estructura_memoria\": [{\"apartado\": \"1. Metodología\", \"subapartados\": [\"1.1 Enfoque\"]}]}\n```"
	idx, err := ParseTenderIndex(raw)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if idx.TituloMemoria != "Memoria" || len(idx.Estructura) != 1 {
		t.Fatalf("unexpected index: %+v", idx)
	}
}

func TestParseTenderIndexMalformed(t *testing.T) {
	if _, err := ParseTenderIndex("lo siento, no puedo"); !errors.Is(err, util.ErrMalformedOutput) {
		t.Fatalf("expected malformed-output error, got %v", err)
	}
	if _, err := ParseTenderIndex(`{"titulo_memoria": "x"}`); !errors.Is(err, util.ErrMalformedOutput) {
		t.Fatalf("empty estructura must be malformed, got %v", err)
	}
}

func TestParsePromptPlanRequiresKey(t *testing.T) {
	if _, err := ParsePromptPlan(`{"tareas": []}`); !errors.Is(err, util.ErrMalformedOutput) {
		t.Fatalf("missing key must fail, got %v", err)
	}
	p, err := ParsePromptPlan(`{"plan_de_prompts": [{"prompt_id": "P1_TEXTO", "prompt_para_asistente": "x"}]}`)
	if err != nil || len(p.Tasks) != 1 {
		t.Fatalf("parse plan: %v %+v", err, p)
	}
}

func TestParseLotAnalysisFlattensEmpty(t *testing.T) {
	out, err := ParseLotAnalysis(`{"tiene_lotes": true, "lotes": []}`)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if out.TieneLotes {
		t.Fatalf("empty lot list must mean no lots")
	}
}

func TestNormalizeFillsGaps(t *testing.T) {
	idx, err := ParseTenderIndex(`{"estructura_memoria": [{"apartado": " 1. Metodología ", "subapartados": ["1.1 Enfoque", " "]}]}`)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	cal := plan.DefaultCalibration()
	idx = Normalize(idx, cal)

	if len(idx.Estructura[0].Subapartados) != 1 {
		t.Fatalf("blank subapartado not dropped: %+v", idx.Estructura[0])
	}
	if len(idx.Matices) != 1 || idx.Matices[0].Subapartado != "1.1 Enfoque" {
		t.Fatalf("matiz not filled: %+v", idx.Matices)
	}
	if len(idx.PlanExtension) != 1 {
		t.Fatalf("plan entry not created: %+v", idx.PlanExtension)
	}
	sp := idx.PlanExtension[0].DesgloseSubapartados[0]
	if sp.MinCaracteresSugeridos != cal.MinCharsPerPage || sp.PaginasSugeridas != 1 {
		t.Fatalf("default breakdown wrong: %+v", sp)
	}
}
