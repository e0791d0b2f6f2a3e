// Package prompts holds the prompt templates sent to the generation
// providers. Templates are Spanish because the deliverable is a Spanish
// public-procurement proposal; structured phases demand STRICT JSON so the
// parsers can hold the line.
package prompts

import (
	"fmt"
	"strings"
)

const lotAnalysisTemplate = `Eres un consultor experto en licitaciones públicas españolas.
Analiza los pliegos adjuntos y determina si el contrato está dividido en lotes.

Devuelve SOLO un JSON con este esquema:
{
  "tiene_lotes": true|false,
  "lotes": ["nombre exacto de cada lote tal y como aparece en el pliego"]
}

Reglas:
- Si el contrato no tiene lotes, devuelve {"tiene_lotes": false, "lotes": []}.
- No inventes lotes; usa únicamente los que el pliego nombra.
- Sin texto fuera del JSON.`

func BuildLotAnalysisPrompt() string {
	return lotAnalysisTemplate
}

const indexTemplate = `Eres un consultor experto en memorias técnicas para licitaciones públicas.
A partir de los pliegos adjuntos%s, redacta el índice completo de la memoria técnica.

Devuelve SOLO un JSON con este esquema:
{
  "titulo_memoria": "string",
  "configuracion_licitacion": {
    "max_paginas": "límite de páginas declarado en el pliego, texto literal",
    "reglas_formato": "tipografía, interlineado y demás reglas de formato",
    "exclusiones_paginas": "qué elementos no computan en el límite"
  },
  "estructura_memoria": [{"apartado": "string", "subapartados": ["string"]}],
  "matices_desarrollo": [{"apartado": "string", "subapartado": "string", "indicaciones": "string", "palabras_clave": ["string"]}],
  "plan_extension": [{"apartado": "string", "paginas_sugeridas_apartado": 0, "puntuacion_sugerida": "string", "desglose_subapartados": [{"subapartado": "string", "paginas_sugeridas": 0, "min_caracteres_sugeridos": 0, "max_caracteres_sugeridos": 0}]}]
}

Reglas:
- La estructura debe cubrir todos los criterios de valoración del pliego.
- Cada subapartado de estructura_memoria debe aparecer en matices_desarrollo y en plan_extension.
- Sin texto fuera del JSON.`

func BuildIndexPrompt(lot string) string {
	scope := ""
	if lot != "" {
		scope = fmt.Sprintf(" correspondientes al lote %q", lot)
	}
	return fmt.Sprintf(indexTemplate, scope)
}

func BuildIndexFeedbackPrompt(lot, feedback, previousIndexJSON string) string {
	var b strings.Builder
	b.WriteString(BuildIndexPrompt(lot))
	b.WriteString("\n\nÍndice anterior:\n")
	b.WriteString(previousIndexJSON)
	b.WriteString("\n\nInstrucciones de corrección del usuario (prioritarias):\n")
	b.WriteString(feedback)
	return b.String()
}

const guionTemplate = `Eres un consultor senior redactando la estrategia de una memoria técnica.
Redacta el guion de desarrollo del subapartado %q dentro del apartado %q.

Indicaciones de desarrollo: %s
Palabras clave a cubrir: %s
Extensión objetivo del subapartado: entre %d y %d caracteres en la redacción final.

El guion debe, en Markdown:
- Fijar el enfoque y los argumentos de cada bloque de contenido.
- Señalar qué elementos merecen un apoyo visual (tabla, diagrama, cronograma).
- Apoyarse en la documentación adjunta cuando exista.
No redactes la prosa final; es un guion estratégico.`

func BuildGuionPrompt(apartado, subapartado, indicaciones string, palabrasClave []string, minChars, maxChars int) string {
	ind := strings.TrimSpace(indicaciones)
	if ind == "" {
		ind = "sin indicaciones específicas"
	}
	kw := "ninguna"
	if len(palabrasClave) > 0 {
		kw = strings.Join(palabrasClave, ", ")
	}
	return fmt.Sprintf(guionTemplate, subapartado, apartado, ind, kw, minChars, maxChars)
}

func BuildGuionFeedbackPrompt(base, feedback, previousGuion string) string {
	var b strings.Builder
	b.WriteString(base)
	b.WriteString("\n\nGuion anterior:\n")
	b.WriteString(previousGuion)
	b.WriteString("\n\nFeedback del usuario sobre el guion anterior (prioritario):\n")
	b.WriteString(feedback)
	return b.String()
}

const decomposeTemplate = `Eres un planificador de redacción de memorias técnicas.
Divide el guion siguiente en una lista ordenada de prompts de generación, uno por fragmento de contenido.

Apartado: %q
Subapartado: %q
Presupuesto total del subapartado: entre %d y %d caracteres.
Restricciones del documento: %s

Cada entrada es de tipo texto (prosa Markdown) o visual (un documento HTML completo que se convertirá en imagen).
En los prompts de texto usa los marcadores {min_chars_fragmento} y {max_chars_fragmento} para el presupuesto del fragmento.
En los prompt_id usa el sufijo _TEXTO o _VISUAL_HTML según el tipo.

Devuelve SOLO un JSON con este esquema:
{
  "plan_de_prompts": [
    {
      "apartado_referencia": %q,
      "subapartado_referencia": %q,
      "prompt_id": "P1_TEXTO",
      "prompt_para_asistente": "prompt completo listo para enviar al asistente"
    }
  ]
}

Guion:
%s`

func BuildDecomposePrompt(apartado, subapartado, guion, formato string, minChars, maxChars int) string {
	if strings.TrimSpace(formato) == "" {
		formato = "sin restricciones declaradas"
	}
	return fmt.Sprintf(decomposeTemplate, apartado, subapartado, minChars, maxChars, formato, apartado, subapartado, guion)
}

const introTemplate = `Redacta la introducción de la memoria técnica %q.
La memoria desarrolla los siguientes apartados:
%s
Extensión: dos o tres párrafos en Markdown, tono profesional, sin listas.
No repitas literalmente los títulos de los apartados; presenta la propuesta de valor.`

func BuildIntroPrompt(titulo string, apartados []string) string {
	return fmt.Sprintf(introTemplate, titulo, "- "+strings.Join(apartados, "\n- "))
}
