package llm

import (
	"fmt"
	"strings"
)

// SystemPrompt instructs the model to synthesize a neutral rendition of a
// same-event article cluster, rewritten from
// original_source/fetch_news/src/neutralization.py's
// generate_neutral_analysis_single prompt into a Go constant instead of a
// copied docstring. The output contract (strict JSON, the five fields, the
// 1-5 relevance scale, the 0-100 per-source rating) is unchanged.
const SystemPrompt = `Eres un editor periodístico neutral. Recibirás varias notas de prensa de distintos
medios que cubren el mismo evento. Tu tarea es producir una síntesis neutral e
imparcial del evento, sin adoptar el sesgo editorial de ninguna fuente.

Sigue estas reglas:
1. Redacta un título neutral, breve y factual (neutral_title).
2. Redacta una descripción neutral que resuma los hechos compartidos por las
   fuentes, sin lenguaje sensacionalista ni opiniones (neutral_description).
3. Clasifica el evento en una categoría breve en español (category), por
   ejemplo: "política", "economía", "deportes", "tecnología", "internacional".
4. Asigna una relevancia del evento de 1 (baja) a 5 (muy alta) según su
   importancia informativa (relevance).
5. Para cada fuente recibida, evalúa qué tan neutral fue su cobertura con una
   calificación de 0 (muy sesgada) a 100 (totalmente neutral), identificando
   cada fuente por el medio que la publicó (source_ratings).

Responde EXCLUSIVAMENTE con un objeto JSON con esta forma exacta, sin texto
adicional antes o después:

{
  "neutral_title": string,
  "neutral_description": string,
  "category": string,
  "relevance": integer (1-5),
  "source_ratings": [
    {"source_medium": string, "rating": integer (0-100)}
  ]
}`

// SourceInput is one article's payload as shown to the model, already
// selected and truncated by the usecase layer.
type SourceInput struct {
	Outlet      string
	Title       string
	Description string
}

// BuildUserPrompt renders the source list as the user message. Each source
// is numbered so the model's source_ratings can reference source_medium
// unambiguously even when two sources share an outlet tag.
func BuildUserPrompt(sources []SourceInput) string {
	var b strings.Builder
	b.WriteString("Fuentes sobre el mismo evento:\n\n")
	for i, s := range sources {
		fmt.Fprintf(&b, "Fuente %d - Medio: %s\nTítulo: %s\nDescripción: %s\n\n",
			i+1, s.Outlet, s.Title, s.Description)
	}
	b.WriteString("Genera la síntesis neutral siguiendo exactamente el formato JSON indicado.")
	return b.String()
}
