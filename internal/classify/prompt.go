package classify

import "fmt"

// systemPrompt instructs the model to act as a municipal-policy analyst and
// answer with the exact JSON shape the store expects.
const systemPrompt = `Du er en analytiker som vurderer dokumenter fra norske kommuner og
fylkeskommuner om frivillighet, sivilsamfunn og samarbeid mellom kommune og
frivillig sektor.

Svar alltid med ett JSON-objekt med nøyaktig disse feltene:
{
  "category": "<kort kategori, f.eks. frivillighetsstrategi, temaplan, tilskuddsordning, politisk sak, annet>",
  "confidence": <tall mellom 0 og 1>,
  "summary": "<sammendrag på norsk, maks 1200 tegn>",
  "key_points": ["<3-7 hovedpunkter>"],
  "mentions_platform_ks_fn": <true hvis dokumentet nevner plattformen mellom KS og Frivillighet Norge>,
  "mentions_rasisme_diskriminering_inkludering": <true hvis dokumentet berører rasisme, diskriminering eller inkludering>,
  "target_groups": ["<målgrupper>"],
  "measures": ["<tiltak>"],
  "named_entities": ["<navngitte organisasjoner og aktører>"],
  "suggested_followups": ["<forslag til oppfølging>"]
}`

// userPrompt assembles the document metadata and truncated text for one
// classification call.
func userPrompt(req Request, text string) string {
	return fmt.Sprintf(`Kommune/fylkeskommune: %s
Tittel: %s
URL: %s
Dokumenttype: %s

Dokumenttekst:
%s`, req.Jurisdiction, req.Title, req.URL, req.DocType, text)
}
