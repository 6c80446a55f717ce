package llm

import (
	"strings"

	"github.com/minber-ai/minber/internal/core"
)

// personaRules is the fixed persona and rule text prepended to every
// generation request.
const personaRules = `Sen İslami bir danışman asistanısın. Sadece İslam dini ile ilgili sorulara yanıt ver. Kaynaklarını Kuran ve sahih hadislerden al.

Kullanılabilir kaynak bilgiler:
%CONTEXT%

KURALLAR:
1. Sadece İslami konularda yanıt ver
2. Yanıtlarını Kuran ayetleri ve sahih hadislerle destekle
3. Kesin fetva verme, "Allah daha iyi bilir" de
4. Türkçe yanıt ver
5. Nazik ve saygılı ol
6. Eğer soruya yanıt veremiyorsan, alimlere danışmasını öner

Verilen kaynak bilgileri kullanarak doğru ve güvenilir yanıt ver.`

// BuildSystemPrompt assembles the system instruction from the fixed
// persona text and the retrieved context, one "{documentName}: {chunkText}"
// line per chunk in retrieval order, separated by blank lines.
func BuildSystemPrompt(results []core.SearchResult) string {
	lines := make([]string, 0, len(results))
	for _, res := range results {
		lines = append(lines, res.DocumentName+": "+res.ChunkText)
	}
	return strings.Replace(personaRules, "%CONTEXT%", strings.Join(lines, "\n\n"), 1)
}
