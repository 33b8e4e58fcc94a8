package session

import (
	"strings"

	"github.com/lithammer/dedent"
)

// WeedReportPrompt is the fixed prompt sent with every analysis. It asks for
// the five report sections in the numbered/dashed shape the formatter
// understands.
var WeedReportPrompt = strings.TrimSpace(dedent.Dedent(`
	Analyze this plant image and provide a detailed weed analysis report with the
	following numbered sections:

	1. Weed Identification: common name, scientific name, and key identifying features
	2. Growth Characteristics: growth habit, reproduction, and how it spreads
	3. Ecological Impact: effects on surrounding plants, soil, and local ecosystems
	4. Management and Control: mechanical, cultural, and chemical control options
	5. Additional Information: notable facts, history, or beneficial uses

	Within each section, present individual facts as dash-prefixed lines of the
	form "- Label: value" where possible, and keep the response concise and
	factual.

	This analysis is intended for educational purposes only. Advise verifying the
	identification with a local expert before applying any control measures.
`))
