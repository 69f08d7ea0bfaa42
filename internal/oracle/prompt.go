package oracle

import (
	"fmt"
	"sort"
	"strings"

	"github.com/Yrzhe/vibe-coding-product-changelog/pkg/changelog/taxonomy"
)

// BuildPrompt renders the classification prompt from the taxonomy
// snapshot. The model sees only subtags grouped by primary (the catch-all
// is hidden) and is told explicitly which names are primaries so it never
// returns one.
func BuildPrompt(title, description string, snapshot taxonomy.Taxonomy) string {
	var groups []string
	var primaries []string
	for _, pt := range snapshot.PrimaryTags {
		primaries = append(primaries, pt.Name)
		if pt.Name == taxonomy.DefaultPrimary {
			continue
		}
		if len(pt.Subtags) == 0 {
			continue
		}
		names := make([]string, len(pt.Subtags))
		for i, st := range pt.Subtags {
			names[i] = st.Name
		}
		groups = append(groups, fmt.Sprintf("[%s]: %s", pt.Name, strings.Join(names, ", ")))
	}
	sort.Strings(primaries)

	var b strings.Builder
	b.WriteString("You are a competitive-analysis expert classifying a competitor's feature update.\n\n")
	b.WriteString("## Available subtags (grouped by category)\n\n")
	b.WriteString(strings.Join(groups, "\n"))
	b.WriteString("\n\n## Feature to classify\n\n")
	fmt.Fprintf(&b, "- Title: %s\n- Description: %s\n", title, description)
	b.WriteString(`
## Task

Pick the 1-2 most accurate subtags. Tags must not overlap in meaning.

## Rules

1. NEVER return a category name. These are category names and must not
   appear in your answer: ` + strings.Join(primaries, ", ") + `
2. Integration subtags require the third-party service to be named
   explicitly (GitHub, Supabase, Stripe, ...). A built-in backend or a
   share button is not an integration.
3. Model names map to their vendor subtag (GPT/o-series -> OpenAI,
   Claude -> Anthropic, Gemini -> Google, Grok -> xAI).
4. A login method is a Social Login subtag; an export-to-mobile-app
   capability is distinct from the product merely having a mobile editor.
5. A pure bug fix or non-functional announcement gets no subtags.
6. Prefer existing subtags; only invent a new name when the feature
   clearly concerns a subject none of the listed subtags covers.

## Output

Respond with JSON only:

` + "```json\n{\n    \"subtags\": [\"tag1\", \"tag2\"]\n}\n```" + `

For a pure bug fix or non-functional content:

` + "```json\n{\n    \"subtags\": []\n}\n```" + `
`)
	return b.String()
}
