package retrieval

import (
	"fmt"
	"strings"
)

// Context bundle delimiters. Consumers parse the rendered prompt, so these
// are part of the external contract and must not change.
const (
	contextHeader    = "<CONTEXT>\n"
	snippetSeparator = "\n\n-------\n\n"
	contextFooter    = "\n-------\n</CONTEXT>\n\n\n\n"
)

// MaxSnippets bounds the context bundle regardless of how many matches the
// index returns.
const MaxSnippets = 10

// Bundle is the bounded set of business summaries backing one answer, in
// descending similarity order.
type Bundle struct {
	Snippets []string
}

// Render produces the delimited context block. An empty bundle still renders
// well-formed markers.
func (b Bundle) Render() string {
	snippets := b.Snippets
	if len(snippets) > MaxSnippets {
		snippets = snippets[:MaxSnippets]
	}
	return contextHeader + strings.Join(snippets, snippetSeparator) + contextFooter
}

const questionTemplate = `MY QUESTION:

Using ONLY the context provided, answer the following question:
%s

You should mention all the companies that are mentioned in the context. In your answer, I expect to see at least the company name, ticker, and the reason why you think it is relevant to the question.

Never make reference to the context in your answer. For example, do not say "Based on the context provided, I can tell you that..."

If there is not enough information in the context to answer the question, you should say "My apologies, but I do not have enough information to answer that question."
`

// BuildPrompt renders the final prompt handed back to the caller: the context
// bundle followed by the question and answering instructions.
func BuildPrompt(bundle Bundle, question string) string {
	return bundle.Render() + fmt.Sprintf(questionTemplate, question)
}
