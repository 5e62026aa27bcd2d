package constants

// Placeholders written into enriched templates.
const (
	NotProvided    = "NON FORNITO"
	UnknownSubject = "NON SPECIFICATO"
)

// ResponseListKeys are the wrapper keys tried, in order, when a model answers
// with an object instead of a bare list.
var ResponseListKeys = []string{"criteri", "criteria", "results", "items", "data", "extracted_criteria"}

// MinDocumentChars is the shortest extracted text worth sending to the model.
const MinDocumentChars = 50

// Sheet keywords used by the enrichment tool. Fallbacks are positional, and
// negative values count from the last sheet.
var (
	RegistrySheetKeywords   = []string{"anagraf"}
	ProposalSheetKeywords   = []string{"proposta", "criter"}
	EvaluationSheetKeywords = []string{"criter", "valut"}
)

const (
	RegistrySheetFallback   = 0
	ProposalSheetFallback   = 1
	EvaluationSheetFallback = -1
)

// DispatchSnippetChars bounds the response body echoed into logs.
const DispatchSnippetChars = 300

// PayloadPreviewChars bounds the request body echoed into verbose logs.
const PayloadPreviewChars = 200
