package constant

const (
	ChatMessageRoleUser      = "user"
	ChatMessageRoleAssistant = "assistant"

	// DefaultSessionTitle is used until the first user message derives a title.
	DefaultSessionTitle = "New Chat"

	// SessionTitleMaxLen caps auto-derived titles; longer first messages are
	// truncated and suffixed with "...".
	SessionTitleMaxLen = 50
)

const (
	CollectionPapers = "papers"
	CollectionModels = "models"
)

// QueryExpansionPromptV1 asks the model for a hypothetical document matching
// the query's intent. Embedding the hypothetical text instead of the raw query
// improves recall against document-style embeddings.
const QueryExpansionPromptV1 = `You are helping a semantic search engine over a directory of AI research papers and machine-learning models.

Write a short hypothetical abstract (3-5 sentences) of a document that would perfectly answer the query below. Write it as if it were the document itself, not a description of it. Do not address the user, do not explain what you are doing, output only the abstract text.

Query: %s`
