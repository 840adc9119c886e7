// Package models defines the data types shared across the synthesis and
// execution pipeline: ApiConfig, ExtractConfig, TransformConfig, RunResult,
// and the message-turn log used by the LLM repair loops.
package models

import "time"

// AuthType selects how an ApiConfig authenticates its requests.
type AuthType string

const (
	AuthNone      AuthType = "NONE"
	AuthHeader    AuthType = "HEADER"
	AuthQueryParam AuthType = "QUERY_PARAM"
	AuthOAuth2    AuthType = "OAUTH2"
)

// Method is an HTTP method.
type Method string

const (
	MethodGet     Method = "GET"
	MethodPost    Method = "POST"
	MethodPut     Method = "PUT"
	MethodDelete  Method = "DELETE"
	MethodPatch   Method = "PATCH"
	MethodHead    Method = "HEAD"
	MethodOptions Method = "OPTIONS"
)

// PaginationType selects the iteration strategy for a paginated call.
type PaginationType string

const (
	PaginationOffsetBased PaginationType = "OFFSET_BASED"
	PaginationPageBased   PaginationType = "PAGE_BASED"
	PaginationDisabled    PaginationType = "DISABLED"
)

// Pagination describes how an ApiConfig paginates its results.
type Pagination struct {
	Type     PaginationType `json:"type"`
	PageSize int            `json:"pageSize"`
}

// DecompressionMethod selects how raw file bytes are decompressed.
type DecompressionMethod string

const (
	DecompressionGzip    DecompressionMethod = "GZIP"
	DecompressionDeflate DecompressionMethod = "DEFLATE"
	DecompressionZip     DecompressionMethod = "ZIP"
	DecompressionAuto    DecompressionMethod = "AUTO"
	DecompressionNone    DecompressionMethod = "NONE"
)

// FileType selects the parser applied after decompression.
type FileType string

const (
	FileTypeCSV  FileType = "CSV"
	FileTypeJSON FileType = "JSON"
	FileTypeXML  FileType = "XML"
	FileTypeAuto FileType = "AUTO"
)

// Entity carries the fields common to every persisted record.
type Entity struct {
	ID        string     `json:"id"`
	Version   string     `json:"version,omitempty"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
}

// ApiConfig is a fully-resolved HTTP request template produced by the
// Endpoint Synthesizer.
type ApiConfig struct {
	Entity

	URLHost string `json:"urlHost"`
	URLPath string `json:"urlPath,omitempty"`
	Method  Method `json:"method"`

	Headers     map[string]string `json:"headers,omitempty"`
	QueryParams map[string]string `json:"queryParams,omitempty"`
	Body        string            `json:"body,omitempty"`

	Authentication AuthType    `json:"authentication"`
	Pagination     *Pagination `json:"pagination,omitempty"`

	// DataPath is a dot-separated path into the response JSON; a leading
	// "$" segment means "root" and is skipped during navigation.
	DataPath string `json:"dataPath,omitempty"`

	Instruction       string `json:"instruction,omitempty"`
	DocumentationURL  string `json:"documentationUrl,omitempty"`

	ResponseSchema  map[string]any `json:"responseSchema,omitempty"`
	ResponseMapping string         `json:"responseMapping,omitempty"`
}

// ExtractConfig is the File Extractor's analogue of ApiConfig: the same
// request shape minus pagination, plus decompression/file-type hints.
type ExtractConfig struct {
	Entity

	URLHost string `json:"urlHost"`
	URLPath string `json:"urlPath,omitempty"`
	Method  Method `json:"method"`

	Headers     map[string]string `json:"headers,omitempty"`
	QueryParams map[string]string `json:"queryParams,omitempty"`
	Body        string            `json:"body,omitempty"`

	Authentication AuthType `json:"authentication"`

	DataPath         string              `json:"dataPath,omitempty"`
	Instruction      string              `json:"instruction,omitempty"`
	DocumentationURL string              `json:"documentationUrl,omitempty"`

	DecompressionMethod DecompressionMethod `json:"decompressionMethod"`
	FileType            FileType            `json:"fileType"`

	ResponseSchema  map[string]any `json:"responseSchema,omitempty"`
	ResponseMapping string         `json:"responseMapping,omitempty"`
}

// TransformConfig describes how to reshape raw response data into a
// caller-requested schema.
type TransformConfig struct {
	Entity

	Instruction         string         `json:"instruction,omitempty"`
	ResponseSchema       map[string]any `json:"responseSchema"`
	ResponseMapping      string         `json:"responseMapping"`
	Confidence           int            `json:"confidence"`
	ConfidenceReasoning  string         `json:"confidenceReasoning,omitempty"`
}

// RunResult is the outcome of a single Call/Extract invocation.
type RunResult struct {
	ID          string    `json:"id"`
	Success     bool      `json:"success"`
	Data        any       `json:"data,omitempty"`
	Error       string    `json:"error,omitempty"`
	StartedAt   time.Time `json:"startedAt"`
	CompletedAt time.Time `json:"completedAt"`
	Config      any       `json:"config,omitempty"`
	Usage       Usage     `json:"usage"`
}

// Usage is token accounting as reported by an LLM Client completion.
// RunResult carries a Usage field, but the Synthesizers discard the
// per-completion usage, so RunResult.Usage is always zero.
type Usage struct {
	InputTokens  int `json:"inputTokens"`
	OutputTokens int `json:"outputTokens"`
}

// Add accumulates u2 into u.
func (u *Usage) Add(u2 Usage) {
	u.InputTokens += u2.InputTokens
	u.OutputTokens += u2.OutputTokens
}

// TurnRole tags a message-log entry by speaker.
type TurnRole string

const (
	SystemMsg    TurnRole = "system"
	UserMsg      TurnRole = "user"
	AssistantMsg TurnRole = "assistant"
)

// Turn is a single entry in a Synthesizer's conversation log.
type Turn struct {
	Role    TurnRole `json:"role"`
	Content string   `json:"content"`
}

// CacheMode controls how a call interacts with the config cache.
type CacheMode string

const (
	CacheEnabled   CacheMode = "ENABLED"
	CacheReadOnly  CacheMode = "READONLY"
	CacheWriteOnly CacheMode = "WRITEONLY"
	CacheDisabled  CacheMode = "DISABLED"
)

// CallOptions controls retry/timeout/cache behavior for a single call.
type CallOptions struct {
	CacheMode  CacheMode     `json:"cacheMode,omitempty"`
	Timeout    time.Duration `json:"timeout,omitempty"`
	Retries    int           `json:"retries,omitempty"`
	RetryDelay time.Duration `json:"retryDelay,omitempty"`
	WebhookURL string        `json:"webhookUrl,omitempty"`
}
