package types

import (
	"crypto/sha1" //nolint:gosec // content addressing, not a security boundary
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
)

// ChunkType identifies the shape of code a Chunk covers. Beyond the fixed
// values below, the chunker also mints synthetic types such as
// "class_declaration_merged" or "method_declaration_part2" — see
// MergedChunkType and PartChunkType.
type ChunkType string

const (
	ChunkFunction ChunkType = "function"
	ChunkMethod   ChunkType = "method"
	ChunkClass    ChunkType = "class"
	ChunkFile     ChunkType = "file"
)

// MergedChunkType returns the synthetic chunk type for a merged run of
// undersized sibling nodes of the given tree-sitter node type.
func MergedChunkType(nodeType string) ChunkType {
	return ChunkType(nodeType + "_merged")
}

// PartChunkType returns the synthetic chunk type for the i-th statement-level
// slice of an oversized node with no subdivision candidates.
func PartChunkType(nodeType string, i int) ChunkType {
	return ChunkType(fmt.Sprintf("%s_part%d", nodeType, i))
}

// Parameter is one entry of a Symbol's parameter list.
type Parameter struct {
	Name    string
	Type    string
	Default string
}

// Variable is an important variable/constant/config declaration surfaced
// from a chunk body by the chunker's heuristic filters.
type Variable struct {
	Name  string
	Value string // truncated to maxVariableValueLen
}

const maxVariableValueLen = 100

// NewVariable truncates value to a 100-character cap.
func NewVariable(name, value string) Variable {
	if len(value) > maxVariableValueLen {
		value = value[:maxVariableValueLen]
	}
	return Variable{Name: name, Value: value}
}

// ChunkContext carries the positional/structural metadata a Chunk records
// alongside its body.
type ChunkContext struct {
	StartLine  int
	EndLine    int
	CodeLength int
	Flags      []string // e.g. "hasPampaTags", "hasIntent", "hasDocumentation", "encrypted"
}

// HasFlag reports whether the named flag is present.
func (c ChunkContext) HasFlag(name string) bool {
	for _, f := range c.Flags {
		if f == name {
			return true
		}
	}
	return false
}

// Chunk is the fundamental indexed unit: a content-addressed, embeddable
// fragment of source code.
type Chunk struct {
	FilePath  string // repo-relative, forward-slash normalized
	Symbol    string // extracted or synthetic "<nodeType>_<offset>"
	Language  string
	ChunkType ChunkType
	Code      string // the exact bytes the SHA covers

	SHA [20]byte // SHA-1 of Code (or, for merged chunks, of the joined constituent sources)

	Embedding           []float32
	EmbeddingProvider   string
	EmbeddingDimensions int

	Tags        []string
	Intent      string
	Description string
	DocComment  string
	Variables   []Variable
	Context     ChunkContext

	Signature  string
	Parameters []Parameter
	ReturnType string
	Calls      []string // deduplicated, insertion order, capped at maxCalls
}

// ComputeSHA sets SHA to SHA-1(Code) and returns the receiver for chaining.
// Callers building a merged chunk must instead set Code to the
// "\n\n"-joined constituent sources before calling this, per the merged
// chunk boundary rule.
func (c *Chunk) ComputeSHA() *Chunk {
	c.SHA = sha1.Sum([]byte(c.Code)) //nolint:gosec
	return c
}

// SHAHex returns the hex-encoded SHA-1.
func (c *Chunk) SHAHex() string {
	return hex.EncodeToString(c.SHA[:])
}

// ID computes the chunk_id: "<file_path>:<symbol>:<sha[0..8]>".
func (c *Chunk) ID() string {
	return fmt.Sprintf("%s:%s:%s", c.FilePath, c.Symbol, c.SHAHex()[:8])
}

var (
	ErrEmptyFilePath = errors.New("chunk: file path cannot be empty")
	ErrEmptySymbol   = errors.New("chunk: symbol cannot be empty")
	ErrEmptyCode     = errors.New("chunk: code cannot be empty")
	ErrTooManyCalls  = errors.New("chunk: calls list exceeds cap")
	ErrInvalidPair   = errors.New("chunk: embedding provider/dimensions pair is incomplete")
)

const maxCalls = 64

// Validate checks structural invariants. It does not verify SHA freshness
// against Code — call ComputeSHA first if Code may have changed.
func (c *Chunk) Validate() error {
	if c.FilePath == "" {
		return ErrEmptyFilePath
	}
	c.FilePath = strings.ReplaceAll(c.FilePath, "\\", "/")
	if c.Symbol == "" {
		return ErrEmptySymbol
	}
	if c.Code == "" {
		return ErrEmptyCode
	}
	if len(c.Calls) > maxCalls {
		return ErrTooManyCalls
	}
	if (c.EmbeddingProvider == "") != (c.EmbeddingDimensions == 0) {
		return ErrInvalidPair
	}
	return nil
}

// FullContent returns Code alongside its doc comment, matching the shape
// downstream callers (search result rendering) expect for display.
func (c *Chunk) FullContent() string {
	if c.DocComment == "" {
		return c.Code
	}
	return c.DocComment + "\n" + c.Code
}
