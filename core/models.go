package core

import (
	"encoding/binary"
	"slices"
	"strings"
	"time"

	"github.com/go-crypt/x/blake2b"
)

// ID is a unique identifier for domain entities.
// It is generated using content-based hashing or database sequences.
type ID uint64

// IDFromContent generates a deterministic ID from text content using BLAKE2b hashing.
// This ensures that identical content produces identical IDs.
func IDFromContent(text string) ID {
	h, _ := blake2b.New(8, nil) // 8 bytes = 64 bits
	h.Write([]byte(text))
	sum := h.Sum(nil)
	return ID(binary.LittleEndian.Uint64(sum))
}

// Role identifies the author of a conversation message.
type Role int

const (
	// RoleUser represents the human buyer driving the conversation.
	RoleUser Role = iota + 1
	// RoleAssistant represents the agent.
	RoleAssistant
)

// String returns the wire value for the role.
func (r Role) String() string {
	switch r {
	case RoleUser:
		return "user"
	case RoleAssistant:
		return "assistant"
	default:
		return "unknown"
	}
}

// Visibility controls who can discover a dataset through semantic search.
type Visibility int

const (
	// VisibilityPublic makes the dataset discoverable by any buyer.
	VisibilityPublic Visibility = iota + 1
	// VisibilityPrivate restricts discovery to the owning vendor.
	VisibilityPrivate
)

// String returns the wire value for the visibility.
func (v Visibility) String() string {
	switch v {
	case VisibilityPublic:
		return "public"
	case VisibilityPrivate:
		return "private"
	default:
		return "unknown"
	}
}

// Dataset represents a listed dataset in the marketplace catalog.
// The Vector field holds the embedding of the canonical text rendering;
// an empty Vector means the dataset is excluded from semantic search but
// remains retrievable by exact lookup.
type Dataset struct {
	Id                 ID
	Title              string
	Description        string
	Domain             string // e.g. "Finance", "Healthcare", "Retail"
	PricingModel       string // e.g. "subscription", "one_time", "usage_based"
	Price              float64
	Topics             []string
	TemporalCoverage   string
	GeographicCoverage string
	Visibility         Visibility
	VendorId           ID
	Vector             []float32
	InsertedAt         time.Time
	UpdatedAt          time.Time
}

// CanonicalText renders the metadata fields that feed the dataset embedding.
// Any change to one of these fields requires regenerating the embedding.
func (d *Dataset) CanonicalText() string {
	parts := []string{d.Title, d.Description}
	if d.Domain != "" {
		parts = append(parts, "Domain: "+d.Domain)
	}
	if len(d.Topics) > 0 {
		parts = append(parts, "Topics: "+strings.Join(d.Topics, ", "))
	}
	if d.TemporalCoverage != "" {
		parts = append(parts, "Temporal coverage: "+d.TemporalCoverage)
	}
	if d.GeographicCoverage != "" {
		parts = append(parts, "Geographic coverage: "+d.GeographicCoverage)
	}
	return strings.Join(parts, "\n")
}

// Clone returns a deep copy of the dataset.
func (d *Dataset) Clone() *Dataset {
	clone := *d
	if d.Topics != nil {
		clone.Topics = slices.Clone(d.Topics)
	}
	if d.Vector != nil {
		clone.Vector = slices.Clone(d.Vector)
	}
	return &clone
}

// ToolCallRecord is the immutable audit record of a single tool invocation.
// Arguments and Result hold JSON text; an empty Result means the call produced
// no structured result (null on the wire).
type ToolCallRecord struct {
	Name       string
	Arguments  string
	Result     string
	ResultText string
	Failed     bool
}

// Message represents a single entry in a conversation.
type Message struct {
	Role      Role
	Content   string
	ToolCalls []ToolCallRecord // audit trail, immutable once persisted
	Timestamp time.Time
}

// EntityKind categorizes an entity reference carried across turns.
type EntityKind int

const (
	// EntityDataset references a dataset surfaced by a tool result.
	EntityDataset EntityKind = iota + 1
	// EntityInquiry references an inquiry surfaced by a tool result.
	EntityInquiry
)

// String returns the wire value for the entity kind.
func (k EntityKind) String() string {
	switch k {
	case EntityDataset:
		return "dataset"
	case EntityInquiry:
		return "inquiry"
	default:
		return "unknown"
	}
}

// EntityRef records an entity mentioned by a prior tool result so later turns
// ("tell me more about the crypto one") resolve without re-querying.
type EntityRef struct {
	Kind  EntityKind
	Id    ID
	Label string
}

// Conversation represents an ordered exchange between a buyer and the agent.
type Conversation struct {
	Id         ID
	UserId     ID
	Messages   []Message
	EntityRefs []EntityRef
	Deleted    bool // soft delete; never hard-deleted while referenced by an inquiry
	InsertedAt time.Time
	UpdatedAt  time.Time
}

// VectorMatch represents a dataset match from the embedding index.
type VectorMatch struct {
	DatasetId ID
	Score     float32
}

// DatasetMatch represents a ranked search result with the full dataset.
type DatasetMatch struct {
	Dataset *Dataset
	Score   float32
}
