package core

import (
	"fmt"
	"time"
)

// InquiryStatus enumerates the lifecycle states of an inquiry.
type InquiryStatus int

const (
	// StatusDraft is the initial, freely editable state.
	StatusDraft InquiryStatus = iota + 1
	// StatusSubmitted means the buyer has committed the inquiry to the vendor.
	StatusSubmitted
	// StatusPendingReview means a vendor-side human has started reviewing.
	StatusPendingReview
	// StatusResponded means the vendor has attached a response payload.
	StatusResponded
	// StatusAccepted is a terminal state set by the buyer.
	StatusAccepted
	// StatusRejected is a terminal state set by the buyer.
	StatusRejected
)

// String returns the wire value for the status.
func (s InquiryStatus) String() string {
	switch s {
	case StatusDraft:
		return "draft"
	case StatusSubmitted:
		return "submitted"
	case StatusPendingReview:
		return "pending_review"
	case StatusResponded:
		return "responded"
	case StatusAccepted:
		return "accepted"
	case StatusRejected:
		return "rejected"
	default:
		return "unknown"
	}
}

// Terminal reports whether the status admits no further transitions.
func (s InquiryStatus) Terminal() bool {
	return s == StatusAccepted || s == StatusRejected
}

// ParseInquiryStatus parses a wire value into an InquiryStatus.
func ParseInquiryStatus(value string) (InquiryStatus, error) {
	switch value {
	case "draft":
		return StatusDraft, nil
	case "submitted":
		return StatusSubmitted, nil
	case "pending_review":
		return StatusPendingReview, nil
	case "responded":
		return StatusResponded, nil
	case "accepted":
		return StatusAccepted, nil
	case "rejected":
		return StatusRejected, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrInvalidInquiryStatus, value)
	}
}

// Payload is the partially structured content of a buyer inquiry or a vendor
// response. The named fields cover what parties usually agree on; Extra is
// the escape hatch for fields this version does not model. The inquiry
// machine never validates the internal shape, only presence for transition
// legality.
type Payload struct {
	Version  int               `json:"version,omitempty"`
	Pricing  string            `json:"pricing,omitempty"`
	Delivery string            `json:"delivery,omitempty"`
	Timeline string            `json:"timeline,omitempty"`
	Terms    string            `json:"terms,omitempty"`
	Notes    string            `json:"notes,omitempty"`
	Extra    map[string]string `json:"extra,omitempty"`
}

// Empty reports whether the payload carries no content at all.
func (p *Payload) Empty() bool {
	return p.Pricing == "" && p.Delivery == "" && p.Timeline == "" &&
		p.Terms == "" && p.Notes == "" && len(p.Extra) == 0
}

// Clone returns a deep copy of the payload.
func (p *Payload) Clone() Payload {
	out := *p
	if p.Extra != nil {
		out.Extra = make(map[string]string, len(p.Extra))
		for k, v := range p.Extra {
			out.Extra[k] = v
		}
	}
	return out
}

// Inquiry is the transactional record of a buyer's interest in a vendor's
// dataset and the vendor's response to it.
//
// BuyerInquiry is writable only by the buyer side and only while Status is
// draft; VendorResponse is writable only by the vendor side. Neither party
// ever mutates the other's payload.
type Inquiry struct {
	Id             ID
	BuyerId        ID
	VendorId       ID
	DatasetId      ID
	ConversationId ID // 0 when the inquiry did not originate in a conversation
	BuyerInquiry   Payload
	VendorResponse Payload
	Status         InquiryStatus
	Deleted        bool // soft delete; never physically removed while referenced
	InsertedAt     time.Time
	UpdatedAt      time.Time
}

// Clone returns a deep copy of the inquiry.
func (i *Inquiry) Clone() *Inquiry {
	out := *i
	out.BuyerInquiry = i.BuyerInquiry.Clone()
	out.VendorResponse = i.VendorResponse.Clone()
	return &out
}
