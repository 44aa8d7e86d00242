package inquiry

import (
	"context"
	"log/slog"
	"sync"

	"github.com/agoradata/agora/core"
	"github.com/agoradata/agora/storage"
)

// lockStripes is the number of mutex stripes guarding inquiry updates.
const lockStripes = 64

// ActorRole identifies which side of an inquiry is acting.
type ActorRole int

const (
	RoleBuyer ActorRole = iota + 1
	RoleVendor
)

// Actor is the party performing an inquiry operation.
type Actor struct {
	UserId core.ID
	Role   ActorRole
}

// Buyer returns a buyer-side actor.
func Buyer(userID core.ID) Actor {
	return Actor{UserId: userID, Role: RoleBuyer}
}

// Vendor returns a vendor-side actor.
func Vendor(userID core.ID) Actor {
	return Actor{UserId: userID, Role: RoleVendor}
}

// legalTransitions maps each status to the statuses reachable from it.
// Terminal statuses have no outgoing edges.
var legalTransitions = map[core.InquiryStatus][]core.InquiryStatus{
	core.StatusDraft:         {core.StatusSubmitted},
	core.StatusSubmitted:     {core.StatusPendingReview, core.StatusResponded},
	core.StatusPendingReview: {core.StatusResponded},
	core.StatusResponded:     {core.StatusAccepted, core.StatusRejected},
}

// transitionLegal reports whether from -> to appears in the legality table.
func transitionLegal(from, to core.InquiryStatus) bool {
	for _, allowed := range legalTransitions[from] {
		if allowed == to {
			return true
		}
	}
	return false
}

// Machine coordinates inquiry lifecycle transitions. All status changes
// go through the machine, which checks legality and actor permissions
// under a per-inquiry lock before writing, so a lost race observes the
// new state and fails cleanly rather than clobbering it.
type Machine struct {
	repository storage.InquiryRepository
	locks      [lockStripes]sync.Mutex
	logger     *slog.Logger
}

// Option configures a Machine.
type Option func(*Machine) error

// WithLogger sets a custom logger.
// Default is slog.Default().
func WithLogger(logger *slog.Logger) Option {
	return func(m *Machine) error {
		if logger == nil {
			logger = slog.Default()
		}
		m.logger = logger
		return nil
	}
}

// NewMachine creates a new inquiry machine.
func NewMachine(repository storage.InquiryRepository, opts ...Option) (*Machine, error) {
	if repository == nil {
		return nil, ErrInquiryRepositoryRequired
	}

	m := &Machine{
		repository: repository,
		logger:     slog.Default().With("component", "inquiry-machine"),
	}

	for _, opt := range opts {
		if err := opt(m); err != nil {
			return nil, err
		}
	}

	return m, nil
}

// lockFor returns the mutex stripe guarding the given inquiry.
func (m *Machine) lockFor(id core.ID) *sync.Mutex {
	return &m.locks[uint64(id)%lockStripes]
}

// CreateDraft creates a new draft inquiry from a buyer toward a vendor's
// dataset. The conversation ID may be zero for inquiries created outside
// a conversation.
func (m *Machine) CreateDraft(ctx context.Context, buyerID, vendorID, datasetID, conversationID core.ID, payload core.Payload) (*core.Inquiry, error) {
	inq := &core.Inquiry{
		BuyerId:        buyerID,
		VendorId:       vendorID,
		DatasetId:      datasetID,
		ConversationId: conversationID,
		BuyerInquiry:   payload,
		Status:         core.StatusDraft,
	}
	if err := core.ValidateInquiry(inq); err != nil {
		return nil, err
	}

	created, err := m.repository.AddInquiry(ctx, inq)
	if err != nil {
		return nil, err
	}

	m.logger.Info("inquiry draft created",
		"inquiry", created.Id, "buyer", buyerID, "vendor", vendorID, "dataset", datasetID)
	return created, nil
}

// UpdateDraft replaces the buyer payload of a draft inquiry. Once the
// inquiry leaves draft the buyer payload is frozen.
func (m *Machine) UpdateDraft(ctx context.Context, id core.ID, actor Actor, payload core.Payload) (*core.Inquiry, error) {
	lock := m.lockFor(id)
	lock.Lock()
	defer lock.Unlock()

	inq, err := m.load(ctx, id)
	if err != nil {
		return nil, err
	}
	if actor.Role != RoleBuyer || actor.UserId != inq.BuyerId {
		return nil, ErrActorForbidden
	}
	if inq.Status != core.StatusDraft {
		return nil, ErrDraftOnly
	}

	inq.BuyerInquiry = payload
	return m.repository.UpdateInquiry(ctx, inq)
}

// Submit moves a draft inquiry to submitted. Only the owning buyer may
// submit.
func (m *Machine) Submit(ctx context.Context, id core.ID, actor Actor) (*core.Inquiry, error) {
	return m.transition(ctx, id, actor, core.StatusSubmitted, func(inq *core.Inquiry) error {
		if actor.Role != RoleBuyer || actor.UserId != inq.BuyerId {
			return ErrActorForbidden
		}
		return nil
	}, nil)
}

// MarkPendingReview moves a submitted inquiry to pending_review,
// signalling that the vendor has picked it up. Only the addressed
// vendor may do this.
func (m *Machine) MarkPendingReview(ctx context.Context, id core.ID, actor Actor) (*core.Inquiry, error) {
	return m.transition(ctx, id, actor, core.StatusPendingReview, func(inq *core.Inquiry) error {
		if actor.Role != RoleVendor || actor.UserId != inq.VendorId {
			return ErrActorForbidden
		}
		return nil
	}, nil)
}

// Respond records the vendor's response and moves the inquiry to
// responded. Legal from submitted or pending_review. The response
// payload must not be empty.
func (m *Machine) Respond(ctx context.Context, id core.ID, actor Actor, response core.Payload) (*core.Inquiry, error) {
	if response.Empty() {
		return nil, ErrEmptyResponse
	}
	return m.transition(ctx, id, actor, core.StatusResponded, func(inq *core.Inquiry) error {
		if actor.Role != RoleVendor || actor.UserId != inq.VendorId {
			return ErrActorForbidden
		}
		return nil
	}, func(inq *core.Inquiry) {
		inq.VendorResponse = response
	})
}

// Accept moves a responded inquiry to the terminal accepted status.
// Only the owning buyer may accept.
func (m *Machine) Accept(ctx context.Context, id core.ID, actor Actor) (*core.Inquiry, error) {
	return m.transition(ctx, id, actor, core.StatusAccepted, func(inq *core.Inquiry) error {
		if actor.Role != RoleBuyer || actor.UserId != inq.BuyerId {
			return ErrActorForbidden
		}
		return nil
	}, nil)
}

// Reject moves a responded inquiry to the terminal rejected status.
// Only the owning buyer may reject.
func (m *Machine) Reject(ctx context.Context, id core.ID, actor Actor) (*core.Inquiry, error) {
	return m.transition(ctx, id, actor, core.StatusRejected, func(inq *core.Inquiry) error {
		if actor.Role != RoleBuyer || actor.UserId != inq.BuyerId {
			return ErrActorForbidden
		}
		return nil
	}, nil)
}

// Get retrieves an inquiry by ID.
func (m *Machine) Get(ctx context.Context, id core.ID) (*core.Inquiry, error) {
	return m.load(ctx, id)
}

// ListForVendor retrieves inquiries addressed to a vendor, optionally
// filtered by status.
func (m *Machine) ListForVendor(ctx context.Context, vendorID core.ID, statuses ...core.InquiryStatus) ([]*core.Inquiry, error) {
	return m.repository.ListInquiriesByVendor(ctx, vendorID, statuses...)
}

// ListForBuyer retrieves inquiries created by a buyer.
func (m *Machine) ListForBuyer(ctx context.Context, buyerID core.ID) ([]*core.Inquiry, error) {
	return m.repository.ListInquiriesByBuyer(ctx, buyerID)
}

// SoftDelete marks an inquiry as deleted. Only a party to the inquiry
// may delete it.
func (m *Machine) SoftDelete(ctx context.Context, id core.ID, actor Actor) error {
	lock := m.lockFor(id)
	lock.Lock()
	defer lock.Unlock()

	inq, err := m.load(ctx, id)
	if err != nil {
		return err
	}
	if actor.UserId != inq.BuyerId && actor.UserId != inq.VendorId {
		return ErrActorForbidden
	}
	return m.repository.SoftDeleteInquiry(ctx, id)
}

// transition performs a guarded status change. The permission check and
// optional mutation run only after legality is established; nothing is
// written when any check fails.
func (m *Machine) transition(
	ctx context.Context,
	id core.ID,
	actor Actor,
	to core.InquiryStatus,
	permitted func(*core.Inquiry) error,
	mutate func(*core.Inquiry),
) (*core.Inquiry, error) {
	lock := m.lockFor(id)
	lock.Lock()
	defer lock.Unlock()

	inq, err := m.load(ctx, id)
	if err != nil {
		return nil, err
	}

	if !transitionLegal(inq.Status, to) {
		m.logger.Warn("rejected inquiry transition",
			"inquiry", id, "from", inq.Status.String(), "to", to.String())
		return nil, &IllegalTransitionError{From: inq.Status, To: to}
	}
	if err := permitted(inq); err != nil {
		return nil, err
	}

	if mutate != nil {
		mutate(inq)
	}
	inq.Status = to

	updated, err := m.repository.UpdateInquiry(ctx, inq)
	if err != nil {
		return nil, err
	}

	m.logger.Info("inquiry transitioned",
		"inquiry", id, "to", to.String(), "actor", actor.UserId)
	return updated, nil
}

// load fetches an inquiry, treating soft-deleted records as absent.
func (m *Machine) load(ctx context.Context, id core.ID) (*core.Inquiry, error) {
	inq, err := m.repository.GetInquiry(ctx, id)
	if err != nil {
		return nil, err
	}
	if inq.Deleted {
		return nil, storage.ErrNotFound
	}
	return inq, nil
}
