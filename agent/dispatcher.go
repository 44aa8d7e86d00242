package agent

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/agoradata/agora/ai"
	"github.com/agoradata/agora/core"
	"github.com/agoradata/agora/inquiry"
	"github.com/agoradata/agora/match"
	"github.com/agoradata/agora/storage"
)

const defaultSearchTopK = 5

// Dispatcher validates and executes tool calls against the marketplace
// services. Execution failures never escape as errors; every call
// produces a ToolCallRecord, and failures are encoded in the record so
// the model can react to them.
type Dispatcher struct {
	matcher           *match.Matcher
	machine           *inquiry.Machine
	datasetRepository storage.DatasetRepository
	logger            *slog.Logger
}

// NewDispatcher creates a new tool dispatcher.
func NewDispatcher(
	matcher *match.Matcher,
	machine *inquiry.Machine,
	datasetRepository storage.DatasetRepository,
) (*Dispatcher, error) {
	if matcher == nil {
		return nil, ErrMatcherRequired
	}
	if machine == nil {
		return nil, ErrInquiryMachineRequired
	}
	if datasetRepository == nil {
		return nil, ErrDatasetRepositoryRequired
	}
	return &Dispatcher{
		matcher:           matcher,
		machine:           machine,
		datasetRepository: datasetRepository,
		logger:            slog.Default().With("component", "dispatcher"),
	}, nil
}

// turnState carries per-turn bookkeeping across tool passes: duplicate
// suppression, drafts created this turn, and entity references gathered
// from tool results.
type turnState struct {
	conversationID  core.ID
	userID          core.ID
	lastUserMessage string

	executed      map[core.ID]*core.ToolCallRecord
	order         []core.ID
	draftsCreated map[core.ID]bool
	entityRefs    []core.EntityRef
}

// newTurnState creates the bookkeeping for one user turn.
func newTurnState(conversationID, userID core.ID, lastUserMessage string, carried []core.EntityRef) *turnState {
	refs := make([]core.EntityRef, len(carried))
	copy(refs, carried)
	return &turnState{
		conversationID:  conversationID,
		userID:          userID,
		lastUserMessage: lastUserMessage,
		executed:        make(map[core.ID]*core.ToolCallRecord),
		draftsCreated:   make(map[core.ID]bool),
		entityRefs:      refs,
	}
}

// addEntityRef records an entity touched by a tool, replacing any
// earlier reference to the same entity.
func (s *turnState) addEntityRef(ref core.EntityRef) {
	for i, existing := range s.entityRefs {
		if existing.Kind == ref.Kind && existing.Id == ref.Id {
			s.entityRefs[i] = ref
			return
		}
	}
	s.entityRefs = append(s.entityRefs, ref)
}

// callKey produces a stable fingerprint of a tool call within a
// conversation, used to suppress duplicate executions in a turn.
// Arguments are normalized through a map round-trip so key order in the
// model's JSON does not defeat the comparison.
func callKey(conversationID core.ID, name, arguments string) core.ID {
	normalized := arguments
	var parsed map[string]any
	if err := json.Unmarshal([]byte(arguments), &parsed); err == nil {
		if canonical, err := json.Marshal(parsed); err == nil {
			normalized = string(canonical)
		}
	}
	return core.IDFromContent(name + "\x00" + normalized + "\x00" + strconv.FormatUint(uint64(conversationID), 10))
}

// Execute runs a single tool call and returns its immutable record.
// A repeated identical call within the same turn returns the recorded
// result of the first execution instead of running again.
func (d *Dispatcher) Execute(ctx context.Context, state *turnState, call ai.ToolCall) core.ToolCallRecord {
	key := callKey(state.conversationID, call.Name, call.Arguments)
	if prior, ok := state.executed[key]; ok {
		d.logger.Debug("suppressed duplicate tool call", "tool", call.Name)
		return *prior
	}

	record := d.run(ctx, state, call)
	state.executed[key] = &record
	state.order = append(state.order, key)
	return record
}

// run executes the tool call body and encodes the outcome.
func (d *Dispatcher) run(ctx context.Context, state *turnState, call ai.ToolCall) core.ToolCallRecord {
	record := core.ToolCallRecord{
		Name:      call.Name,
		Arguments: call.Arguments,
	}

	var result any
	var err error
	switch call.Name {
	case ToolSearchDatasets:
		result, err = d.searchDatasets(ctx, call.Arguments, state)
	case ToolGetDataset:
		result, err = d.getDataset(ctx, call.Arguments, state)
	case ToolCreateInquiryDraft:
		result, err = d.createInquiryDraft(ctx, call.Arguments, state)
	case ToolSubmitInquiry:
		result, err = d.submitInquiry(ctx, call.Arguments, state)
	case ToolGetInquiry:
		result, err = d.getInquiry(ctx, call.Arguments, state)
	case ToolListVendorInquiries:
		result, err = d.listVendorInquiries(ctx, call.Arguments, state)
	default:
		err = fmt.Errorf("%w: %s", ErrUnknownTool, call.Name)
	}

	if err != nil {
		record.Failed = true
		record.ResultText = err.Error()
		if ctx.Err() != nil {
			record.ResultText = "tool execution timed out"
		}
		d.logger.Warn("tool call failed", "tool", call.Name, "err", err)
		return record
	}

	payload, marshalErr := json.Marshal(result)
	if marshalErr != nil {
		record.Failed = true
		record.ResultText = "internal error encoding tool result"
		d.logger.Error("failed to encode tool result", "tool", call.Name, "err", marshalErr)
		return record
	}

	record.Result = string(payload)
	return record
}

// decodeArgs parses tool arguments strictly; unknown fields are
// rejected so misaddressed calls fail loudly instead of silently.
func decodeArgs(tool, arguments string, into any) error {
	if arguments == "" {
		arguments = "{}"
	}
	dec := json.NewDecoder(strings.NewReader(arguments))
	dec.DisallowUnknownFields()
	if err := dec.Decode(into); err != nil {
		return &InvalidArgumentsError{Tool: tool, Reason: err.Error()}
	}
	return nil
}

// datasetSummary is the compact dataset rendering returned by search.
type datasetSummary struct {
	Id           uint64  `json:"id"`
	Title        string  `json:"title"`
	Domain       string  `json:"domain,omitempty"`
	PricingModel string  `json:"pricing_model,omitempty"`
	Price        float64 `json:"price,omitempty"`
	Score        float32 `json:"score"`
}

// datasetDetail is the full dataset rendering returned by get_dataset.
type datasetDetail struct {
	Id                 uint64   `json:"id"`
	Title              string   `json:"title"`
	Description        string   `json:"description,omitempty"`
	Domain             string   `json:"domain,omitempty"`
	PricingModel       string   `json:"pricing_model,omitempty"`
	Price              float64  `json:"price,omitempty"`
	Topics             []string `json:"topics,omitempty"`
	TemporalCoverage   string   `json:"temporal_coverage,omitempty"`
	GeographicCoverage string   `json:"geographic_coverage,omitempty"`
	VendorId           uint64   `json:"vendor_id"`
}

// inquiryView is the inquiry rendering returned by inquiry tools.
type inquiryView struct {
	Id             uint64        `json:"id"`
	DatasetId      uint64        `json:"dataset_id"`
	Status         string        `json:"status"`
	BuyerInquiry   *core.Payload `json:"buyer_inquiry,omitempty"`
	VendorResponse *core.Payload `json:"vendor_response,omitempty"`
}

func toInquiryView(inq *core.Inquiry) inquiryView {
	view := inquiryView{
		Id:        uint64(inq.Id),
		DatasetId: uint64(inq.DatasetId),
		Status:    inq.Status.String(),
	}
	if !inq.BuyerInquiry.Empty() {
		payload := inq.BuyerInquiry.Clone()
		view.BuyerInquiry = &payload
	}
	if !inq.VendorResponse.Empty() {
		payload := inq.VendorResponse.Clone()
		view.VendorResponse = &payload
	}
	return view
}

func (d *Dispatcher) searchDatasets(ctx context.Context, arguments string, state *turnState) (any, error) {
	var args searchDatasetsArgs
	if err := decodeArgs(ToolSearchDatasets, arguments, &args); err != nil {
		return nil, err
	}
	if args.Query == "" {
		return nil, &InvalidArgumentsError{Tool: ToolSearchDatasets, Reason: "query must not be empty"}
	}
	if args.TopK < 0 {
		return nil, &InvalidArgumentsError{Tool: ToolSearchDatasets, Reason: "top_k must not be negative"}
	}
	if args.TopK == 0 {
		args.TopK = defaultSearchTopK
	}

	// The public catalog plus the caller's own private datasets.
	filters := match.Filters{
		Visibility:   core.VisibilityPublic,
		Requester:    state.userID,
		Domain:       args.Domain,
		PricingModel: args.PricingModel,
		MaxPrice:     args.MaxPrice,
	}

	matches, err := d.matcher.Search(ctx, args.Query, args.TopK, filters)
	if err != nil {
		return nil, err
	}

	summaries := make([]datasetSummary, 0, len(matches))
	for _, m := range matches {
		summaries = append(summaries, datasetSummary{
			Id:           uint64(m.Dataset.Id),
			Title:        m.Dataset.Title,
			Domain:       m.Dataset.Domain,
			PricingModel: m.Dataset.PricingModel,
			Price:        m.Dataset.Price,
			Score:        m.Score,
		})
	}
	return map[string]any{"matches": summaries}, nil
}

func (d *Dispatcher) getDataset(ctx context.Context, arguments string, state *turnState) (any, error) {
	var args getDatasetArgs
	if err := decodeArgs(ToolGetDataset, arguments, &args); err != nil {
		return nil, err
	}
	if args.DatasetId == 0 {
		return nil, &InvalidArgumentsError{Tool: ToolGetDataset, Reason: "dataset_id is required"}
	}

	dataset, err := d.datasetRepository.GetDataset(ctx, core.ID(args.DatasetId))
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, fmt.Errorf("dataset %d does not exist", args.DatasetId)
		}
		return nil, err
	}
	if dataset.Visibility != core.VisibilityPublic && dataset.VendorId != state.userID {
		return nil, fmt.Errorf("dataset %d does not exist", args.DatasetId)
	}

	state.addEntityRef(core.EntityRef{Kind: core.EntityDataset, Id: dataset.Id, Label: dataset.Title})

	return datasetDetail{
		Id:                 uint64(dataset.Id),
		Title:              dataset.Title,
		Description:        dataset.Description,
		Domain:             dataset.Domain,
		PricingModel:       dataset.PricingModel,
		Price:              dataset.Price,
		Topics:             dataset.Topics,
		TemporalCoverage:   dataset.TemporalCoverage,
		GeographicCoverage: dataset.GeographicCoverage,
		VendorId:           uint64(dataset.VendorId),
	}, nil
}

func (d *Dispatcher) createInquiryDraft(ctx context.Context, arguments string, state *turnState) (any, error) {
	var args createInquiryDraftArgs
	if err := decodeArgs(ToolCreateInquiryDraft, arguments, &args); err != nil {
		return nil, err
	}
	if args.DatasetId == 0 {
		return nil, &InvalidArgumentsError{Tool: ToolCreateInquiryDraft, Reason: "dataset_id is required"}
	}

	dataset, err := d.datasetRepository.GetDataset(ctx, core.ID(args.DatasetId))
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, fmt.Errorf("dataset %d does not exist", args.DatasetId)
		}
		return nil, err
	}

	payload := core.Payload{
		Version:  1,
		Pricing:  args.Pricing,
		Delivery: args.Delivery,
		Timeline: args.Timeline,
		Terms:    args.Terms,
		Notes:    args.Notes,
	}

	inq, err := d.machine.CreateDraft(ctx, state.userID, dataset.VendorId, dataset.Id, state.conversationID, payload)
	if err != nil {
		return nil, err
	}

	state.draftsCreated[inq.Id] = true
	state.addEntityRef(core.EntityRef{Kind: core.EntityInquiry, Id: inq.Id, Label: "inquiry for " + dataset.Title})

	return toInquiryView(inq), nil
}

func (d *Dispatcher) submitInquiry(ctx context.Context, arguments string, state *turnState) (any, error) {
	var args submitInquiryArgs
	if err := decodeArgs(ToolSubmitInquiry, arguments, &args); err != nil {
		return nil, err
	}
	if args.InquiryId == 0 {
		return nil, &InvalidArgumentsError{Tool: ToolSubmitInquiry, Reason: "inquiry_id is required"}
	}

	// Submission is gated three ways: the model must set confirmed,
	// the user's own latest message must be an explicit affirmation,
	// and a draft created in this turn cannot be submitted in the
	// same turn.
	if !args.Confirmed {
		return nil, ErrConfirmationRequired
	}
	if !isAffirmation(state.lastUserMessage) {
		return nil, ErrConfirmationRequired
	}
	if state.draftsCreated[core.ID(args.InquiryId)] {
		return nil, ErrConfirmationRequired
	}

	inq, err := d.machine.Submit(ctx, core.ID(args.InquiryId), inquiry.Buyer(state.userID))
	if err != nil {
		return nil, err
	}

	state.addEntityRef(core.EntityRef{Kind: core.EntityInquiry, Id: inq.Id, Label: "inquiry " + inq.Status.String()})
	return toInquiryView(inq), nil
}

func (d *Dispatcher) getInquiry(ctx context.Context, arguments string, state *turnState) (any, error) {
	var args getInquiryArgs
	if err := decodeArgs(ToolGetInquiry, arguments, &args); err != nil {
		return nil, err
	}
	if args.InquiryId == 0 {
		return nil, &InvalidArgumentsError{Tool: ToolGetInquiry, Reason: "inquiry_id is required"}
	}

	inq, err := d.machine.Get(ctx, core.ID(args.InquiryId))
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			return nil, fmt.Errorf("inquiry %d does not exist", args.InquiryId)
		}
		return nil, err
	}
	if inq.BuyerId != state.userID && inq.VendorId != state.userID {
		return nil, fmt.Errorf("inquiry %d does not exist", args.InquiryId)
	}

	return toInquiryView(inq), nil
}

func (d *Dispatcher) listVendorInquiries(ctx context.Context, arguments string, state *turnState) (any, error) {
	var args listVendorInquiriesArgs
	if err := decodeArgs(ToolListVendorInquiries, arguments, &args); err != nil {
		return nil, err
	}

	statuses := make([]core.InquiryStatus, 0, len(args.Statuses))
	for _, s := range args.Statuses {
		status, err := core.ParseInquiryStatus(s)
		if err != nil {
			return nil, &InvalidArgumentsError{Tool: ToolListVendorInquiries, Reason: "unknown status " + s}
		}
		statuses = append(statuses, status)
	}

	inquiries, err := d.machine.ListForVendor(ctx, state.userID, statuses...)
	if err != nil {
		return nil, err
	}

	views := make([]inquiryView, 0, len(inquiries))
	for _, inq := range inquiries {
		views = append(views, toInquiryView(inq))
	}
	return map[string]any{"inquiries": views}, nil
}
