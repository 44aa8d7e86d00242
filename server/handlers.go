package server

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/agoradata/agora/agent"
	"github.com/agoradata/agora/core"
	"github.com/agoradata/agora/inquiry"
	"github.com/agoradata/agora/match"
	"github.com/agoradata/agora/storage"
)

// userIDHeader carries the caller identity. No authentication layer
// sits in front of it.
const userIDHeader = "X-User-Id"

func (s *Server) userID(c *gin.Context) (core.ID, bool) {
	raw := c.GetHeader(userIDHeader)
	if raw == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing " + userIDHeader + " header"})
		return 0, false
	}
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid " + userIDHeader + " header"})
		return 0, false
	}
	return core.ID(id), true
}

func pathID(c *gin.Context) (core.ID, bool) {
	id, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil || id == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid id"})
		return 0, false
	}
	return core.ID(id), true
}

// writeError maps domain errors onto HTTP statuses.
func (s *Server) writeError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, storage.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
	case errors.Is(err, inquiry.ErrActorForbidden), errors.Is(err, agent.ErrConversationOwnership):
		c.JSON(http.StatusForbidden, gin.H{"error": err.Error()})
	case errors.Is(err, inquiry.ErrIllegalTransition):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case errors.Is(err, inquiry.ErrDraftOnly),
		errors.Is(err, inquiry.ErrEmptyResponse),
		errors.Is(err, agent.ErrEmptyUserMessage),
		errors.Is(err, core.ErrInvalidDataset),
		errors.Is(err, core.ErrInvalidInquiry):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	default:
		s.logger.Error("request failed", "path", c.FullPath(), "err", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

// chatRequest is the body of POST /api/chat.
type chatRequest struct {
	ConversationId uint64 `json:"conversation_id"`
	Message        string `json:"message" binding:"required"`
}

type toolCallView struct {
	Name   string `json:"name"`
	Failed bool   `json:"failed,omitempty"`
}

type entityRefView struct {
	Kind  string `json:"kind"`
	Id    uint64 `json:"id"`
	Label string `json:"label"`
}

type chatResponse struct {
	ConversationId uint64          `json:"conversation_id"`
	Reply          string          `json:"reply"`
	ToolCalls      []toolCallView  `json:"tool_calls,omitempty"`
	EntityRefs     []entityRefView `json:"entity_refs,omitempty"`
}

func (s *Server) chat(c *gin.Context) {
	userID, ok := s.userID(c)
	if !ok {
		return
	}

	var req chatRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := s.marketplace.Orchestrator().HandleMessage(
		c.Request.Context(), core.ID(req.ConversationId), userID, req.Message)
	if err != nil {
		s.writeError(c, err)
		return
	}

	response := chatResponse{
		ConversationId: uint64(result.ConversationId),
		Reply:          result.Reply,
	}
	for _, record := range result.ToolCalls {
		response.ToolCalls = append(response.ToolCalls, toolCallView{Name: record.Name, Failed: record.Failed})
	}
	for _, ref := range result.EntityRefs {
		response.EntityRefs = append(response.EntityRefs, entityRefView{
			Kind: ref.Kind.String(), Id: uint64(ref.Id), Label: ref.Label,
		})
	}
	c.JSON(http.StatusOK, response)
}

func (s *Server) deleteConversation(c *gin.Context) {
	userID, ok := s.userID(c)
	if !ok {
		return
	}
	id, ok := pathID(c)
	if !ok {
		return
	}

	conversation, err := s.marketplace.ConversationRepository().GetConversation(c.Request.Context(), id)
	if err != nil {
		s.writeError(c, err)
		return
	}
	if conversation.UserId != userID {
		s.writeError(c, agent.ErrConversationOwnership)
		return
	}

	if err := s.marketplace.ConversationRepository().SoftDeleteConversation(c.Request.Context(), id); err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": true})
}

// datasetView is the public dataset rendering.
type datasetView struct {
	Id                 uint64   `json:"id"`
	Title              string   `json:"title"`
	Description        string   `json:"description,omitempty"`
	Domain             string   `json:"domain,omitempty"`
	PricingModel       string   `json:"pricing_model,omitempty"`
	Price              float64  `json:"price,omitempty"`
	Topics             []string `json:"topics,omitempty"`
	TemporalCoverage   string   `json:"temporal_coverage,omitempty"`
	GeographicCoverage string   `json:"geographic_coverage,omitempty"`
	Visibility         string   `json:"visibility"`
	VendorId           uint64   `json:"vendor_id"`
	Score              float32  `json:"score,omitempty"`
}

func toDatasetView(d *core.Dataset) datasetView {
	return datasetView{
		Id:                 uint64(d.Id),
		Title:              d.Title,
		Description:        d.Description,
		Domain:             d.Domain,
		PricingModel:       d.PricingModel,
		Price:              d.Price,
		Topics:             d.Topics,
		TemporalCoverage:   d.TemporalCoverage,
		GeographicCoverage: d.GeographicCoverage,
		Visibility:         d.Visibility.String(),
		VendorId:           uint64(d.VendorId),
	}
}

func (s *Server) searchDatasets(c *gin.Context) {
	query := c.Query("q")
	if query == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "q parameter is required"})
		return
	}

	topK := 5
	if raw := c.Query("top_k"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 1 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid top_k"})
			return
		}
		topK = parsed
	}

	filters := match.Filters{
		Visibility:   core.VisibilityPublic,
		Domain:       c.Query("domain"),
		PricingModel: c.Query("pricing_model"),
	}
	// Identity is optional on search. When present, the caller's own
	// private datasets are matchable alongside the public catalog.
	if raw := c.GetHeader(userIDHeader); raw != "" {
		if id, err := strconv.ParseUint(raw, 10, 64); err == nil {
			filters.Requester = core.ID(id)
		}
	}
	if raw := c.Query("max_price"); raw != "" {
		parsed, err := strconv.ParseFloat(raw, 64)
		if err != nil || parsed <= 0 {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid max_price"})
			return
		}
		filters.MaxPrice = parsed
	}

	matches, err := s.marketplace.Matcher().Search(c.Request.Context(), query, topK, filters)
	if err != nil {
		s.writeError(c, err)
		return
	}

	views := make([]datasetView, 0, len(matches))
	for _, m := range matches {
		view := toDatasetView(m.Dataset)
		view.Score = m.Score
		views = append(views, view)
	}
	c.JSON(http.StatusOK, gin.H{"matches": views})
}

func (s *Server) getDataset(c *gin.Context) {
	userID, ok := s.userID(c)
	if !ok {
		return
	}
	id, ok := pathID(c)
	if !ok {
		return
	}

	dataset, err := s.marketplace.DatasetRepository().GetDataset(c.Request.Context(), id)
	if err != nil {
		s.writeError(c, err)
		return
	}
	// Private datasets are invisible to everyone but their vendor.
	if dataset.Visibility != core.VisibilityPublic && dataset.VendorId != userID {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}
	c.JSON(http.StatusOK, toDatasetView(dataset))
}

// datasetRequest is the body of POST /api/datasets and PUT /api/datasets/:id.
type datasetRequest struct {
	Title              string   `json:"title" binding:"required"`
	Description        string   `json:"description"`
	Domain             string   `json:"domain"`
	PricingModel       string   `json:"pricing_model"`
	Price              float64  `json:"price"`
	Topics             []string `json:"topics"`
	TemporalCoverage   string   `json:"temporal_coverage"`
	GeographicCoverage string   `json:"geographic_coverage"`
	Visibility         string   `json:"visibility"`
}

func (r *datasetRequest) toDataset(id, vendorID core.ID) *core.Dataset {
	visibility := core.VisibilityPublic
	if r.Visibility == core.VisibilityPrivate.String() {
		visibility = core.VisibilityPrivate
	}
	return &core.Dataset{
		Id:                 id,
		Title:              r.Title,
		Description:        r.Description,
		Domain:             r.Domain,
		PricingModel:       r.PricingModel,
		Price:              r.Price,
		Topics:             r.Topics,
		TemporalCoverage:   r.TemporalCoverage,
		GeographicCoverage: r.GeographicCoverage,
		Visibility:         visibility,
		VendorId:           vendorID,
	}
}

func (s *Server) registerDataset(c *gin.Context) {
	userID, ok := s.userID(c)
	if !ok {
		return
	}

	var req datasetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	added, err := s.marketplace.Catalog().Register(c.Request.Context(), req.toDataset(0, userID))
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toDatasetView(added[0]))
}

func (s *Server) updateDataset(c *gin.Context) {
	userID, ok := s.userID(c)
	if !ok {
		return
	}
	id, ok := pathID(c)
	if !ok {
		return
	}

	existing, err := s.marketplace.DatasetRepository().GetDataset(c.Request.Context(), id)
	if err != nil {
		s.writeError(c, err)
		return
	}
	if existing.VendorId != userID {
		c.JSON(http.StatusForbidden, gin.H{"error": "dataset belongs to another vendor"})
		return
	}

	var req datasetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	updated, err := s.marketplace.Catalog().Update(c.Request.Context(), req.toDataset(id, userID))
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toDatasetView(updated))
}

// inquiryView is the inquiry rendering returned by the inquiry endpoints.
type inquiryView struct {
	Id             uint64        `json:"id"`
	BuyerId        uint64        `json:"buyer_id"`
	VendorId       uint64        `json:"vendor_id"`
	DatasetId      uint64        `json:"dataset_id"`
	ConversationId uint64        `json:"conversation_id,omitempty"`
	Status         string        `json:"status"`
	BuyerInquiry   *core.Payload `json:"buyer_inquiry,omitempty"`
	VendorResponse *core.Payload `json:"vendor_response,omitempty"`
}

func toInquiryView(inq *core.Inquiry) inquiryView {
	view := inquiryView{
		Id:             uint64(inq.Id),
		BuyerId:        uint64(inq.BuyerId),
		VendorId:       uint64(inq.VendorId),
		DatasetId:      uint64(inq.DatasetId),
		ConversationId: uint64(inq.ConversationId),
		Status:         inq.Status.String(),
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

func (s *Server) listInquiries(c *gin.Context) {
	userID, ok := s.userID(c)
	if !ok {
		return
	}

	role := c.DefaultQuery("role", "buyer")

	var inquiries []*core.Inquiry
	var err error
	switch role {
	case "buyer":
		inquiries, err = s.marketplace.InquiryMachine().ListForBuyer(c.Request.Context(), userID)
	case "vendor":
		var statuses []core.InquiryStatus
		for _, raw := range c.QueryArray("status") {
			status, parseErr := core.ParseInquiryStatus(raw)
			if parseErr != nil {
				c.JSON(http.StatusBadRequest, gin.H{"error": "unknown status " + raw})
				return
			}
			statuses = append(statuses, status)
		}
		inquiries, err = s.marketplace.InquiryMachine().ListForVendor(c.Request.Context(), userID, statuses...)
	default:
		c.JSON(http.StatusBadRequest, gin.H{"error": "role must be buyer or vendor"})
		return
	}
	if err != nil {
		s.writeError(c, err)
		return
	}

	views := make([]inquiryView, 0, len(inquiries))
	for _, inq := range inquiries {
		views = append(views, toInquiryView(inq))
	}
	c.JSON(http.StatusOK, gin.H{"inquiries": views})
}

func (s *Server) getInquiry(c *gin.Context) {
	userID, ok := s.userID(c)
	if !ok {
		return
	}
	id, ok := pathID(c)
	if !ok {
		return
	}

	inq, err := s.marketplace.InquiryMachine().Get(c.Request.Context(), id)
	if err != nil {
		s.writeError(c, err)
		return
	}
	if inq.BuyerId != userID && inq.VendorId != userID {
		c.JSON(http.StatusNotFound, gin.H{"error": "not found"})
		return
	}
	c.JSON(http.StatusOK, toInquiryView(inq))
}

// createInquiryRequest is the body of POST /api/inquiries.
type createInquiryRequest struct {
	DatasetId uint64       `json:"dataset_id" binding:"required"`
	Payload   core.Payload `json:"payload"`
}

func (s *Server) createInquiry(c *gin.Context) {
	userID, ok := s.userID(c)
	if !ok {
		return
	}

	var req createInquiryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	dataset, err := s.marketplace.DatasetRepository().GetDataset(c.Request.Context(), core.ID(req.DatasetId))
	if err != nil {
		s.writeError(c, err)
		return
	}

	inq, err := s.marketplace.InquiryMachine().CreateDraft(
		c.Request.Context(), userID, dataset.VendorId, dataset.Id, 0, req.Payload)
	if err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusCreated, toInquiryView(inq))
}

// payloadRequest is the body of draft updates and vendor responses.
type payloadRequest struct {
	Payload core.Payload `json:"payload"`
}

func (s *Server) updateDraft(c *gin.Context) {
	s.inquiryTransition(c, func(ctx *gin.Context, id, userID core.ID) (*core.Inquiry, error) {
		var req payloadRequest
		if err := ctx.ShouldBindJSON(&req); err != nil {
			return nil, &bindError{err}
		}
		return s.marketplace.InquiryMachine().UpdateDraft(ctx.Request.Context(), id, inquiry.Buyer(userID), req.Payload)
	})
}

func (s *Server) submitInquiry(c *gin.Context) {
	s.inquiryTransition(c, func(ctx *gin.Context, id, userID core.ID) (*core.Inquiry, error) {
		return s.marketplace.InquiryMachine().Submit(ctx.Request.Context(), id, inquiry.Buyer(userID))
	})
}

func (s *Server) reviewInquiry(c *gin.Context) {
	s.inquiryTransition(c, func(ctx *gin.Context, id, userID core.ID) (*core.Inquiry, error) {
		return s.marketplace.InquiryMachine().MarkPendingReview(ctx.Request.Context(), id, inquiry.Vendor(userID))
	})
}

func (s *Server) respondInquiry(c *gin.Context) {
	s.inquiryTransition(c, func(ctx *gin.Context, id, userID core.ID) (*core.Inquiry, error) {
		var req payloadRequest
		if err := ctx.ShouldBindJSON(&req); err != nil {
			return nil, &bindError{err}
		}
		return s.marketplace.InquiryMachine().Respond(ctx.Request.Context(), id, inquiry.Vendor(userID), req.Payload)
	})
}

func (s *Server) acceptInquiry(c *gin.Context) {
	s.inquiryTransition(c, func(ctx *gin.Context, id, userID core.ID) (*core.Inquiry, error) {
		return s.marketplace.InquiryMachine().Accept(ctx.Request.Context(), id, inquiry.Buyer(userID))
	})
}

func (s *Server) rejectInquiry(c *gin.Context) {
	s.inquiryTransition(c, func(ctx *gin.Context, id, userID core.ID) (*core.Inquiry, error) {
		return s.marketplace.InquiryMachine().Reject(ctx.Request.Context(), id, inquiry.Buyer(userID))
	})
}

func (s *Server) deleteInquiry(c *gin.Context) {
	userID, ok := s.userID(c)
	if !ok {
		return
	}
	id, ok := pathID(c)
	if !ok {
		return
	}

	inq, err := s.marketplace.InquiryMachine().Get(c.Request.Context(), id)
	if err != nil {
		s.writeError(c, err)
		return
	}

	actor := inquiry.Buyer(userID)
	if inq.VendorId == userID {
		actor = inquiry.Vendor(userID)
	}
	if err := s.marketplace.InquiryMachine().SoftDelete(c.Request.Context(), id, actor); err != nil {
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"deleted": true})
}

// bindError marks a request-body decoding failure, mapped to 400.
type bindError struct{ err error }

func (e *bindError) Error() string { return e.err.Error() }

// inquiryTransition factors the shared shape of the lifecycle
// endpoints: parse identity and id, run the transition, render the
// inquiry or the mapped error.
func (s *Server) inquiryTransition(c *gin.Context, fn func(*gin.Context, core.ID, core.ID) (*core.Inquiry, error)) {
	userID, ok := s.userID(c)
	if !ok {
		return
	}
	id, ok := pathID(c)
	if !ok {
		return
	}

	inq, err := fn(c, id, userID)
	if err != nil {
		var bind *bindError
		if errors.As(err, &bind) {
			c.JSON(http.StatusBadRequest, gin.H{"error": bind.Error()})
			return
		}
		s.writeError(c, err)
		return
	}
	c.JSON(http.StatusOK, toInquiryView(inq))
}
