package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agoradata/agora/ai"
	"github.com/agoradata/agora/core"
	"github.com/agoradata/agora/inquiry"
)

func execute(t *testing.T, h *harness, state *turnState, name, arguments string) core.ToolCallRecord {
	t.Helper()
	return h.dispatcher.Execute(context.Background(), state, ai.ToolCall{
		Id: "call_1", Name: name, Arguments: arguments,
	})
}

func TestNewDispatcher(t *testing.T) {
	h := newHarness(t)

	matcher, machine, datasets := h.dispatcher.matcher, h.dispatcher.machine, h.dispatcher.datasetRepository

	t.Run("requires matcher", func(t *testing.T) {
		_, err := NewDispatcher(nil, machine, datasets)
		assert.ErrorIs(t, err, ErrMatcherRequired)
	})

	t.Run("requires inquiry machine", func(t *testing.T) {
		_, err := NewDispatcher(matcher, nil, datasets)
		assert.ErrorIs(t, err, ErrInquiryMachineRequired)
	})

	t.Run("requires dataset repository", func(t *testing.T) {
		_, err := NewDispatcher(matcher, machine, nil)
		assert.ErrorIs(t, err, ErrDatasetRepositoryRequired)
	})
}

func TestDispatcher_GetDatasetVisibility(t *testing.T) {
	h := newHarness(t)

	added, err := h.catalog.Register(context.Background(), &core.Dataset{
		Title:      "Internal Sales Ledger",
		Visibility: core.VisibilityPrivate,
		VendorId:   9,
	})
	require.NoError(t, err)
	h.catalog.Wait()
	args := fmt.Sprintf(`{"dataset_id":%d}`, added[0].Id)

	t.Run("hidden from other users", func(t *testing.T) {
		state := newTurnState(1, 1, "", nil)
		record := execute(t, h, state, ToolGetDataset, args)
		assert.True(t, record.Failed)
		assert.Contains(t, record.ResultText, "does not exist")
		assert.Empty(t, state.entityRefs)
	})

	t.Run("visible to the owning vendor", func(t *testing.T) {
		state := newTurnState(1, 9, "", nil)
		record := execute(t, h, state, ToolGetDataset, args)
		assert.False(t, record.Failed)
		assert.Contains(t, record.Result, "Internal Sales Ledger")
		require.Len(t, state.entityRefs, 1)
	})
}

func TestDispatcher_SearchIncludesOwnPrivate(t *testing.T) {
	h := newHarness(t)

	added, err := h.catalog.Register(context.Background(), &core.Dataset{
		Title:       "Internal Churn Panel",
		Description: "Subscriber churn by cohort.",
		Visibility:  core.VisibilityPrivate,
		VendorId:    7,
	})
	require.NoError(t, err)
	h.catalog.Wait()

	query, err := json.Marshal(map[string]string{"query": added[0].CanonicalText()})
	require.NoError(t, err)

	t.Run("owning vendor finds it", func(t *testing.T) {
		state := newTurnState(1, 7, "", nil)
		record := execute(t, h, state, ToolSearchDatasets, string(query))
		require.False(t, record.Failed)
		assert.Contains(t, record.Result, "Internal Churn Panel")
	})

	t.Run("other users do not", func(t *testing.T) {
		state := newTurnState(1, 3, "", nil)
		record := execute(t, h, state, ToolSearchDatasets, string(query))
		require.False(t, record.Failed)
		assert.NotContains(t, record.Result, "Internal Churn Panel")
	})
}

func TestDispatcher_SearchRejectsBadArgs(t *testing.T) {
	h := newHarness(t)
	state := newTurnState(1, 1, "", nil)

	t.Run("empty query", func(t *testing.T) {
		record := execute(t, h, state, ToolSearchDatasets, `{"query":""}`)
		assert.True(t, record.Failed)
		assert.Contains(t, record.ResultText, "query must not be empty")
	})

	t.Run("negative top_k", func(t *testing.T) {
		record := execute(t, h, state, ToolSearchDatasets, `{"query":"x","top_k":-1}`)
		assert.True(t, record.Failed)
	})

	t.Run("unknown field", func(t *testing.T) {
		record := execute(t, h, state, ToolSearchDatasets, `{"query":"x","limit":10}`)
		assert.True(t, record.Failed)
		assert.Contains(t, record.ResultText, "invalid arguments")
	})
}

func TestDispatcher_InquiryPartyChecks(t *testing.T) {
	h := newHarness(t)
	dataset := h.registerDataset(t, "Freight Rates", "Spot freight rates by lane.", 9)

	draft, err := h.machine.CreateDraft(context.Background(), 1, dataset.VendorId, dataset.Id, 0,
		core.Payload{Version: 1, Notes: "weekly refresh needed"})
	require.NoError(t, err)
	args := fmt.Sprintf(`{"inquiry_id":%d}`, draft.Id)

	t.Run("buyer can read", func(t *testing.T) {
		state := newTurnState(1, 1, "", nil)
		record := execute(t, h, state, ToolGetInquiry, args)
		assert.False(t, record.Failed)
		assert.Contains(t, record.Result, `"status":"draft"`)
	})

	t.Run("vendor can read", func(t *testing.T) {
		state := newTurnState(1, 9, "", nil)
		record := execute(t, h, state, ToolGetInquiry, args)
		assert.False(t, record.Failed)
	})

	t.Run("stranger cannot read", func(t *testing.T) {
		state := newTurnState(1, 5, "", nil)
		record := execute(t, h, state, ToolGetInquiry, args)
		assert.True(t, record.Failed)
		assert.Contains(t, record.ResultText, "does not exist")
	})
}

func TestDispatcher_ListVendorInquiries(t *testing.T) {
	h := newHarness(t)
	dataset := h.registerDataset(t, "Port Call Data", "Vessel port call events.", 9)

	draft, err := h.machine.CreateDraft(context.Background(), 1, dataset.VendorId, dataset.Id, 0,
		core.Payload{Version: 1, Notes: "evaluation"})
	require.NoError(t, err)
	_, err = h.machine.Submit(context.Background(), draft.Id, inquiry.Buyer(1))
	require.NoError(t, err)

	state := newTurnState(1, 9, "", nil)

	t.Run("lists submitted inquiries", func(t *testing.T) {
		record := execute(t, h, state, ToolListVendorInquiries, `{"statuses":["submitted"]}`)
		assert.False(t, record.Failed)
		assert.Contains(t, record.Result, `"status":"submitted"`)
	})

	t.Run("status filter excludes", func(t *testing.T) {
		record := execute(t, h, state, ToolListVendorInquiries, `{"statuses":["responded"]}`)
		assert.False(t, record.Failed)
		assert.Equal(t, `{"inquiries":[]}`, record.Result)
	})

	t.Run("rejects unknown status", func(t *testing.T) {
		record := execute(t, h, state, ToolListVendorInquiries, `{"statuses":["bogus"]}`)
		assert.True(t, record.Failed)
		assert.Contains(t, record.ResultText, "unknown status")
	})
}

func TestIsAffirmation(t *testing.T) {
	affirmed := []string{"yes", "Yes", "YES", " yes ", "yes.", "submit it!", "go ahead", "Okay"}
	for _, message := range affirmed {
		assert.True(t, isAffirmation(message), "expected %q to confirm", message)
	}

	denied := []string{"", "no", "maybe", "yes but change the price first", "please submit my inquiry", "what does submitting mean?"}
	for _, message := range denied {
		assert.False(t, isAffirmation(message), "expected %q not to confirm", message)
	}
}
