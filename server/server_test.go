package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agoradata/agora"
	"github.com/agoradata/agora/ai/mock"
	"github.com/agoradata/agora/core"
)

type fixture struct {
	router      *gin.Engine
	marketplace *agora.Marketplace
	provider    *mock.MockProvider
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	provider := mock.NewMockProvider().(*mock.MockProvider)
	marketplace, err := agora.NewMarketplace(t.TempDir(), agora.WithProvider(provider))
	require.NoError(t, err)
	t.Cleanup(func() { marketplace.Close() })

	srv, err := New(marketplace)
	require.NoError(t, err)

	return &fixture{
		router:      srv.Router(),
		marketplace: marketplace,
		provider:    provider,
	}
}

// do performs a request as the given user. A zero userID omits the
// identity header.
func (f *fixture) do(t *testing.T, method, path string, userID uint64, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		encoded, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(encoded)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if userID != 0 {
		req.Header.Set(userIDHeader, fmt.Sprintf("%d", userID))
	}

	recorder := httptest.NewRecorder()
	f.router.ServeHTTP(recorder, req)
	return recorder
}

func decode(t *testing.T, recorder *httptest.ResponseRecorder, into any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(recorder.Body.Bytes(), into))
}

func (f *fixture) registerDataset(t *testing.T, vendorID uint64, body map[string]any) datasetView {
	t.Helper()
	recorder := f.do(t, http.MethodPost, "/api/datasets", vendorID, body)
	require.Equal(t, http.StatusCreated, recorder.Code, recorder.Body.String())
	var view datasetView
	decode(t, recorder, &view)
	f.marketplace.Catalog().Wait()
	return view
}

func TestHealth(t *testing.T) {
	f := newFixture(t)

	recorder := f.do(t, http.MethodGet, "/health", 0, nil)
	assert.Equal(t, http.StatusOK, recorder.Code)
	assert.Contains(t, recorder.Body.String(), "healthy")
}

func TestChat(t *testing.T) {
	f := newFixture(t)

	t.Run("requires identity", func(t *testing.T) {
		recorder := f.do(t, http.MethodPost, "/api/chat", 0, map[string]any{"message": "hi"})
		assert.Equal(t, http.StatusBadRequest, recorder.Code)
	})

	t.Run("requires message", func(t *testing.T) {
		recorder := f.do(t, http.MethodPost, "/api/chat", 1, map[string]any{})
		assert.Equal(t, http.StatusBadRequest, recorder.Code)
	})

	t.Run("round trip", func(t *testing.T) {
		f.provider.GetMockChatModel().EnqueueText("Hello, what data do you need?")

		recorder := f.do(t, http.MethodPost, "/api/chat", 1, map[string]any{"message": "hi"})
		require.Equal(t, http.StatusOK, recorder.Code, recorder.Body.String())

		var response chatResponse
		decode(t, recorder, &response)
		assert.NotZero(t, response.ConversationId)
		assert.Equal(t, "Hello, what data do you need?", response.Reply)
	})

	t.Run("conversation ownership enforced", func(t *testing.T) {
		f.provider.GetMockChatModel().EnqueueText("sure")
		recorder := f.do(t, http.MethodPost, "/api/chat", 1, map[string]any{"message": "hi"})
		require.Equal(t, http.StatusOK, recorder.Code)

		var response chatResponse
		decode(t, recorder, &response)

		recorder = f.do(t, http.MethodPost, "/api/chat", 2, map[string]any{
			"conversation_id": response.ConversationId, "message": "hi",
		})
		assert.Equal(t, http.StatusForbidden, recorder.Code)
	})
}

func TestDatasets(t *testing.T) {
	f := newFixture(t)

	public := f.registerDataset(t, 9, map[string]any{
		"title":       "City Parking Occupancy",
		"description": "Real-time parking garage occupancy.",
	})
	private := f.registerDataset(t, 9, map[string]any{
		"title":      "Vendor Margin Data",
		"visibility": "private",
	})

	t.Run("register requires title", func(t *testing.T) {
		recorder := f.do(t, http.MethodPost, "/api/datasets", 9, map[string]any{"description": "x"})
		assert.Equal(t, http.StatusBadRequest, recorder.Code)
	})

	t.Run("get public dataset", func(t *testing.T) {
		recorder := f.do(t, http.MethodGet, fmt.Sprintf("/api/datasets/%d", public.Id), 1, nil)
		require.Equal(t, http.StatusOK, recorder.Code)

		var view datasetView
		decode(t, recorder, &view)
		assert.Equal(t, "City Parking Occupancy", view.Title)
		assert.Equal(t, uint64(9), view.VendorId)
	})

	t.Run("private dataset hidden from strangers", func(t *testing.T) {
		recorder := f.do(t, http.MethodGet, fmt.Sprintf("/api/datasets/%d", private.Id), 1, nil)
		assert.Equal(t, http.StatusNotFound, recorder.Code)

		recorder = f.do(t, http.MethodGet, fmt.Sprintf("/api/datasets/%d", private.Id), 9, nil)
		assert.Equal(t, http.StatusOK, recorder.Code)
	})

	t.Run("missing dataset", func(t *testing.T) {
		recorder := f.do(t, http.MethodGet, "/api/datasets/999", 1, nil)
		assert.Equal(t, http.StatusNotFound, recorder.Code)
	})

	t.Run("search", func(t *testing.T) {
		stored, err := f.marketplace.DatasetRepository().GetDataset(context.Background(), core.ID(public.Id))
		require.NoError(t, err)

		query := url.Values{"q": {stored.CanonicalText()}}
		recorder := f.do(t, http.MethodGet, "/api/datasets/search?"+query.Encode(), 1, nil)
		require.Equal(t, http.StatusOK, recorder.Code, recorder.Body.String())

		var response struct {
			Matches []datasetView `json:"matches"`
		}
		decode(t, recorder, &response)
		require.NotEmpty(t, response.Matches)
		assert.Equal(t, public.Id, response.Matches[0].Id)
		assert.Greater(t, response.Matches[0].Score, float32(0))
	})

	t.Run("search surfaces own private dataset", func(t *testing.T) {
		stored, err := f.marketplace.DatasetRepository().GetDataset(context.Background(), core.ID(private.Id))
		require.NoError(t, err)

		query := url.Values{"q": {stored.CanonicalText()}}
		recorder := f.do(t, http.MethodGet, "/api/datasets/search?"+query.Encode(), 9, nil)
		require.Equal(t, http.StatusOK, recorder.Code, recorder.Body.String())

		var response struct {
			Matches []datasetView `json:"matches"`
		}
		decode(t, recorder, &response)
		require.NotEmpty(t, response.Matches)
		assert.Equal(t, private.Id, response.Matches[0].Id)

		recorder = f.do(t, http.MethodGet, "/api/datasets/search?"+query.Encode(), 1, nil)
		require.Equal(t, http.StatusOK, recorder.Code)
		decode(t, recorder, &response)
		for _, m := range response.Matches {
			assert.NotEqual(t, private.Id, m.Id)
		}
	})

	t.Run("search requires query", func(t *testing.T) {
		recorder := f.do(t, http.MethodGet, "/api/datasets/search", 1, nil)
		assert.Equal(t, http.StatusBadRequest, recorder.Code)
	})

	t.Run("update by another vendor forbidden", func(t *testing.T) {
		recorder := f.do(t, http.MethodPut, fmt.Sprintf("/api/datasets/%d", public.Id), 5, map[string]any{
			"title": "Hijacked",
		})
		assert.Equal(t, http.StatusForbidden, recorder.Code)
	})
}

func TestInquiryLifecycle(t *testing.T) {
	f := newFixture(t)

	dataset := f.registerDataset(t, 9, map[string]any{
		"title":       "Telecom Coverage Maps",
		"description": "Signal strength grids.",
	})

	var inq inquiryView

	t.Run("create draft", func(t *testing.T) {
		recorder := f.do(t, http.MethodPost, "/api/inquiries", 1, map[string]any{
			"dataset_id": dataset.Id,
			"payload":    map[string]any{"version": 1, "notes": "need coverage for Q4 planning"},
		})
		require.Equal(t, http.StatusCreated, recorder.Code, recorder.Body.String())
		decode(t, recorder, &inq)
		assert.Equal(t, "draft", inq.Status)
		assert.Equal(t, uint64(9), inq.VendorId)
	})

	t.Run("stranger cannot read", func(t *testing.T) {
		recorder := f.do(t, http.MethodGet, fmt.Sprintf("/api/inquiries/%d", inq.Id), 5, nil)
		assert.Equal(t, http.StatusNotFound, recorder.Code)
	})

	t.Run("vendor cannot submit", func(t *testing.T) {
		recorder := f.do(t, http.MethodPost, fmt.Sprintf("/api/inquiries/%d/submit", inq.Id), 9, nil)
		assert.Equal(t, http.StatusForbidden, recorder.Code)
	})

	t.Run("buyer submits", func(t *testing.T) {
		recorder := f.do(t, http.MethodPost, fmt.Sprintf("/api/inquiries/%d/submit", inq.Id), 1, nil)
		require.Equal(t, http.StatusOK, recorder.Code, recorder.Body.String())
		decode(t, recorder, &inq)
		assert.Equal(t, "submitted", inq.Status)
	})

	t.Run("double submit conflicts", func(t *testing.T) {
		recorder := f.do(t, http.MethodPost, fmt.Sprintf("/api/inquiries/%d/submit", inq.Id), 1, nil)
		assert.Equal(t, http.StatusConflict, recorder.Code)
	})

	t.Run("vendor reviews and responds", func(t *testing.T) {
		recorder := f.do(t, http.MethodPost, fmt.Sprintf("/api/inquiries/%d/review", inq.Id), 9, nil)
		require.Equal(t, http.StatusOK, recorder.Code)

		recorder = f.do(t, http.MethodPost, fmt.Sprintf("/api/inquiries/%d/respond", inq.Id), 9, map[string]any{
			"payload": map[string]any{"version": 1, "pricing": "1200/month", "delivery": "S3 export"},
		})
		require.Equal(t, http.StatusOK, recorder.Code, recorder.Body.String())
		decode(t, recorder, &inq)
		assert.Equal(t, "responded", inq.Status)
		require.NotNil(t, inq.VendorResponse)
		assert.Equal(t, "1200/month", inq.VendorResponse.Pricing)
	})

	t.Run("buyer accepts", func(t *testing.T) {
		recorder := f.do(t, http.MethodPost, fmt.Sprintf("/api/inquiries/%d/accept", inq.Id), 1, nil)
		require.Equal(t, http.StatusOK, recorder.Code)
		decode(t, recorder, &inq)
		assert.Equal(t, "accepted", inq.Status)
	})

	t.Run("vendor lists by status", func(t *testing.T) {
		recorder := f.do(t, http.MethodGet, "/api/inquiries?role=vendor&status=accepted", 9, nil)
		require.Equal(t, http.StatusOK, recorder.Code)

		var response struct {
			Inquiries []inquiryView `json:"inquiries"`
		}
		decode(t, recorder, &response)
		require.Len(t, response.Inquiries, 1)
		assert.Equal(t, inq.Id, response.Inquiries[0].Id)
	})

	t.Run("buyer lists own", func(t *testing.T) {
		recorder := f.do(t, http.MethodGet, "/api/inquiries", 1, nil)
		require.Equal(t, http.StatusOK, recorder.Code)
		assert.Contains(t, recorder.Body.String(), `"status":"accepted"`)
	})
}

func TestDeleteConversation(t *testing.T) {
	f := newFixture(t)

	f.provider.GetMockChatModel().EnqueueText("hello")
	recorder := f.do(t, http.MethodPost, "/api/chat", 1, map[string]any{"message": "hi"})
	require.Equal(t, http.StatusOK, recorder.Code)

	var response chatResponse
	decode(t, recorder, &response)

	t.Run("other user forbidden", func(t *testing.T) {
		recorder := f.do(t, http.MethodDelete, fmt.Sprintf("/api/conversations/%d", response.ConversationId), 2, nil)
		assert.Equal(t, http.StatusForbidden, recorder.Code)
	})

	t.Run("owner deletes", func(t *testing.T) {
		recorder := f.do(t, http.MethodDelete, fmt.Sprintf("/api/conversations/%d", response.ConversationId), 1, nil)
		assert.Equal(t, http.StatusOK, recorder.Code)

		// Chatting on a deleted conversation behaves as not found.
		recorder = f.do(t, http.MethodPost, "/api/chat", 1, map[string]any{
			"conversation_id": response.ConversationId, "message": "hi again",
		})
		assert.Equal(t, http.StatusNotFound, recorder.Code)
	})
}
