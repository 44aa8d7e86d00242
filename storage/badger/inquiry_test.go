package badger

import (
	"context"
	"errors"
	"testing"

	"github.com/agoradata/agora/core"
	"github.com/agoradata/agora/storage"
)

func TestInquiryBasics(t *testing.T) {
	datasetRepo, conversationRepo, inquiryRepo, backend, err := NewMemoryRepositories()
	if err != nil {
		t.Fatalf("Failed to create repositories: %v", err)
	}
	defer func() { inquiryRepo.Close(); conversationRepo.Close(); datasetRepo.Close(); backend.Close() }()

	ctx := context.Background()

	inquiry := &core.Inquiry{
		BuyerId:   core.ID(1),
		VendorId:  core.ID(2),
		DatasetId: core.ID(9),
		BuyerInquiry: core.Payload{
			Version: 1,
			Pricing: "subscription preferred",
		},
		Status: core.StatusDraft,
	}

	added, err := inquiryRepo.AddInquiry(ctx, inquiry)
	if err != nil {
		t.Fatalf("Failed to add inquiry: %v", err)
	}
	if added.Id == 0 {
		t.Fatal("Expected non-zero ID")
	}

	retrieved, err := inquiryRepo.GetInquiry(ctx, added.Id)
	if err != nil {
		t.Fatalf("Failed to get inquiry: %v", err)
	}
	if retrieved.Status != core.StatusDraft {
		t.Fatalf("Expected draft status, got %s", retrieved.Status)
	}
	if retrieved.BuyerInquiry.Pricing != "subscription preferred" {
		t.Fatalf("Expected payload preserved, got '%s'", retrieved.BuyerInquiry.Pricing)
	}
}

func TestInquiryUpdate(t *testing.T) {
	datasetRepo, conversationRepo, inquiryRepo, backend, err := NewMemoryRepositories()
	if err != nil {
		t.Fatalf("Failed to create repositories: %v", err)
	}
	defer func() { inquiryRepo.Close(); conversationRepo.Close(); datasetRepo.Close(); backend.Close() }()

	ctx := context.Background()

	added, err := inquiryRepo.AddInquiry(ctx, &core.Inquiry{
		BuyerId:   core.ID(1),
		VendorId:  core.ID(2),
		DatasetId: core.ID(9),
		Status:    core.StatusSubmitted,
	})
	if err != nil {
		t.Fatalf("Failed to add inquiry: %v", err)
	}

	updated := added.Clone()
	updated.Status = core.StatusResponded
	updated.VendorResponse = core.Payload{Version: 1, Pricing: "1200 EUR/month", Delivery: "S3 bucket"}

	if _, err := inquiryRepo.UpdateInquiry(ctx, updated); err != nil {
		t.Fatalf("Failed to update inquiry: %v", err)
	}

	retrieved, err := inquiryRepo.GetInquiry(ctx, added.Id)
	if err != nil {
		t.Fatalf("Failed to get inquiry: %v", err)
	}
	if retrieved.Status != core.StatusResponded {
		t.Fatalf("Expected responded status, got %s", retrieved.Status)
	}
	if retrieved.VendorResponse.Delivery != "S3 bucket" {
		t.Fatalf("Expected vendor response preserved, got '%s'", retrieved.VendorResponse.Delivery)
	}

	_, err = inquiryRepo.UpdateInquiry(ctx, &core.Inquiry{Id: core.ID(777)})
	if !errors.Is(err, storage.ErrNotFound) {
		t.Fatalf("Expected ErrNotFound, got %v", err)
	}
}

func TestListInquiriesByVendor(t *testing.T) {
	datasetRepo, conversationRepo, inquiryRepo, backend, err := NewMemoryRepositories()
	if err != nil {
		t.Fatalf("Failed to create repositories: %v", err)
	}
	defer func() { inquiryRepo.Close(); conversationRepo.Close(); datasetRepo.Close(); backend.Close() }()

	ctx := context.Background()

	inquiries := []*core.Inquiry{
		{BuyerId: core.ID(1), VendorId: core.ID(2), DatasetId: core.ID(9), Status: core.StatusSubmitted},
		{BuyerId: core.ID(1), VendorId: core.ID(2), DatasetId: core.ID(10), Status: core.StatusDraft},
		{BuyerId: core.ID(3), VendorId: core.ID(2), DatasetId: core.ID(9), Status: core.StatusPendingReview},
		{BuyerId: core.ID(1), VendorId: core.ID(4), DatasetId: core.ID(11), Status: core.StatusSubmitted},
	}
	for _, inq := range inquiries {
		if _, err := inquiryRepo.AddInquiry(ctx, inq); err != nil {
			t.Fatalf("Failed to add inquiry: %v", err)
		}
	}

	all, err := inquiryRepo.ListInquiriesByVendor(ctx, core.ID(2))
	if err != nil {
		t.Fatalf("Failed to list by vendor: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("Expected 3 inquiries for vendor 2, got %d", len(all))
	}

	open, err := inquiryRepo.ListInquiriesByVendor(ctx, core.ID(2), core.StatusSubmitted, core.StatusPendingReview)
	if err != nil {
		t.Fatalf("Failed to list by vendor with statuses: %v", err)
	}
	if len(open) != 2 {
		t.Fatalf("Expected 2 filtered inquiries, got %d", len(open))
	}
	for _, inq := range open {
		if inq.Status == core.StatusDraft {
			t.Fatal("Draft inquiry should be excluded by status filter")
		}
	}
}

func TestListInquiriesByBuyer(t *testing.T) {
	datasetRepo, conversationRepo, inquiryRepo, backend, err := NewMemoryRepositories()
	if err != nil {
		t.Fatalf("Failed to create repositories: %v", err)
	}
	defer func() { inquiryRepo.Close(); conversationRepo.Close(); datasetRepo.Close(); backend.Close() }()

	ctx := context.Background()

	first, err := inquiryRepo.AddInquiry(ctx, &core.Inquiry{BuyerId: core.ID(1), VendorId: core.ID(2), DatasetId: core.ID(9), Status: core.StatusDraft})
	if err != nil {
		t.Fatalf("Failed to add inquiry: %v", err)
	}
	if _, err := inquiryRepo.AddInquiry(ctx, &core.Inquiry{BuyerId: core.ID(1), VendorId: core.ID(4), DatasetId: core.ID(10), Status: core.StatusSubmitted}); err != nil {
		t.Fatalf("Failed to add inquiry: %v", err)
	}

	byBuyer, err := inquiryRepo.ListInquiriesByBuyer(ctx, core.ID(1))
	if err != nil {
		t.Fatalf("Failed to list by buyer: %v", err)
	}
	if len(byBuyer) != 2 {
		t.Fatalf("Expected 2 inquiries for buyer 1, got %d", len(byBuyer))
	}

	// Soft-deleted inquiries drop out of listings but stay readable
	if err := inquiryRepo.SoftDeleteInquiry(ctx, first.Id); err != nil {
		t.Fatalf("Failed to soft delete: %v", err)
	}

	byBuyer, err = inquiryRepo.ListInquiriesByBuyer(ctx, core.ID(1))
	if err != nil {
		t.Fatalf("Failed to list by buyer: %v", err)
	}
	if len(byBuyer) != 1 {
		t.Fatalf("Expected 1 inquiry after soft delete, got %d", len(byBuyer))
	}

	retrieved, err := inquiryRepo.GetInquiry(ctx, first.Id)
	if err != nil {
		t.Fatalf("Failed to get soft-deleted inquiry: %v", err)
	}
	if !retrieved.Deleted {
		t.Fatal("Expected Deleted flag set")
	}
}
