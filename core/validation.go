// Copyright 2025 Agora Data
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.


package core

import (
	"fmt"
	"time"
)

// ValidateDataset validates a Dataset according to domain rules.
//
// Validation rules:
//   - Title must not be empty
//   - Visibility must be valid (public or private)
//   - VendorId must be set
//
// NOT validated (populated by the catalog pipeline):
//   - Vector (can be empty until the embedding is generated)
//   - ID (0 is valid from database sequences)
func ValidateDataset(dataset *Dataset) error {
	if dataset == nil {
		return fmt.Errorf("%w: dataset is nil", ErrInvalidDataset)
	}

	if dataset.Title == "" {
		return fmt.Errorf("%w: %w", ErrInvalidDataset, ErrEmptyTitle)
	}

	if err := ValidateVisibility(dataset.Visibility); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidDataset, err)
	}

	if dataset.VendorId == 0 {
		return fmt.Errorf("%w: %w", ErrInvalidDataset, ErrMissingVendor)
	}

	return nil
}

// ValidateMessage validates a conversation Message according to domain rules.
//
// Validation rules:
//   - Content must not be empty unless the message carries tool calls
//   - Role must be valid (user or assistant)
//   - Timestamp must not be in the future
func ValidateMessage(message *Message) error {
	if message == nil {
		return fmt.Errorf("%w: message is nil", ErrInvalidMessage)
	}

	if message.Content == "" && len(message.ToolCalls) == 0 {
		return fmt.Errorf("%w: %w", ErrInvalidMessage, ErrEmptyContent)
	}

	if err := ValidateRole(message.Role); err != nil {
		return fmt.Errorf("%w: %w", ErrInvalidMessage, err)
	}

	if !IsValidTimestamp(message.Timestamp) {
		return fmt.Errorf("%w: %w", ErrInvalidMessage, ErrInvalidTimestamp)
	}

	return nil
}

// ValidateInquiry validates an Inquiry according to domain rules.
//
// Validation rules:
//   - BuyerId, VendorId and DatasetId must be set
//   - Status must be one of the known enumeration values
//
// NOT validated:
//   - BuyerInquiry / VendorResponse internal shape (free-form by contract)
//   - ID (0 is valid from database sequences)
//   - ConversationId (0 means no originating conversation)
func ValidateInquiry(inquiry *Inquiry) error {
	if inquiry == nil {
		return fmt.Errorf("%w: inquiry is nil", ErrInvalidInquiry)
	}

	if inquiry.BuyerId == 0 {
		return fmt.Errorf("%w: %w", ErrInvalidInquiry, ErrMissingBuyer)
	}
	if inquiry.VendorId == 0 {
		return fmt.Errorf("%w: %w", ErrInvalidInquiry, ErrMissingVendor)
	}
	if inquiry.DatasetId == 0 {
		return fmt.Errorf("%w: %w", ErrInvalidInquiry, ErrMissingDataset)
	}

	if inquiry.Status < StatusDraft || inquiry.Status > StatusRejected {
		return fmt.Errorf("%w: %w: value %d", ErrInvalidInquiry, ErrInvalidInquiryStatus, inquiry.Status)
	}

	return nil
}

// ValidateRole validates that a Role has a valid value.
func ValidateRole(role Role) error {
	if role != RoleUser && role != RoleAssistant {
		return fmt.Errorf("%w: value %d", ErrInvalidRole, role)
	}
	return nil
}

// ValidateVisibility validates that a Visibility has a valid value.
func ValidateVisibility(visibility Visibility) error {
	if visibility != VisibilityPublic && visibility != VisibilityPrivate {
		return fmt.Errorf("%w: value %d", ErrInvalidVisibility, visibility)
	}
	return nil
}

// IsValidTimestamp checks if a timestamp is valid (not in the future).
func IsValidTimestamp(ts time.Time) bool {
	return !ts.After(time.Now())
}
