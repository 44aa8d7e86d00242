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

import "errors"

// Domain validation errors
var (
	// ErrInvalidDataset indicates a Dataset failed validation.
	ErrInvalidDataset = errors.New("invalid dataset")

	// ErrInvalidMessage indicates a Message failed validation.
	ErrInvalidMessage = errors.New("invalid message")

	// ErrInvalidInquiry indicates an Inquiry failed validation.
	ErrInvalidInquiry = errors.New("invalid inquiry")

	// ErrInvalidInquiryStatus indicates an unrecognized inquiry status value.
	ErrInvalidInquiryStatus = errors.New("invalid inquiry status")

	// ErrInvalidTimestamp indicates a timestamp is in the future.
	ErrInvalidTimestamp = errors.New("timestamp cannot be in the future")

	// ErrEmptyContent indicates the Content field is empty.
	ErrEmptyContent = errors.New("content cannot be empty")

	// ErrInvalidRole indicates an invalid Role value.
	ErrInvalidRole = errors.New("invalid role")

	// ErrEmptyTitle indicates the dataset Title field is empty.
	ErrEmptyTitle = errors.New("dataset title cannot be empty")

	// ErrInvalidVisibility indicates an invalid Visibility value.
	ErrInvalidVisibility = errors.New("invalid visibility")

	// ErrMissingVendor indicates a dataset or inquiry has no vendor reference.
	ErrMissingVendor = errors.New("vendor reference required")

	// ErrMissingBuyer indicates an inquiry has no buyer reference.
	ErrMissingBuyer = errors.New("buyer reference required")

	// ErrMissingDataset indicates an inquiry has no dataset reference.
	ErrMissingDataset = errors.New("dataset reference required")
)
