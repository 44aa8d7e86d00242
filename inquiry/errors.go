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


package inquiry

import (
	"errors"
	"fmt"

	"github.com/agoradata/agora/core"
)

var (
	// ErrInquiryRepositoryRequired is returned when an inquiry repository is not provided.
	ErrInquiryRepositoryRequired = errors.New("inquiry repository required")

	// ErrIllegalTransition is the sentinel matched by all IllegalTransitionError values.
	ErrIllegalTransition = errors.New("illegal inquiry transition")

	// ErrActorForbidden is returned when the acting party may not perform the operation.
	ErrActorForbidden = errors.New("actor not permitted for this operation")

	// ErrEmptyResponse is returned when a vendor response carries no content.
	ErrEmptyResponse = errors.New("vendor response must not be empty")

	// ErrDraftOnly is returned when a buyer edits an inquiry that has left draft.
	ErrDraftOnly = errors.New("buyer inquiry may only be edited in draft")
)

// IllegalTransitionError reports a rejected status change. The inquiry
// is left unchanged when this error is returned.
type IllegalTransitionError struct {
	From core.InquiryStatus
	To   core.InquiryStatus
}

func (e *IllegalTransitionError) Error() string {
	return fmt.Sprintf("illegal inquiry transition: %s -> %s", e.From, e.To)
}

// Is makes the error match ErrIllegalTransition with errors.Is.
func (e *IllegalTransitionError) Is(target error) bool {
	return target == ErrIllegalTransition
}
