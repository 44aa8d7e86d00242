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


package agent

import (
	"errors"
	"fmt"
)

var (
	// ErrConversationRepositoryRequired is returned when a conversation repository is not provided.
	ErrConversationRepositoryRequired = errors.New("conversation repository required")

	// ErrDispatcherRequired is returned when a tool dispatcher is not provided.
	ErrDispatcherRequired = errors.New("tool dispatcher required")

	// ErrMatcherRequired is returned when a matcher is not provided.
	ErrMatcherRequired = errors.New("matcher required")

	// ErrInquiryMachineRequired is returned when an inquiry machine is not provided.
	ErrInquiryMachineRequired = errors.New("inquiry machine required")

	// ErrDatasetRepositoryRequired is returned when a dataset repository is not provided.
	ErrDatasetRepositoryRequired = errors.New("dataset repository required")

	// ErrAIProviderRequired is returned when an AI provider is not provided.
	ErrAIProviderRequired = errors.New("AI provider required")

	// ErrConversationOwnership is returned when a user addresses a
	// conversation that belongs to someone else.
	ErrConversationOwnership = errors.New("conversation belongs to another user")

	// ErrEmptyUserMessage is returned when a turn carries no text.
	ErrEmptyUserMessage = errors.New("user message must not be empty")

	// ErrInvalidArguments is the sentinel matched by all InvalidArgumentsError values.
	ErrInvalidArguments = errors.New("invalid tool arguments")

	// ErrUnknownTool is returned when the model requests a tool outside
	// the registered set.
	ErrUnknownTool = errors.New("unknown tool")

	// ErrConfirmationRequired is returned when a submit is attempted
	// without explicit user confirmation.
	ErrConfirmationRequired = errors.New("explicit user confirmation required")

	// ErrToolPassLimit is returned when a single turn exhausts its
	// tool-call passes without producing a final reply.
	ErrToolPassLimit = errors.New("tool pass limit reached")
)

// InvalidArgumentsError reports a tool call whose arguments failed
// validation. It is surfaced to the model as a failed tool result so
// the model can correct itself; it never aborts the turn.
type InvalidArgumentsError struct {
	Tool   string
	Reason string
}

func (e *InvalidArgumentsError) Error() string {
	return fmt.Sprintf("invalid arguments for %s: %s", e.Tool, e.Reason)
}

// Is makes the error match ErrInvalidArguments with errors.Is.
func (e *InvalidArgumentsError) Is(target error) bool {
	return target == ErrInvalidArguments
}
