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


package storage

import (
	"github.com/agoradata/agora/core"
)

// MarshalID serializes an ID to bytes.
func MarshalID(id core.ID) []byte {
	buf := make([]byte, core.IDMUS.Size(id))
	core.IDMUS.Marshal(id, buf)
	return buf
}

// UnmarshalID deserializes an ID from bytes.
func UnmarshalID(data []byte) (core.ID, error) {
	id, _, err := core.IDMUS.Unmarshal(data)
	return id, err
}

// MarshalDataset serializes a Dataset to bytes.
func MarshalDataset(dataset *core.Dataset) []byte {
	buf := make([]byte, core.DatasetMUS.Size(*dataset))
	core.DatasetMUS.Marshal(*dataset, buf)
	return buf
}

// UnmarshalDataset deserializes a Dataset from bytes.
func UnmarshalDataset(data []byte) (*core.Dataset, error) {
	dataset, _, err := core.DatasetMUS.Unmarshal(data)
	if err != nil {
		return nil, err
	}
	return &dataset, nil
}

// MarshalConversation serializes a Conversation to bytes.
func MarshalConversation(conversation *core.Conversation) []byte {
	buf := make([]byte, core.ConversationMUS.Size(*conversation))
	core.ConversationMUS.Marshal(*conversation, buf)
	return buf
}

// UnmarshalConversation deserializes a Conversation from bytes.
func UnmarshalConversation(data []byte) (*core.Conversation, error) {
	conversation, _, err := core.ConversationMUS.Unmarshal(data)
	if err != nil {
		return nil, err
	}
	return &conversation, nil
}

// MarshalInquiry serializes an Inquiry to bytes.
func MarshalInquiry(inquiry *core.Inquiry) []byte {
	buf := make([]byte, core.InquiryMUS.Size(*inquiry))
	core.InquiryMUS.Marshal(*inquiry, buf)
	return buf
}

// UnmarshalInquiry deserializes an Inquiry from bytes.
func UnmarshalInquiry(data []byte) (*core.Inquiry, error) {
	inquiry, _, err := core.InquiryMUS.Unmarshal(data)
	if err != nil {
		return nil, err
	}
	return &inquiry, nil
}
