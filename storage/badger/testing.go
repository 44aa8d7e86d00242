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


package badger

import "github.com/agoradata/agora/storage"

// NewMemoryRepositories creates in-memory dataset, conversation, and inquiry
// repositories for testing. Returns datasetRepo, conversationRepo, inquiryRepo,
// backend, and error. Caller must close all repos and the backend when done.
func NewMemoryRepositories() (storage.DatasetRepository, storage.ConversationRepository, storage.InquiryRepository, *Backend, error) {
	backend, err := OpenBackend("", true)
	if err != nil {
		return nil, nil, nil, nil, err
	}

	datasetRepo, err := NewDatasetRepository(backend)
	if err != nil {
		backend.Close()
		return nil, nil, nil, nil, err
	}

	conversationRepo, err := NewConversationRepository(backend)
	if err != nil {
		datasetRepo.Close()
		backend.Close()
		return nil, nil, nil, nil, err
	}

	inquiryRepo, err := NewInquiryRepository(backend)
	if err != nil {
		conversationRepo.Close()
		datasetRepo.Close()
		backend.Close()
		return nil, nil, nil, nil, err
	}

	return datasetRepo, conversationRepo, inquiryRepo, backend, nil
}
