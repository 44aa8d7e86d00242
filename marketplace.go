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


package agora

import (
	"context"
	"log/slog"

	"github.com/agoradata/agora/agent"
	"github.com/agoradata/agora/ai"
	"github.com/agoradata/agora/ai/openai"
	"github.com/agoradata/agora/catalog"
	"github.com/agoradata/agora/index"
	"github.com/agoradata/agora/inquiry"
	"github.com/agoradata/agora/match"
	"github.com/agoradata/agora/storage"
	"github.com/agoradata/agora/storage/badger"
)

// Marketplace wires the storage backend, the embedding index and the
// agent services into one handle. It is the composition root used by
// the server and the CLI.
type Marketplace struct {
	backend          *badger.Backend
	datasetRepo      storage.DatasetRepository
	conversationRepo storage.ConversationRepository
	inquiryRepo      storage.InquiryRepository
	provider         ai.Provider
	idx              *index.Index
	catalog          *catalog.Catalog
	matcher          *match.Matcher
	machine          *inquiry.Machine
	orchestrator     *agent.Orchestrator
	logger           *slog.Logger
}

// MarketplaceOption configures a Marketplace.
type MarketplaceOption func(*marketplaceOptions)

type marketplaceOptions struct {
	aiConfig *ai.Config
	provider ai.Provider
}

// WithAIConfig sets the AI endpoint configuration.
func WithAIConfig(config *ai.Config) MarketplaceOption {
	return func(o *marketplaceOptions) {
		o.aiConfig = config
	}
}

// WithProvider injects a pre-built AI provider, bypassing the OpenAI
// client construction. Used by tests.
func WithProvider(provider ai.Provider) MarketplaceOption {
	return func(o *marketplaceOptions) {
		o.provider = provider
	}
}

// NewMarketplace opens the storage backend at filePath and assembles
// every service on top of it. The embedding index starts empty; call
// Reindex to rebuild it from the stored catalog.
func NewMarketplace(filePath string, opts ...MarketplaceOption) (*Marketplace, error) {
	options := &marketplaceOptions{
		aiConfig: ai.DefaultConfig(),
	}
	for _, opt := range opts {
		opt(options)
	}

	backend, err := badger.OpenBackend(filePath, false)
	if err != nil {
		return nil, err
	}

	datasetRepo, err := badger.NewDatasetRepository(backend)
	if err != nil {
		backend.Close()
		return nil, err
	}

	conversationRepo, err := badger.NewConversationRepository(backend)
	if err != nil {
		datasetRepo.Close()
		backend.Close()
		return nil, err
	}

	inquiryRepo, err := badger.NewInquiryRepository(backend)
	if err != nil {
		conversationRepo.Close()
		datasetRepo.Close()
		backend.Close()
		return nil, err
	}

	provider := options.provider
	if provider == nil {
		provider, err = openai.NewProvider(options.aiConfig)
		if err != nil {
			inquiryRepo.Close()
			conversationRepo.Close()
			datasetRepo.Close()
			backend.Close()
			return nil, err
		}
	}

	idx := index.New(options.aiConfig.EmbeddingDimensions)

	cat, err := catalog.NewCatalog(datasetRepo, idx, provider)
	if err != nil {
		provider.Close()
		inquiryRepo.Close()
		conversationRepo.Close()
		datasetRepo.Close()
		backend.Close()
		return nil, err
	}

	matcher, err := match.NewMatcher(datasetRepo, idx, provider)
	if err != nil {
		cat.Release()
		provider.Close()
		inquiryRepo.Close()
		conversationRepo.Close()
		datasetRepo.Close()
		backend.Close()
		return nil, err
	}

	machine, err := inquiry.NewMachine(inquiryRepo)
	if err != nil {
		cat.Release()
		provider.Close()
		inquiryRepo.Close()
		conversationRepo.Close()
		datasetRepo.Close()
		backend.Close()
		return nil, err
	}

	dispatcher, err := agent.NewDispatcher(matcher, machine, datasetRepo)
	if err != nil {
		cat.Release()
		provider.Close()
		inquiryRepo.Close()
		conversationRepo.Close()
		datasetRepo.Close()
		backend.Close()
		return nil, err
	}

	orchestrator, err := agent.NewOrchestrator(conversationRepo, dispatcher, provider)
	if err != nil {
		cat.Release()
		provider.Close()
		inquiryRepo.Close()
		conversationRepo.Close()
		datasetRepo.Close()
		backend.Close()
		return nil, err
	}

	return &Marketplace{
		backend:          backend,
		datasetRepo:      datasetRepo,
		conversationRepo: conversationRepo,
		inquiryRepo:      inquiryRepo,
		provider:         provider,
		idx:              idx,
		catalog:          cat,
		matcher:          matcher,
		machine:          machine,
		orchestrator:     orchestrator,
		logger:           slog.Default(),
	}, nil
}

// Reindex rebuilds the embedding index from the stored catalog.
// Datasets whose persisted vectors no longer match the configured
// dimension are re-embedded in the background; call Wait on the
// catalog to block until they land.
func (m *Marketplace) Reindex(ctx context.Context) error {
	return m.catalog.Reindex(ctx)
}

// Close shuts everything down. Pending embedding work is drained
// first so vectors are not lost.
func (m *Marketplace) Close() error {
	m.catalog.Wait()
	m.catalog.Release()

	if err := m.provider.Close(); err != nil {
		m.logger.Error("error closing AI provider", "err", err)
	}

	if err := m.inquiryRepo.Close(); err != nil {
		m.logger.Error("error closing inquiry repository", "err", err)
		return err
	}
	if err := m.conversationRepo.Close(); err != nil {
		m.logger.Error("error closing conversation repository", "err", err)
		return err
	}
	if err := m.datasetRepo.Close(); err != nil {
		m.logger.Error("error closing dataset repository", "err", err)
		return err
	}

	if err := m.backend.Close(); err != nil {
		m.logger.Error("error closing backend storage", "err", err)
		return err
	}
	return nil
}

// Catalog returns the dataset catalog service.
func (m *Marketplace) Catalog() *catalog.Catalog {
	return m.catalog
}

// Matcher returns the semantic search service.
func (m *Marketplace) Matcher() *match.Matcher {
	return m.matcher
}

// InquiryMachine returns the inquiry lifecycle service.
func (m *Marketplace) InquiryMachine() *inquiry.Machine {
	return m.machine
}

// Orchestrator returns the conversational agent.
func (m *Marketplace) Orchestrator() *agent.Orchestrator {
	return m.orchestrator
}

// DatasetRepository returns the dataset store.
func (m *Marketplace) DatasetRepository() storage.DatasetRepository {
	return m.datasetRepo
}

// ConversationRepository returns the conversation store.
func (m *Marketplace) ConversationRepository() storage.ConversationRepository {
	return m.conversationRepo
}

// InquiryRepository returns the inquiry store.
func (m *Marketplace) InquiryRepository() storage.InquiryRepository {
	return m.inquiryRepo
}
