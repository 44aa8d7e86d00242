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


package server

import (
	"errors"
	"log/slog"
	"net/http"
	"os"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/agoradata/agora"
)

// ErrMarketplaceRequired is returned when a marketplace is not provided.
var ErrMarketplaceRequired = errors.New("marketplace required")

// Server exposes the marketplace over HTTP. Identity is carried in the
// X-User-Id header; there is no authentication layer, callers are
// trusted to be who they claim.
type Server struct {
	marketplace *agora.Marketplace
	logger      *slog.Logger
}

// Option configures a Server.
type Option func(*Server) error

// WithLogger sets a custom logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) error {
		if logger == nil {
			return errors.New("logger cannot be nil")
		}
		s.logger = logger
		return nil
	}
}

// New creates an HTTP server over the marketplace.
func New(marketplace *agora.Marketplace, opts ...Option) (*Server, error) {
	if marketplace == nil {
		return nil, ErrMarketplaceRequired
	}

	s := &Server{
		marketplace: marketplace,
		logger:      slog.Default().With("component", "server"),
	}

	for _, opt := range opts {
		if err := opt(s); err != nil {
			return nil, err
		}
	}

	return s, nil
}

// Router builds the gin engine with all routes registered.
func (s *Server) Router() *gin.Engine {
	if os.Getenv("GIN_MODE") != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()
	router.Use(gin.Recovery())

	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Accept", "X-User-Id"},
		ExposeHeaders:    []string{"Content-Length"},
		AllowCredentials: false,
		MaxAge:           12 * time.Hour,
	}))

	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"status": "healthy",
			"time":   time.Now().Format(time.RFC3339),
		})
	})

	api := router.Group("/api")
	{
		api.POST("/chat", s.chat)
		api.DELETE("/conversations/:id", s.deleteConversation)

		api.GET("/datasets/search", s.searchDatasets)
		api.GET("/datasets/:id", s.getDataset)
		api.POST("/datasets", s.registerDataset)
		api.PUT("/datasets/:id", s.updateDataset)

		api.GET("/inquiries", s.listInquiries)
		api.GET("/inquiries/:id", s.getInquiry)
		api.POST("/inquiries", s.createInquiry)
		api.PUT("/inquiries/:id/draft", s.updateDraft)
		api.POST("/inquiries/:id/submit", s.submitInquiry)
		api.POST("/inquiries/:id/review", s.reviewInquiry)
		api.POST("/inquiries/:id/respond", s.respondInquiry)
		api.POST("/inquiries/:id/accept", s.acceptInquiry)
		api.POST("/inquiries/:id/reject", s.rejectInquiry)
		api.DELETE("/inquiries/:id", s.deleteInquiry)
	}

	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "route not found"})
	})

	return router
}
