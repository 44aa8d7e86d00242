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


// Package match provides semantic dataset matching for the catalog.
//
// The Matcher type embeds free-text queries with the same embedder that
// produced the dataset vectors, scans the in-memory vector index, and
// resolves the winning IDs back to full dataset records. Metadata
// filters (visibility, domain, pricing, vendor) are applied after the
// vector scan, before truncation to the requested result count.
//
// Results are ordered by similarity score descending; ties are broken
// by most recent update, then by ascending dataset ID, so identical
// catalogs always produce identical result orderings.
package match
