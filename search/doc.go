/*
Copyright 2025 Poiesic Systems

Licensed under the Apache License, Version 2.0 (the "License");
you may not use this file except in compliance with the License.
You may obtain a copy of the License at

	http://www.apache.org/licenses/LICENSE-2.0

Unless required by applicable law or agreed to in writing, software
distributed under the License is distributed on an "AS IS" BASIS,
WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
See the License for the specific language governing permissions and
limitations under the License.
*/

// Package search implements hybrid retrieval over the chunk corpus.
//
// A query runs two concurrent legs: cosine similarity against stored
// embeddings and BM25 against the keyword index. The legs are merged
// with reciprocal rank fusion, which compares rank positions rather
// than the incompatible raw scores, and the fused set is reranked by a
// weighted blend of vector similarity, keyword evidence and metadata
// richness.
package search
