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

// Package bm25 provides the sparse retrieval leg: an in-memory
// Okapi BM25 inverted index over chunk text.
//
// The index separates a mutex-guarded writer side from an immutable
// snapshot that readers load atomically. New chunks become visible to
// searches once the indexing call that added them returns, while a
// search already in flight keeps scoring against the snapshot it
// started with.
package bm25
