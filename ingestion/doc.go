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

// Package ingestion turns documents into embedded, indexed chunks.
//
// A Pipeline splits each document, groups the chunks into batches, and
// embeds the batches on a bounded worker pool. Provider throughput is
// respected twice over: a rolling-window rate limiter gates each
// embedding call and a pacer staggers batch submissions. Batches retry
// transient provider failures with exponential backoff; a batch that
// exhausts its retries is recorded in the ingestion report without
// aborting the rest of the run. Committed chunks are then pushed into
// the sparse keyword index on a best-effort basis.
package ingestion
