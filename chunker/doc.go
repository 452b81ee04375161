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

// Package chunker turns raw document text into ordered, overlapping,
// token-bounded chunks ready for embedding and keyword indexing.
//
// Token counts are estimated at four characters per token. Chunks
// overlap so that a fact straddling a boundary survives in at least
// one chunk intact, at the cost of embedding more text overall.
package chunker
