// Copyright 2025 Poiesic Systems
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


package index

import "errors"

var (
	// ErrEmptyEntry indicates an upsert with no ID or no vector.
	ErrEmptyEntry = errors.New("entry requires an id and a vector")

	// ErrIndexUnavailable indicates the backing service rejected or failed
	// the request.
	ErrIndexUnavailable = errors.New("vector index unavailable")

	// ErrIndexClosed indicates the backend is closed.
	ErrIndexClosed = errors.New("vector index is closed")
)
