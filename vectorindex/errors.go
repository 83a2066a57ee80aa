// Copyright 2025 LLabs Tech
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


package vectorindex

import "errors"

var (
	// ErrDimensionMismatch indicates a vector whose length differs from the
	// index's fixed dimensionality. This is a fatal configuration error.
	ErrDimensionMismatch = errors.New("embedding dimensionality mismatch")

	// ErrInvalidDimension indicates a non-positive configured dimensionality.
	ErrInvalidDimension = errors.New("dimension must be greater than 0")

	// ErrInvalidLimit indicates a non-positive search result limit.
	ErrInvalidLimit = errors.New("search limit must be greater than 0")

	// ErrEntryNotFound indicates no entry exists for the given identifier.
	ErrEntryNotFound = errors.New("index entry not found")

	// ErrTruncatedEntry indicates an entry record was cut short during decoding.
	ErrTruncatedEntry = errors.New("truncated index entry")

	// ErrEntryTooLarge indicates an entry field exceeds the wire format's
	// length prefix and cannot be encoded.
	ErrEntryTooLarge = errors.New("index entry field too large to encode")

	// ErrSnapshotCorrupt indicates persisted index state failed validation.
	ErrSnapshotCorrupt = errors.New("index snapshot is corrupt")

	// ErrSnapshotUnavailable indicates no persisted state exists to reload.
	ErrSnapshotUnavailable = errors.New("no index snapshot available")

	// ErrIndexClosed indicates an operation on a closed index.
	ErrIndexClosed = errors.New("index is closed")
)
