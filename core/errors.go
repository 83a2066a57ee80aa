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


package core

import "errors"

// Domain validation errors
var (
	// ErrInvalidProperty indicates a catalog entry failed validation.
	ErrInvalidProperty = errors.New("invalid property")

	// ErrMissingID indicates the entry has no identifier.
	ErrMissingID = errors.New("identifier is required")

	// ErrMissingLocation indicates the entry has no town/location.
	ErrMissingLocation = errors.New("location is required")

	// ErrMissingPrice indicates the entry has no price.
	ErrMissingPrice = errors.New("price is required")

	// ErrNegativePrice indicates a zero or negative price.
	ErrNegativePrice = errors.New("price must be positive")

	// ErrNegativeCount indicates a negative bedroom or bathroom count.
	ErrNegativeCount = errors.New("count cannot be negative")
)
