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


package ai

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrGenerationUnavailable indicates a transient backend failure
	// (network, API outage). Retried with bounded backoff.
	ErrGenerationUnavailable = errors.New("generation backend unavailable")

	// ErrGenerationEmpty indicates the backend returned no usable content.
	ErrGenerationEmpty = errors.New("generation produced no content")

	// ErrContextOverflow indicates the prompt exceeded the backend's context
	// window. The caller may truncate retrieved context and retry once.
	ErrContextOverflow = errors.New("prompt exceeds model context window")

	// ErrInvalidMaxAttempts indicates a non-positive retry attempt count.
	ErrInvalidMaxAttempts = errors.New("max attempts must be greater than 0")
)

// contextOverflowMarkers are substrings backends use to report an exceeded
// context window.
var contextOverflowMarkers = []string{
	"context length",
	"context window",
	"context_length_exceeded",
	"maximum context",
	"too many tokens",
	"prompt is too long",
}

// ClassifyGenerationError maps a raw backend error into the package's
// generation error taxonomy. Resource exhaustion becomes ErrContextOverflow;
// everything else is treated as transient unavailability.
func ClassifyGenerationError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, ErrGenerationUnavailable) ||
		errors.Is(err, ErrGenerationEmpty) ||
		errors.Is(err, ErrContextOverflow) {
		return err
	}

	msg := strings.ToLower(err.Error())
	for _, marker := range contextOverflowMarkers {
		if strings.Contains(msg, marker) {
			return fmt.Errorf("%w: %v", ErrContextOverflow, err)
		}
	}
	return fmt.Errorf("%w: %v", ErrGenerationUnavailable, err)
}

// IsRetryable reports whether a generation error is worth another bounded
// backoff attempt. Context overflow is not: retrying the same prompt cannot
// succeed until the caller shrinks it.
func IsRetryable(err error) bool {
	if errors.Is(err, ErrContextOverflow) {
		return false
	}
	return errors.Is(err, ErrGenerationUnavailable) || errors.Is(err, ErrGenerationEmpty)
}
