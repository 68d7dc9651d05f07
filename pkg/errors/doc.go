// Copyright (C) 2025 sage-x-project
//
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Lesser General Public License as
// published by the Free Software Foundation, either version 3 of the
// License, or (at your option) any later version.
//
// This program is distributed in the hope that it will be useful,
// but WITHOUT ANY WARRANTY; without even the implied warranty of
// MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE. See the
// GNU Lesser General Public License for more details.
//
// You should have received a copy of the GNU Lesser General Public License
// along with this program. If not, see <https://www.gnu.org/licenses/>.

// SPDX-License-Identifier: LGPL-3.0-or-later

// Package errors provides the structured error type used across the
// operation runtime.
//
// Errors are organized into the four kinds of §7's taxonomy:
//
//   - OperationFailure: the typed error a request body itself returns.
//   - Cancellation: cooperative cancellation, never synthesized by retry.
//   - Precondition: a violated precondition (mutate/retry_latest misuse),
//     returned as an error.
//   - Misuse: a path reused with a differing request type, logged as a
//     warning by the client and also returned as a non-fatal error.
//
// # Creating Errors
//
//	err := errors.New(errors.CategoryPrecondition, "CUSTOM_ERROR", "custom error message")
//
// # Wrapping Errors
//
//	if err := doSomething(); err != nil {
//	    return errors.Wrap(err, "run failed")
//	}
//
// # Error Checking
//
//	if errors.IsCancellation(err) {
//	    // treat as cooperative cancellation
//	}
//
//	var qkErr *errors.Error
//	if errors.As(err, &qkErr) {
//	    log.Printf("code: %s, details: %v", qkErr.Code, qkErr.Details)
//	}
package errors
