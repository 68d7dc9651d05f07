// Copyright (C) 2025 sage-x-project
// SPDX-License-Identifier: LGPL-3.0-or-later

package errors

// Predefined errors for the taxonomy's non-operation-specific kinds.
var (
	// ErrCancelled marks cooperative cancellation of a run or task.
	ErrCancelled = &Error{
		Category: CategoryCancellation,
		Code:     "CANCELLED",
		Message:  "operation was cancelled",
	}

	// ErrMutateNoHistory is raised when retry_latest is called on a
	// mutation store with no history entries.
	ErrMutateNoHistory = &Error{
		Category: CategoryPrecondition,
		Code:     "MUTATE_NO_HISTORY",
		Message:  "retry_latest requires at least one prior mutation",
	}

	// ErrDuplicatePathDifferentType is a misuse warning raised when a
	// client is asked to create a store for a path already owned by a
	// store of a different request type.
	ErrDuplicatePathDifferentType = &Error{
		Category: CategoryMisuse,
		Code:     "DUPLICATE_PATH_DIFFERENT_TYPE",
		Message:  "store already exists for this path with a different request type",
	}

	// ErrInvalidMaxHistoryLength is raised by MaxHistoryLength(n) when
	// n <= 0.
	ErrInvalidMaxHistoryLength = &Error{
		Category: CategoryPrecondition,
		Code:     "INVALID_MAX_HISTORY_LENGTH",
		Message:  "max history length must be greater than zero",
	}
)
