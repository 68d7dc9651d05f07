// Copyright (C) 2025 sage-x-project
// SPDX-License-Identifier: LGPL-3.0-or-later

// Package request defines the operation-request trait consumed by a store:
// an immutable description of an asynchronous workflow, plus the Query,
// Paginated, and Mutation specializations built on top of it.
//
// A Query is a Request as-is: its run is the fetch body directly. Paginated
// and Mutation are modeled as narrower interfaces (Paginated, Mutation) each
// with its own adapter that supplies the dispatch Request.Run requires:
// AsPaginatedRequest orchestrates page assembly per the active PagingRequest
// (§4.5 in the design notes: InitialPage, NextPage, PreviousPage, AllPages
// all fetch through the same FetchPage hook and report a uniform
// PaginatedResult); AsMutationRequest reads its arguments back out of the
// run context installed by Store.Mutate and calls Mutate.
package request
