// Copyright (C) 2025 sage-x-project
// SPDX-License-Identifier: LGPL-3.0-or-later

package duration

import "github.com/querykit/querykit/opctx"

// ClockKey carries the active Clock through a run's context, defaulting to
// the real wall clock. The Clock modifier installs an override; state
// containers and backoff calculations read it back via opctx.Get.
var ClockKey = opctx.NewKey[Clock]("clock", System())
