// Copyright (C) 2025 sage-x-project
// SPDX-License-Identifier: LGPL-3.0-or-later

package state

import "context"

func contextBG() context.Context { return context.Background() }
