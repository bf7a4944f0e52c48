// Copyright (c) 2025 ChatDB
// Licensed under the MIT License. See LICENSE file in the project root for details.

package backend

import (
	"chatdb/cli/internal/endpoints"
)

// New creates a backend API implementation over the resolved endpoints.
// Returns HTTP client (real backend).
func New(eps *endpoints.Endpoints) API {
	return newHTTP(eps)
}
