// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package llm

import "regexp"

// maxLoggedBodyLen caps how much of a response body ends up in logs and
// error messages.
const maxLoggedBodyLen = 2000

// apiKeyPattern matches common API key shapes so they never leak into logs.
var apiKeyPattern = regexp.MustCompile(`(sk-[A-Za-z0-9_-]{8,}|Bearer\s+[A-Za-z0-9._-]{8,})`)

// SafeLogString truncates a string to a loggable length and masks anything
// that looks like an API key.
//
// Thread Safety: Safe for concurrent use.
func SafeLogString(s string) string {
	s = apiKeyPattern.ReplaceAllString(s, "[REDACTED]")
	if len(s) > maxLoggedBodyLen {
		return s[:maxLoggedBodyLen] + "...(truncated)"
	}
	return s
}
