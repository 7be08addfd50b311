// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package main

import (
	"testing"
)

func TestParseParams(t *testing.T) {
	params, err := parseParams([]string{"x=GFP", "k=CHO-K1"})
	if err != nil {
		t.Fatalf("parseParams: %v", err)
	}
	if params["x"] != "GFP" || params["k"] != "CHO-K1" {
		t.Errorf("params = %v", params)
	}
}

func TestParseParams_ValueWithEquals(t *testing.T) {
	params, err := parseParams([]string{"q=a=b"})
	if err != nil {
		t.Fatalf("parseParams: %v", err)
	}
	if params["q"] != "a=b" {
		t.Errorf("params = %v", params)
	}
}

func TestParseParams_Invalid(t *testing.T) {
	for _, bad := range []string{"novalue", "=x"} {
		if _, err := parseParams([]string{bad}); err == nil {
			t.Errorf("expected error for %q", bad)
		}
	}
}

func TestParseParams_Empty(t *testing.T) {
	params, err := parseParams(nil)
	if err != nil {
		t.Fatalf("parseParams: %v", err)
	}
	if params != nil {
		t.Errorf("params = %v, want nil", params)
	}
}
