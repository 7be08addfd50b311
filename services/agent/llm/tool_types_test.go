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

import (
	"encoding/json"
	"testing"
)

func TestArgumentsMap(t *testing.T) {
	call := ToolCallResponse{
		ID:        "call_1",
		Name:      "compute_fold_change",
		Arguments: json.RawMessage(`{"group1": "fedbatch", "group2": "perfusion"}`),
	}
	args, err := call.ArgumentsMap()
	if err != nil {
		t.Fatalf("ArgumentsMap: %v", err)
	}
	if args["group1"] != "fedbatch" || args["group2"] != "perfusion" {
		t.Errorf("args = %v", args)
	}
}

func TestArgumentsMap_Empty(t *testing.T) {
	for _, call := range []ToolCallResponse{
		{Arguments: nil},
		{Arguments: json.RawMessage(`null`)},
	} {
		args, err := call.ArgumentsMap()
		if err != nil {
			t.Fatalf("ArgumentsMap: %v", err)
		}
		if args == nil || len(args) != 0 {
			t.Errorf("args = %v, want empty map", args)
		}
	}
}

func TestArgumentsMap_NotAnObject(t *testing.T) {
	call := ToolCallResponse{Arguments: json.RawMessage(`[1, 2]`)}
	if _, err := call.ArgumentsMap(); err == nil {
		t.Error("expected error for non-object arguments")
	}
}

func TestArgumentsString(t *testing.T) {
	cases := []struct {
		name string
		raw  json.RawMessage
		want string
	}{
		{"object", json.RawMessage(`{"a": 1}`), `{"a": 1}`},
		{"quoted string", json.RawMessage(`"{\"a\": 1}"`), `{"a": 1}`},
		{"empty", nil, "{}"},
	}
	for _, tc := range cases {
		call := ToolCallResponse{Arguments: tc.raw}
		if got := call.ArgumentsString(); got != tc.want {
			t.Errorf("%s: got %q, want %q", tc.name, got, tc.want)
		}
	}
}
