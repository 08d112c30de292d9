// Copyright (c) 2025 ntlockfree contributors
//
// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at https://mozilla.org/MPL/2.0/.

package telemetry

import "testing"

func TestNewDefaultLevel(t *testing.T) {
	log, err := New(nil)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if log == nil {
		t.Fatal("expected non-nil logger")
	}
}

func TestNewRejectsInvalidLevel(t *testing.T) {
	_, err := New(&Conf{Level: "not-a-level"})
	if err == nil {
		t.Fatal("expected error for invalid level")
	}
}
