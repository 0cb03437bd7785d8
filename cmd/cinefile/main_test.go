// Cinefile - Movie Catalog Client with Favourites Synchronization
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/cinefile

package main

import "testing"

func TestRunWithoutArgumentsPrintsUsage(t *testing.T) {
	if code := run(nil); code != 2 {
		t.Errorf("expected exit code 2, got %d", code)
	}
}

func TestRunVersion(t *testing.T) {
	// version short-circuits before configuration or storage are touched.
	if code := run([]string{"version"}); code != 0 {
		t.Errorf("expected exit code 0, got %d", code)
	}
}

func TestRunHelp(t *testing.T) {
	for _, arg := range []string{"help", "-h", "--help"} {
		if code := run([]string{arg}); code != 0 {
			t.Errorf("%s: expected exit code 0, got %d", arg, code)
		}
	}
}
