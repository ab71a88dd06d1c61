/*
Copyright (C) 2026 Friends Incode

SPDX-License-Identifier: AGPL-3.0-or-later
*/

package locking

import (
	"context"
	"testing"
	"time"
)

func TestMemoryLockerAcquireRelease(t *testing.T) {
	locker := NewMemoryLocker()
	keys := []string{Key("inst-a", "2026-08-28"), Key("inst-b", "2026-08-28")}

	release, err := locker.AcquireAll(context.Background(), keys)
	if err != nil {
		t.Fatalf("acquire: %v", err)
	}
	release()

	// After release the same keys must be acquirable again.
	release, err = locker.AcquireAll(context.Background(), keys)
	if err != nil {
		t.Fatalf("re-acquire after release: %v", err)
	}
	release()
}

func TestMemoryLockerBlocksOverlappingKeys(t *testing.T) {
	locker := NewMemoryLocker()
	key := Key("inst-a", "2026-08-28")

	release, err := locker.AcquireAll(context.Background(), []string{key})
	if err != nil {
		t.Fatalf("acquire: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 300*time.Millisecond)
	defer cancel()

	if _, err := locker.AcquireAll(ctx, []string{key}); err == nil {
		t.Fatal("expected second acquisition of a held key to fail")
	}
	release()
}

func TestMemoryLockerDeduplicatesKeys(t *testing.T) {
	locker := NewMemoryLocker()
	key := Key("inst-a", "2026-08-28")

	release, err := locker.AcquireAll(context.Background(), []string{key, key, key})
	if err != nil {
		t.Fatalf("acquire with duplicate keys: %v", err)
	}
	release()
}
