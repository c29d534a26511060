package docrepo

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
)

func TestProposalRepoLifecycle(t *testing.T) {
	tempDir := t.TempDir()
	svc := New(tempDir)

	initial := Snapshot{
		Name:   "Coastal Tower Fee Proposal",
		Number: "25-97105-FP",
		Status: "Draft",
		Stage:  "Draft",
		Rev:    0,
	}

	if err := svc.EnsureRepo("fee-1", initial, "Avery"); err != nil {
		t.Fatalf("EnsureRepo() error = %v", err)
	}
	if _, err := os.Stat(filepath.Join(tempDir, "fee-1")); err != nil {
		t.Fatalf("repo directory missing: %v", err)
	}
	// idempotent
	if err := svc.EnsureRepo("fee-1", initial, "Avery"); err != nil {
		t.Fatalf("EnsureRepo() second call error = %v", err)
	}

	updated := initial
	updated.Rev = 1
	updated.IssueDate = "250825"
	commit, err := svc.CommitSnapshot("fee-1", updated, "Avery", "Issue revision 1")
	if err != nil {
		t.Fatalf("CommitSnapshot() error = %v", err)
	}
	if commit.Hash == "" {
		t.Fatal("expected commit hash")
	}

	if err := svc.TagRevision("fee-1", commit.Hash, 1); err != nil {
		t.Fatalf("TagRevision() error = %v", err)
	}
	if err := svc.TagRevision("fee-1", commit.Hash, 1); err != nil {
		t.Fatalf("TagRevision() repeat error = %v", err)
	}

	history, err := svc.History("fee-1", 10)
	if err != nil {
		t.Fatalf("History() error = %v", err)
	}
	if len(history) != 2 {
		t.Fatalf("expected 2 history entries, got %d", len(history))
	}

	got, err := svc.SnapshotByHash("fee-1", commit.Hash)
	if err != nil {
		t.Fatalf("SnapshotByHash() error = %v", err)
	}
	if got.Rev != 1 || got.IssueDate != "250825" {
		t.Fatalf("unexpected snapshot: %+v", got)
	}

	head, headCommit, err := svc.Head("fee-1")
	if err != nil {
		t.Fatalf("Head() error = %v", err)
	}
	if head.Rev != 1 || headCommit.Hash != commit.Hash {
		t.Fatalf("unexpected head: %+v at %s", head, headCommit.Hash)
	}
}

func TestConcurrentCommitSnapshot(t *testing.T) {
	tempDir := t.TempDir()
	svc := New(tempDir)

	initial := Snapshot{Name: "Fee", Number: "25-97101-FP", Status: "Draft"}
	if err := svc.EnsureRepo("fee-1", initial, "Avery"); err != nil {
		t.Fatalf("EnsureRepo() error = %v", err)
	}

	const writers = 12
	var wg sync.WaitGroup
	errCh := make(chan error, writers)
	for i := 0; i < writers; i++ {
		wg.Add(1)
		go func(idx int) {
			defer wg.Done()
			next := initial
			next.StrapLine = fmt.Sprintf("strap-%02d", idx)
			if _, err := svc.CommitSnapshot("fee-1", next, "Avery", fmt.Sprintf("Save %02d", idx)); err != nil {
				errCh <- err
			}
		}(i)
	}
	wg.Wait()
	close(errCh)

	for err := range errCh {
		if err != nil {
			t.Fatalf("CommitSnapshot() concurrent error = %v", err)
		}
	}

	history, err := svc.History("fee-1", 100)
	if err != nil {
		t.Fatalf("History() error = %v", err)
	}
	if len(history) < writers+1 {
		t.Fatalf("expected at least %d commits, got %d", writers+1, len(history))
	}

	head, _, err := svc.Head("fee-1")
	if err != nil {
		t.Fatalf("Head() error = %v", err)
	}
	if !strings.HasPrefix(head.StrapLine, "strap-") {
		t.Fatalf("unexpected head after concurrent commits: %+v", head)
	}
}
