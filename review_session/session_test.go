package review_session

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/meysamhadeli/reviewmentor/review_session/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"pgregory.net/rapid"
)

func writeFile(t testing.TB, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func readFile(t testing.TB, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}

func beginSession(t *testing.T, root string) *ReviewSession {
	t.Helper()
	session := NewReviewSession(nil)
	_, err := session.Begin(context.Background(), root)
	require.NoError(t, err)
	return session
}

func TestBegin_CapturesTextFilesAndSkipsBinary(t *testing.T) {
	root := t.TempDir()
	text := filepath.Join(root, "main.py")
	binary := filepath.Join(root, "logo.png")
	ignored := filepath.Join(root, "node_modules", "x.js")
	writeFile(t, text, "print('hi')\n")
	writeFile(t, binary, "\x89PNG\x00\x01\x02")
	writeFile(t, ignored, "ignored")

	session := beginSession(t, root)

	require.True(t, session.Original(text).IsSome())
	assert.Equal(t, "print('hi')\n", session.Original(text).UnwrapOr(""))
	assert.True(t, session.Original(binary).IsNone())
	assert.True(t, session.Original(ignored).IsNone())
	assert.Equal(t, 1, session.OriginalCount())
	assert.Contains(t, session.Fingerprints(), text)
	assert.NotEmpty(t, session.ID())
}

func TestBegin_SkipsOversizedFiles(t *testing.T) {
	root := t.TempDir()
	small := filepath.Join(root, "small.txt")
	large := filepath.Join(root, "large.txt")
	writeFile(t, small, "ok")
	writeFile(t, large, "0123456789abcdef")

	session := NewReviewSession(&SessionConfig{MaxFileBytes: 8})
	_, err := session.Begin(context.Background(), root)
	require.NoError(t, err)

	assert.True(t, session.Original(small).IsSome())
	assert.True(t, session.Original(large).IsNone())
}

func TestBegin_RejectsConcurrentSession(t *testing.T) {
	root := t.TempDir()
	session := beginSession(t, root)

	_, err := session.Begin(context.Background(), root)
	assert.ErrorIs(t, err, ErrSessionInProgress)

	session.End()
	_, err = session.Begin(context.Background(), root)
	assert.NoError(t, err)
}

func TestEnd_CancelsSessionContext(t *testing.T) {
	session := NewReviewSession(nil)
	ctx, err := session.Begin(context.Background(), t.TempDir())
	require.NoError(t, err)
	assert.True(t, session.Active())

	session.End()

	assert.ErrorIs(t, ctx.Err(), context.Canceled)
	assert.False(t, session.Active())
	session.End()
}

func TestBegin_CancelledContextReleasesGuard(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "a.txt"), "a")
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	session := NewReviewSession(nil)
	_, err := session.Begin(ctx, root)
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, session.Active())
}

func TestBegin_ClearsPreviousSession(t *testing.T) {
	root := t.TempDir()
	f := filepath.Join(root, "f.txt")
	writeFile(t, f, "old")

	session := beginSession(t, root)
	session.RecordProposed(f, "new")
	session.End()

	_, err := session.Begin(context.Background(), root)
	require.NoError(t, err)

	assert.Empty(t, session.Pending())
}

func TestReject_RestoresOriginalByteForByte(t *testing.T) {
	root := t.TempDir()
	f := filepath.Join(root, "f.txt")
	original := "line one\r\nline two\ttab\né\n"
	writeFile(t, f, original)

	session := beginSession(t, root)
	writeFile(t, f, "rewritten by backend")
	session.RecordProposed(f, "rewritten by backend")

	applied, err := session.Reject(f)
	require.NoError(t, err)
	assert.True(t, applied)
	assert.Equal(t, original, readFile(t, f))
	assert.Empty(t, session.Pending())
}

func TestAccept_WritesProposedAndIsTerminal(t *testing.T) {
	root := t.TempDir()
	f := filepath.Join(root, "f.txt")
	writeFile(t, f, "old")

	session := beginSession(t, root)
	session.RecordProposed(f, "new")

	applied, err := session.Accept(f)
	require.NoError(t, err)
	assert.True(t, applied)
	assert.Equal(t, "new", readFile(t, f))

	writeFile(t, f, "edited by user")

	applied, err = session.Accept(f)
	require.NoError(t, err)
	assert.False(t, applied)

	applied, err = session.Reject(f)
	require.NoError(t, err)
	assert.False(t, applied)

	assert.Equal(t, "edited by user", readFile(t, f))
}

func TestAccept_FreshSessionRejectIsNoOp(t *testing.T) {
	root := t.TempDir()
	f := filepath.Join(root, "f.txt")
	writeFile(t, f, "old")

	session := beginSession(t, root)
	session.RecordProposed(f, "new")
	_, err := session.Accept(f)
	require.NoError(t, err)
	session.End()

	_, err = session.Begin(context.Background(), root)
	require.NoError(t, err)

	applied, err := session.Reject(f)
	require.NoError(t, err)
	assert.False(t, applied)
	assert.Equal(t, "new", readFile(t, f))
}

func TestReject_WithoutOriginalFails(t *testing.T) {
	root := t.TempDir()
	session := beginSession(t, root)
	f := filepath.Join(root, "created-later.txt")
	writeFile(t, f, "backend made this")
	session.RecordProposed(f, "backend made this")

	applied, err := session.Reject(f)
	assert.ErrorIs(t, err, ErrNoOriginal)
	assert.False(t, applied)
	assert.True(t, session.Proposed(f).IsSome())
}

func TestRelativePathsResolveAgainstRoot(t *testing.T) {
	root := t.TempDir()
	f := filepath.Join(root, "src", "f.txt")
	writeFile(t, f, "old")

	session := beginSession(t, root)
	session.RecordProposed("src/f.txt", "new")

	assert.Equal(t, []string{f}, session.Pending())
	applied, err := session.Accept(filepath.Join("src", "f.txt"))
	require.NoError(t, err)
	assert.True(t, applied)
}

func TestRecordProposed_Overwrites(t *testing.T) {
	root := t.TempDir()
	f := filepath.Join(root, "f.txt")
	writeFile(t, f, "old")

	session := beginSession(t, root)
	session.RecordProposed(f, "first")
	session.RecordProposed(f, "second")

	assert.Equal(t, "second", session.Proposed(f).UnwrapOr(""))
}

func TestAcceptPreservesPermissions(t *testing.T) {
	root := t.TempDir()
	f := filepath.Join(root, "run.sh")
	writeFile(t, f, "#!/bin/sh\n")
	require.NoError(t, os.Chmod(f, 0755))

	session := beginSession(t, root)
	session.RecordProposed(f, "#!/bin/sh\necho fixed\n")
	_, err := session.Accept(f)
	require.NoError(t, err)

	info, err := os.Stat(f)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0755), info.Mode().Perm())
}

func TestDecide(t *testing.T) {
	root := t.TempDir()
	a := filepath.Join(root, "a.txt")
	b := filepath.Join(root, "b.txt")
	writeFile(t, a, "a-old")
	writeFile(t, b, "b-old")

	session := beginSession(t, root)
	session.RecordProposed(a, "a-new")
	session.RecordProposed(b, "b-new")

	applied, err := session.Decide(a, models.DecisionSkip)
	require.NoError(t, err)
	assert.False(t, applied)
	assert.Len(t, session.Pending(), 2)

	_, err = session.Decide(a, models.DecisionAccept)
	require.NoError(t, err)
	_, err = session.Decide(b, models.DecisionReject)
	require.NoError(t, err)

	assert.Equal(t, "a-new", readFile(t, a))
	assert.Equal(t, "b-old", readFile(t, b))

	_, err = session.Decide(a, models.Decision("maybe"))
	assert.Error(t, err)
}

func TestConcurrentDecisionsOnSamePathApplyOnce(t *testing.T) {
	root := t.TempDir()
	f := filepath.Join(root, "f.txt")
	writeFile(t, f, "old")

	session := beginSession(t, root)
	session.RecordProposed(f, "new")

	var wg sync.WaitGroup
	results := make(chan bool, 20)
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(accept bool) {
			defer wg.Done()
			var applied bool
			var err error
			if accept {
				applied, err = session.Accept(f)
			} else {
				applied, err = session.Reject(f)
			}
			assert.NoError(t, err)
			results <- applied
		}(i%2 == 0)
	}
	wg.Wait()
	close(results)

	var appliedCount int
	for applied := range results {
		if applied {
			appliedCount++
		}
	}

	assert.Equal(t, 1, appliedCount)
	assert.Contains(t, []string{"old", "new"}, readFile(t, f))
	assert.Equal(t, 0, session.locks.size())
}

func TestConcurrentDecisionsOnDistinctPaths(t *testing.T) {
	root := t.TempDir()
	session := NewReviewSession(nil)

	var paths []string
	for i := 0; i < 10; i++ {
		p := filepath.Join(root, "f", string(rune('a'+i))+".txt")
		writeFile(t, p, "old")
		paths = append(paths, p)
	}
	_, err := session.Begin(context.Background(), root)
	require.NoError(t, err)
	for _, p := range paths {
		session.RecordProposed(p, "new")
	}

	var wg sync.WaitGroup
	for _, p := range paths {
		wg.Add(1)
		go func(p string) {
			defer wg.Done()
			applied, err := session.Accept(p)
			assert.NoError(t, err)
			assert.True(t, applied)
		}(p)
	}
	wg.Wait()

	for _, p := range paths {
		assert.Equal(t, "new", readFile(t, p))
	}
	assert.Empty(t, session.Pending())
}

func TestExportRestore(t *testing.T) {
	root := t.TempDir()
	a := filepath.Join(root, "a.txt")
	b := filepath.Join(root, "b.txt")
	writeFile(t, a, "a-old")
	writeFile(t, b, "b-old")

	session := beginSession(t, root)
	session.RecordProposed(a, "a-new")
	session.End()

	state := session.Export()
	assert.Equal(t, map[string]string{a: "a-new"}, state.Proposed)
	assert.Equal(t, map[string]string{a: "a-old"}, state.Originals)
	assert.True(t, state.HasPending())

	restored := NewReviewSession(nil)
	require.NoError(t, restored.Restore(state))
	assert.Equal(t, session.ID(), restored.ID())
	assert.Equal(t, root, restored.Root())

	applied, err := restored.Reject("a.txt")
	require.NoError(t, err)
	assert.True(t, applied)
	assert.Equal(t, "a-old", readFile(t, a))
}

func TestRestore_RefusedWhileActive(t *testing.T) {
	session := beginSession(t, t.TempDir())
	assert.ErrorIs(t, session.Restore(&models.SessionState{}), ErrSessionInProgress)
	assert.Error(t, session.Restore(nil))
}

func TestRejectRestoresCapturedContent_Property(t *testing.T) {
	root := t.TempDir()
	rapid.Check(t, func(rt *rapid.T) {
		original := rapid.StringMatching(`[ -~\n\t]{0,200}`).Draw(rt, "original")
		proposed := rapid.StringMatching(`[ -~\n\t]{0,200}`).Draw(rt, "proposed")
		f := filepath.Join(root, "f.txt")
		if err := os.WriteFile(f, []byte(original), 0644); err != nil {
			rt.Fatal(err)
		}

		session := NewReviewSession(nil)
		if _, err := session.Begin(context.Background(), root); err != nil {
			rt.Fatal(err)
		}
		defer session.End()

		if err := os.WriteFile(f, []byte(proposed), 0644); err != nil {
			rt.Fatal(err)
		}
		session.RecordProposed(f, proposed)

		if _, err := session.Reject(f); err != nil {
			rt.Fatal(err)
		}
		data, err := os.ReadFile(f)
		if err != nil {
			rt.Fatal(err)
		}
		if string(data) != original {
			rt.Fatalf("reject restored %q, want %q", data, original)
		}
	})
}

func TestReset_RefusedWhileActive(t *testing.T) {
	root := t.TempDir()
	app := filepath.Join(root, "app.js")
	writeFile(t, app, "old")

	session := beginSession(t, root)
	session.RecordProposed(app, "new")

	assert.ErrorIs(t, session.Reset(), ErrSessionInProgress)
	assert.True(t, session.Original(app).IsSome())
	assert.Equal(t, []string{app}, session.Pending())

	session.End()

	require.NoError(t, session.Reset())
	assert.Zero(t, session.OriginalCount())
	assert.Empty(t, session.Pending())
}
