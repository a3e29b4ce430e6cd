package review_session

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/lightningnetwork/lnd/fn/v2"
	"github.com/meysamhadeli/reviewmentor/change_detector"
	cd_models "github.com/meysamhadeli/reviewmentor/change_detector/models"
	"github.com/meysamhadeli/reviewmentor/review_session/models"
	"github.com/meysamhadeli/reviewmentor/utils"
	"github.com/pterm/pterm"
)

var (
	// ErrSessionInProgress is returned by Begin, Restore and Reset while an earlier
	// Begin has not been ended.
	ErrSessionInProgress = errors.New("a review session is already in progress")

	// ErrNoOriginal is returned by Reject when there is no captured content to
	// roll back to.
	ErrNoOriginal = errors.New("no original content captured")
)

// SessionConfig configures a ReviewSession.
type SessionConfig struct {
	// Ignore lists directory names the walk skips; nil means the defaults.
	Ignore *utils.IgnoreSet
	// MaxFileBytes caps the size of a file whose content is captured; files
	// above it are skipped. Zero disables the cap.
	MaxFileBytes int64
	Logger       *pterm.Logger
}

// ReviewSession holds the state of one review invocation: the content of
// every file before the backend ran and the fixes proposed afterwards.
type ReviewSession struct {
	ignore       *utils.IgnoreSet
	maxFileBytes int64
	logger       *pterm.Logger

	mu           sync.Mutex
	active       bool
	cancel       context.CancelFunc
	id           string
	root         string
	startedAt    time.Time
	originals    map[string]string
	fingerprints cd_models.Fingerprints
	proposed     map[string]string

	locks *pathLocks
}

// NewReviewSession creates an idle session.
func NewReviewSession(config *SessionConfig) *ReviewSession {
	if config == nil {
		config = &SessionConfig{}
	}
	logger := config.Logger
	if logger == nil {
		logger = utils.DisabledLogger()
	}
	return &ReviewSession{
		ignore:       config.Ignore,
		maxFileBytes: config.MaxFileBytes,
		logger:       logger,
		originals:    make(map[string]string),
		fingerprints: make(cd_models.Fingerprints),
		proposed:     make(map[string]string),
		locks:        newPathLocks(),
	}
}

// Begin starts a session over root: all prior state is dropped, the tree is
// walked and the content of every text-readable file is recorded. Binary,
// unreadable and oversized files are skipped without failing the session.
//
// The returned context is cancelled by End. Begin fails with
// ErrSessionInProgress until the previous session has ended.
func (s *ReviewSession) Begin(ctx context.Context, root string) (context.Context, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve project root: %w", err)
	}

	s.mu.Lock()
	if s.active {
		s.mu.Unlock()
		return nil, ErrSessionInProgress
	}
	sessionCtx, cancel := context.WithCancel(ctx)
	s.active = true
	s.cancel = cancel
	s.id = uuid.NewString()
	s.root = absRoot
	s.startedAt = time.Now()
	s.originals = make(map[string]string)
	s.fingerprints = make(cd_models.Fingerprints)
	s.proposed = make(map[string]string)
	sessionID := s.id
	s.mu.Unlock()

	originals := make(map[string]string)
	fingerprints := make(cd_models.Fingerprints)
	var skipped int

	for path := range change_detector.Walk(absRoot, s.ignore) {
		if err := sessionCtx.Err(); err != nil {
			s.End()
			return nil, fmt.Errorf("capturing original content: %w", err)
		}

		content, err := change_detector.ReadText(path, s.maxFileBytes).Unpack()
		if err != nil {
			skipped++
			s.logger.Trace("skipping file", s.logger.Args("path", path, "reason", err))
			continue
		}
		originals[path] = content
		fingerprints[path] = change_detector.Fingerprint(content)
	}

	s.mu.Lock()
	s.originals = originals
	s.fingerprints = fingerprints
	s.mu.Unlock()

	s.logger.Debug("review session started", s.logger.Args(
		"session", sessionID,
		"root", absRoot,
		"captured", len(originals),
		"skipped", skipped,
	))

	return sessionCtx, nil
}

// End releases the in-progress guard and cancels the session context. The
// captured and proposed content is kept so pending fixes can still be
// decided.
func (s *ReviewSession) End() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.active {
		return
	}
	s.active = false
	if s.cancel != nil {
		s.cancel()
		s.cancel = nil
	}
}

// Active reports whether Begin has been called without a matching End.
func (s *ReviewSession) Active() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.active
}

// Reset drops every captured and proposed entry. It returns
// ErrSessionInProgress while a session is active.
func (s *ReviewSession) Reset() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.active {
		return ErrSessionInProgress
	}
	s.originals = make(map[string]string)
	s.fingerprints = make(cd_models.Fingerprints)
	s.proposed = make(map[string]string)
	return nil
}

// ID returns the identifier of the current session.
func (s *ReviewSession) ID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.id
}

// Root returns the absolute project root of the current session.
func (s *ReviewSession) Root() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.root
}

// key normalises path into the form used by the stores. Relative paths are
// resolved against the session root.
func (s *ReviewSession) key(path string) string {
	s.mu.Lock()
	root := s.root
	s.mu.Unlock()
	if !filepath.IsAbs(path) && root != "" {
		path = filepath.Join(root, path)
	}
	return filepath.Clean(path)
}

// Original returns the content captured for path at Begin.
func (s *ReviewSession) Original(path string) fn.Option[string] {
	key := s.key(path)
	s.mu.Lock()
	defer s.mu.Unlock()
	content, ok := s.originals[key]
	if !ok {
		return fn.None[string]()
	}
	return fn.Some(content)
}

// OriginalCount returns how many files had their content captured.
func (s *ReviewSession) OriginalCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.originals)
}

// Fingerprints returns a copy of the content hashes captured at Begin.
func (s *ReviewSession) Fingerprints() cd_models.Fingerprints {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make(cd_models.Fingerprints, len(s.fingerprints))
	for path, hash := range s.fingerprints {
		out[path] = hash
	}
	return out
}

// RecordProposed stores the post-review content of path, replacing any
// earlier proposal.
func (s *ReviewSession) RecordProposed(path, content string) {
	key := s.key(path)
	unlock := s.locks.lock(key)
	defer unlock()

	s.mu.Lock()
	s.proposed[key] = content
	s.mu.Unlock()
}

// Proposed returns the pending fix for path.
func (s *ReviewSession) Proposed(path string) fn.Option[string] {
	key := s.key(path)
	s.mu.Lock()
	defer s.mu.Unlock()
	content, ok := s.proposed[key]
	if !ok {
		return fn.None[string]()
	}
	return fn.Some(content)
}

// Pending returns the paths with an undecided fix, sorted.
func (s *ReviewSession) Pending() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	paths := make([]string, 0, len(s.proposed))
	for path := range s.proposed {
		paths = append(paths, path)
	}
	sort.Strings(paths)
	return paths
}

// Accept writes the proposed content of path to disk and consumes the
// proposal. It returns false when there was nothing to act on.
func (s *ReviewSession) Accept(path string) (bool, error) {
	key := s.key(path)
	unlock := s.locks.lock(key)
	defer unlock()

	s.mu.Lock()
	content, ok := s.proposed[key]
	s.mu.Unlock()
	if !ok {
		return false, nil
	}

	if err := writeFileContent(key, content); err != nil {
		return false, fmt.Errorf("failed to apply fix to %s: %w", key, err)
	}

	s.mu.Lock()
	delete(s.proposed, key)
	s.mu.Unlock()

	s.logger.Info("fix accepted", s.logger.Args("path", key))
	return true, nil
}

// Reject restores the content captured for path at Begin and consumes the
// proposal. It returns false when there was nothing to act on, and
// ErrNoOriginal when a proposal exists but no original content was captured;
// in that case the proposal is kept.
func (s *ReviewSession) Reject(path string) (bool, error) {
	key := s.key(path)
	unlock := s.locks.lock(key)
	defer unlock()

	s.mu.Lock()
	_, pending := s.proposed[key]
	original, captured := s.originals[key]
	s.mu.Unlock()
	if !pending {
		return false, nil
	}
	if !captured {
		return false, fmt.Errorf("%w: %s", ErrNoOriginal, key)
	}

	if err := writeFileContent(key, original); err != nil {
		return false, fmt.Errorf("failed to restore %s: %w", key, err)
	}

	s.mu.Lock()
	delete(s.proposed, key)
	s.mu.Unlock()

	s.logger.Info("fix rejected", s.logger.Args("path", key))
	return true, nil
}

// Decide dispatches a decision to Accept or Reject. Skip leaves the proposal
// pending.
func (s *ReviewSession) Decide(path string, decision models.Decision) (bool, error) {
	switch decision {
	case models.DecisionAccept:
		return s.Accept(path)
	case models.DecisionReject:
		return s.Reject(path)
	case models.DecisionSkip:
		return false, nil
	default:
		return false, fmt.Errorf("unknown decision %q", decision)
	}
}

// Export captures the pending part of the session for persistence: the
// proposals and the originals they would roll back to.
func (s *ReviewSession) Export() *models.SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()

	state := &models.SessionState{
		ID:        s.id,
		Root:      s.root,
		CreatedAt: s.startedAt,
		UpdatedAt: time.Now(),
		Originals: make(map[string]string, len(s.proposed)),
		Proposed:  make(map[string]string, len(s.proposed)),
	}
	for path, content := range s.proposed {
		state.Proposed[path] = content
		if original, ok := s.originals[path]; ok {
			state.Originals[path] = original
		}
	}
	return state
}

// Restore replaces the session's stores with a persisted state.
func (s *ReviewSession) Restore(state *models.SessionState) error {
	if state == nil {
		return errors.New("nil session state")
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.active {
		return ErrSessionInProgress
	}

	s.id = state.ID
	s.root = state.Root
	s.startedAt = state.CreatedAt
	s.originals = make(map[string]string, len(state.Originals))
	s.fingerprints = make(cd_models.Fingerprints, len(state.Originals))
	s.proposed = make(map[string]string, len(state.Proposed))
	for path, content := range state.Originals {
		s.originals[path] = content
		s.fingerprints[path] = change_detector.Fingerprint(content)
	}
	for path, content := range state.Proposed {
		s.proposed[path] = content
	}
	return nil
}

// writeFileContent replaces the whole file, keeping its permissions. A file
// removed in the meantime is recreated.
func writeFileContent(path, content string) error {
	mode := os.FileMode(0644)
	if info, err := os.Stat(path); err == nil {
		mode = info.Mode().Perm()
	} else if os.IsNotExist(err) {
		if err := os.MkdirAll(filepath.Dir(path), os.ModePerm); err != nil {
			return fmt.Errorf("failed to create directory: %w", err)
		}
	}
	return os.WriteFile(path, []byte(content), mode)
}
