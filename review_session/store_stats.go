package review_session

import (
	"fmt"
	"os"
	"strings"
	"sync"
	"time"
)

// StoreStats tracks store usage for the current process.
type StoreStats struct {
	Loads         int64
	Hits          int64
	Misses        int64
	Saves         int64
	LastResetTime time.Time
	mutex         sync.RWMutex
}

func (ss *SessionStore) recordHit() {
	if ss.stats == nil {
		return
	}
	ss.stats.mutex.Lock()
	defer ss.stats.mutex.Unlock()
	ss.stats.Loads++
	ss.stats.Hits++
}

func (ss *SessionStore) recordMiss() {
	if ss.stats == nil {
		return
	}
	ss.stats.mutex.Lock()
	defer ss.stats.mutex.Unlock()
	ss.stats.Loads++
	ss.stats.Misses++
}

func (ss *SessionStore) recordSave() {
	if ss.stats == nil {
		return
	}
	ss.stats.mutex.Lock()
	defer ss.stats.mutex.Unlock()
	ss.stats.Saves++
}

// GetStoreStats returns on-disk and in-process statistics.
func (ss *SessionStore) GetStoreStats() (map[string]interface{}, error) {
	ss.mutex.RLock()
	entries, err := os.ReadDir(ss.dir)
	ss.mutex.RUnlock()
	if err != nil {
		return nil, fmt.Errorf("failed to read session directory: %w", err)
	}

	var sessions, locks int
	var totalSize int64
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		switch {
		case strings.HasSuffix(entry.Name(), stateFileSuffix):
			sessions++
		case strings.HasSuffix(entry.Name(), lockFileSuffix):
			locks++
		default:
			continue
		}
		if info, err := entry.Info(); err == nil {
			totalSize += info.Size()
		}
	}

	stats := map[string]interface{}{
		"session_dir":    ss.dir,
		"session_files":  sessions,
		"lock_files":     locks,
		"total_size":     totalSize,
		"total_requests": int64(0),
		"hit_rate":       0.0,
	}

	if ss.stats != nil {
		ss.stats.mutex.RLock()
		defer ss.stats.mutex.RUnlock()
		stats["total_requests"] = ss.stats.Loads
		stats["saves"] = ss.stats.Saves
		if ss.stats.Loads > 0 {
			stats["hit_rate"] = float64(ss.stats.Hits) / float64(ss.stats.Loads) * 100
		}
		stats["uptime"] = time.Since(ss.stats.LastResetTime).String()
	}

	return stats, nil
}
