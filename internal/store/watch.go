package store

import "time"

// watch polls the kv revisions and notifies subscribers about keys changed by
// other handles. This is the cross-instance analog of the browser storage
// event: eventual visibility only, no synchronous barrier.
func (s *SQLite) watch(interval time.Duration) {
	if interval <= 0 {
		interval = time.Second
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-s.done:
			return
		case <-ticker.C:
			changed, err := s.changedKeys()
			if err != nil {
				continue
			}
			for _, key := range changed {
				s.notify(key)
			}
		}
	}
}

// changedKeys diffs the current revisions against the last ones this handle
// saw, updating the snapshot as a side effect.
func (s *SQLite) changedKeys() ([]string, error) {
	current, err := s.revisions()
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	var changed []string
	for key, rev := range current {
		if s.lastSeen[key] != rev {
			changed = append(changed, key)
		}
	}
	for key := range s.lastSeen {
		if _, ok := current[key]; !ok {
			changed = append(changed, key)
		}
	}
	s.lastSeen = current
	return changed, nil
}

func (s *SQLite) revisions() (map[string]int64, error) {
	rows, err := s.db.Query(`SELECT key, revision FROM kv`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	revs := make(map[string]int64)
	for rows.Next() {
		var key string
		var rev int64
		if err := rows.Scan(&key, &rev); err != nil {
			return nil, err
		}
		revs[key] = rev
	}
	return revs, rows.Err()
}

// snapshotRevisions primes lastSeen so a fresh handle does not report the
// existing state as a change.
func (s *SQLite) snapshotRevisions() error {
	revs, err := s.revisions()
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.lastSeen = revs
	s.mu.Unlock()
	return nil
}

// Subscribe registers a change callback and returns its cancel func.
func (s *SQLite) Subscribe(fn func(key string)) (cancel func()) {
	s.subMu.Lock()
	defer s.subMu.Unlock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = fn
	return func() {
		s.subMu.Lock()
		defer s.subMu.Unlock()
		delete(s.subs, id)
	}
}

func (s *SQLite) notify(key string) {
	s.subMu.Lock()
	fns := make([]func(string), 0, len(s.subs))
	for _, fn := range s.subs {
		fns = append(fns, fn)
	}
	s.subMu.Unlock()
	for _, fn := range fns {
		fn(key)
	}
}
