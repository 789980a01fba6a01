package delivery

import (
	"sort"
	"time"
)

// pruneStatus evicts old completed reports so memory stays bounded.
// Call with no locks; it takes statusMu internally.
func (s *Service) pruneStatus(now time.Time) {
	max := s.statusMax
	if max <= 0 {
		max = 200
	}
	ttl := s.statusTTL
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}

	s.statusMu.Lock()
	defer s.statusMu.Unlock()

	// 1) TTL-expired completed jobs, plus jobs that never started.
	for id, st := range s.status {
		if st == nil {
			delete(s.status, id)
			continue
		}
		if !st.DoneAt.IsZero() {
			if now.Sub(st.DoneAt) > ttl {
				delete(s.status, id)
			}
			continue
		}
		if !st.Running && !st.CreatedAt.IsZero() && now.Sub(st.CreatedAt) > ttl {
			delete(s.status, id)
		}
	}

	// 2) Enforce max size: remove oldest non-running jobs.
	over := len(s.status) - max
	if over <= 0 {
		return
	}

	type cand struct {
		id string
		t  time.Time
	}
	cands := make([]cand, 0, len(s.status))
	for id, st := range s.status {
		if st == nil || st.Running {
			continue
		}
		key := st.DoneAt
		if key.IsZero() {
			key = st.CreatedAt
		}
		cands = append(cands, cand{id: id, t: key})
	}
	if len(cands) == 0 {
		return
	}

	sort.Slice(cands, func(i, j int) bool {
		if cands[i].t.IsZero() != cands[j].t.IsZero() {
			return cands[i].t.IsZero()
		}
		return cands[i].t.Before(cands[j].t)
	})

	for i := 0; i < len(cands) && over > 0; i++ {
		delete(s.status, cands[i].id)
		over--
	}
}
