package repository

import (
	"context"
	"sort"
	"strings"
	"sync"
	"time"

	"relief-claims-api/models"
)

type slotKey struct {
	claimID  string
	category models.DocumentCategory
}

type memoryState struct {
	claims    map[string]models.Claim
	approvals []models.Approval
	seq       uint64
	documents map[string]models.Document
	slots     map[slotKey]models.DocumentSlot
	history   []models.ClaimStatusHistory
	officers  map[string]models.Officer
}

func newMemoryState() *memoryState {
	return &memoryState{
		claims:    make(map[string]models.Claim),
		documents: make(map[string]models.Document),
		slots:     make(map[slotKey]models.DocumentSlot),
		officers:  make(map[string]models.Officer),
	}
}

func (s *memoryState) clone() *memoryState {
	c := &memoryState{
		claims:    make(map[string]models.Claim, len(s.claims)),
		approvals: append([]models.Approval(nil), s.approvals...),
		seq:       s.seq,
		documents: make(map[string]models.Document, len(s.documents)),
		slots:     make(map[slotKey]models.DocumentSlot, len(s.slots)),
		history:   append([]models.ClaimStatusHistory(nil), s.history...),
		officers:  make(map[string]models.Officer, len(s.officers)),
	}
	for k, v := range s.claims {
		c.claims[k] = v
	}
	for k, v := range s.documents {
		c.documents[k] = v
	}
	for k, v := range s.slots {
		c.slots[k] = v
	}
	for k, v := range s.officers {
		c.officers[k] = v
	}
	return c
}

// MemoryStore is a process-local Store. All access is serialized by one
// mutex; transactions snapshot the state and restore it when fn fails.
type MemoryStore struct {
	mu    *sync.Mutex
	state *memoryState
	inTx  bool
}

// NewMemoryStore returns an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{mu: &sync.Mutex{}, state: newMemoryState()}
}

func (s *MemoryStore) do(fn func(st *memoryState) error) error {
	if s.inTx {
		return fn(s.state)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return fn(s.state)
}

func (s *MemoryStore) WithinTx(ctx context.Context, fn func(tx Store) error) error {
	if s.inTx {
		return fn(s)
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := ctx.Err(); err != nil {
		return err
	}
	snapshot := s.state.clone()
	tx := &MemoryStore{mu: s.mu, state: s.state, inTx: true}
	if err := fn(tx); err != nil {
		*s.state = *snapshot
		return err
	}
	return nil
}

func (s *MemoryStore) Claims() ClaimRepository       { return memoryClaims{s} }
func (s *MemoryStore) Approvals() ApprovalRepository { return memoryApprovals{s} }
func (s *MemoryStore) Documents() DocumentRepository { return memoryDocuments{s} }
func (s *MemoryStore) History() HistoryRepository    { return memoryHistory{s} }
func (s *MemoryStore) Officers() OfficerRepository   { return memoryOfficers{s} }

type memoryClaims struct{ s *MemoryStore }

func (r memoryClaims) Create(_ context.Context, claim *models.Claim) error {
	return r.s.do(func(st *memoryState) error {
		if _, exists := st.claims[claim.ClaimID]; exists {
			return ErrConflict
		}
		for _, c := range st.claims {
			if claim.ClaimNumber != "" && c.ClaimNumber == claim.ClaimNumber {
				return ErrConflict
			}
		}
		st.claims[claim.ClaimID] = *claim
		return nil
	})
}

func (r memoryClaims) Get(_ context.Context, claimID string) (*models.Claim, error) {
	var out models.Claim
	err := r.s.do(func(st *memoryState) error {
		c, ok := st.claims[claimID]
		if !ok {
			return ErrNotFound
		}
		out = c
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r memoryClaims) CompareAndSet(_ context.Context, claimID string, expect ClaimState, update ClaimUpdate) error {
	return r.s.do(func(st *memoryState) error {
		c, ok := st.claims[claimID]
		if !ok {
			return ErrConflict
		}
		if c.Status != expect.Status || c.CurrentRole != expect.Role || c.Version != expect.Version {
			return ErrConflict
		}
		c.Status = update.Status
		c.CurrentRole = update.Role
		c.UpdatedAt = update.UpdatedAt
		if update.SubmittedAt != nil {
			at := *update.SubmittedAt
			c.SubmittedAt = &at
		}
		c.Version++
		st.claims[claimID] = c
		return nil
	})
}

func (r memoryClaims) List(_ context.Context, anyOf []models.ClaimMatch) ([]models.Claim, error) {
	out := make([]models.Claim, 0)
	err := r.s.do(func(st *memoryState) error {
		for _, c := range st.claims {
			for _, m := range anyOf {
				if m.Matches(c) {
					out = append(out, c)
					break
				}
			}
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].ClaimID > out[j].ClaimID
		}
		return out[i].CreatedAt.After(out[j].CreatedAt)
	})
	return out, err
}

func (r memoryClaims) CountCreatedSince(_ context.Context, since time.Time) (int64, error) {
	var n int64
	err := r.s.do(func(st *memoryState) error {
		for _, c := range st.claims {
			if !c.CreatedAt.Before(since) {
				n++
			}
		}
		return nil
	})
	return n, err
}

type memoryApprovals struct{ s *MemoryStore }

func (r memoryApprovals) Append(_ context.Context, record *models.Approval) error {
	return r.s.do(func(st *memoryState) error {
		st.seq++
		record.Seq = st.seq
		st.approvals = append(st.approvals, *record)
		return nil
	})
}

func (r memoryApprovals) ListFor(_ context.Context, claimID string) ([]models.Approval, error) {
	out := make([]models.Approval, 0)
	err := r.s.do(func(st *memoryState) error {
		for _, a := range st.approvals {
			if a.ClaimID == claimID {
				out = append(out, a)
			}
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool {
		if !out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].CreatedAt.Before(out[j].CreatedAt)
		}
		return out[i].Seq < out[j].Seq
	})
	return out, err
}

type memoryDocuments struct{ s *MemoryStore }

func (r memoryDocuments) Insert(_ context.Context, doc *models.Document) error {
	return r.s.do(func(st *memoryState) error {
		if _, exists := st.documents[doc.DocumentID]; exists {
			return ErrConflict
		}
		st.documents[doc.DocumentID] = *doc
		return nil
	})
}

func (r memoryDocuments) Get(_ context.Context, documentID string) (*models.Document, error) {
	var out models.Document
	err := r.s.do(func(st *memoryState) error {
		d, ok := st.documents[documentID]
		if !ok {
			return ErrNotFound
		}
		out = d
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r memoryDocuments) Slot(_ context.Context, claimID string, category models.DocumentCategory) (*models.DocumentSlot, error) {
	var out models.DocumentSlot
	err := r.s.do(func(st *memoryState) error {
		slot, ok := st.slots[slotKey{claimID, category}]
		if !ok {
			return ErrNotFound
		}
		out = slot
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r memoryDocuments) CreateSlot(_ context.Context, slot *models.DocumentSlot) error {
	return r.s.do(func(st *memoryState) error {
		key := slotKey{slot.ClaimID, slot.Category}
		if _, exists := st.slots[key]; exists {
			return ErrConflict
		}
		st.slots[key] = *slot
		return nil
	})
}

func (r memoryDocuments) SwapSlot(_ context.Context, claimID string, category models.DocumentCategory, expectVersion int, documentID string, at time.Time) error {
	return r.s.do(func(st *memoryState) error {
		key := slotKey{claimID, category}
		slot, ok := st.slots[key]
		if !ok || slot.Version != expectVersion {
			return ErrConflict
		}
		slot.DocumentID = documentID
		slot.Version++
		slot.UpdatedAt = at
		st.slots[key] = slot
		return nil
	})
}

func (r memoryDocuments) MarkSuperseded(_ context.Context, documentID, supersededBy string, at time.Time) error {
	return r.s.do(func(st *memoryState) error {
		d, ok := st.documents[documentID]
		if !ok {
			return ErrNotFound
		}
		if d.SupersededAt != nil {
			return ErrConflict
		}
		by := supersededBy
		d.SupersededAt = &at
		d.SupersededBy = &by
		st.documents[documentID] = d
		return nil
	})
}

func (r memoryDocuments) ListCurrent(_ context.Context, claimID string) ([]models.Document, error) {
	out := make([]models.Document, 0)
	err := r.s.do(func(st *memoryState) error {
		for _, category := range models.DocumentCategories {
			slot, ok := st.slots[slotKey{claimID, category}]
			if !ok {
				continue
			}
			if d, ok := st.documents[slot.DocumentID]; ok {
				out = append(out, d)
			}
		}
		return nil
	})
	return out, err
}

type memoryHistory struct{ s *MemoryStore }

func (r memoryHistory) Append(_ context.Context, entry *models.ClaimStatusHistory) error {
	return r.s.do(func(st *memoryState) error {
		st.history = append(st.history, *entry)
		return nil
	})
}

func (r memoryHistory) ListFor(_ context.Context, claimID string) ([]models.ClaimStatusHistory, error) {
	out := make([]models.ClaimStatusHistory, 0)
	err := r.s.do(func(st *memoryState) error {
		for _, h := range st.history {
			if h.ClaimID == claimID {
				out = append(out, h)
			}
		}
		return nil
	})
	return out, err
}

type memoryOfficers struct{ s *MemoryStore }

func (r memoryOfficers) Create(_ context.Context, officer *models.Officer) error {
	return r.s.do(func(st *memoryState) error {
		email := strings.ToLower(officer.Email)
		for _, o := range st.officers {
			if strings.ToLower(o.Email) == email {
				return ErrConflict
			}
		}
		if _, exists := st.officers[officer.OfficerID]; exists {
			return ErrConflict
		}
		st.officers[officer.OfficerID] = *officer
		return nil
	})
}

func (r memoryOfficers) Get(_ context.Context, officerID string) (*models.Officer, error) {
	var out models.Officer
	err := r.s.do(func(st *memoryState) error {
		o, ok := st.officers[officerID]
		if !ok || o.DeleteAt != nil {
			return ErrNotFound
		}
		out = o
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r memoryOfficers) GetByEmail(_ context.Context, email string) (*models.Officer, error) {
	var out models.Officer
	err := r.s.do(func(st *memoryState) error {
		for _, o := range st.officers {
			if strings.EqualFold(o.Email, email) && o.DeleteAt == nil {
				out = o
				return nil
			}
		}
		return ErrNotFound
	})
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (r memoryOfficers) ListByRole(_ context.Context, role models.Role) ([]models.Officer, error) {
	out := make([]models.Officer, 0)
	err := r.s.do(func(st *memoryState) error {
		for _, o := range st.officers {
			if o.Role == role && o.DeleteAt == nil {
				out = append(out, o)
			}
		}
		return nil
	})
	sort.Slice(out, func(i, j int) bool { return out[i].Email < out[j].Email })
	return out, err
}

func (r memoryOfficers) Update(_ context.Context, officer *models.Officer) error {
	return r.s.do(func(st *memoryState) error {
		if _, ok := st.officers[officer.OfficerID]; !ok {
			return ErrNotFound
		}
		st.officers[officer.OfficerID] = *officer
		return nil
	})
}
