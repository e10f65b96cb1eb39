package subscribers

import (
	"encoding/json"
	"iter"
	"slices"
)

// Recipients is an ordered map of account ID to DeliveryCandidate.
// Iteration follows insertion order until SortByID is called.
// Adding an account that is already present merges the candidates.
type Recipients struct {
	order []int64
	byID  map[int64]*DeliveryCandidate
}

// NewRecipients creates a recipient map from candidates.
func NewRecipients(candidates ...*DeliveryCandidate) *Recipients {
	r := &Recipients{byID: make(map[int64]*DeliveryCandidate, len(candidates))}
	for _, c := range candidates {
		r.Add(c)
	}
	return r
}

// Add inserts a candidate or merges it into the existing one.
func (r *Recipients) Add(c *DeliveryCandidate) {
	if c == nil {
		return
	}
	if r.byID == nil {
		r.byID = make(map[int64]*DeliveryCandidate)
	}
	if existing, ok := r.byID[c.accountID]; ok {
		existing.Merge(c)
		return
	}
	r.order = append(r.order, c.accountID)
	r.byID[c.accountID] = c.Clone()
}

// Merge adds every candidate of other in its order.
func (r *Recipients) Merge(other *Recipients) {
	if other == nil {
		return
	}
	for _, c := range other.All() {
		r.Add(c)
	}
}

func (r *Recipients) Get(id int64) (*DeliveryCandidate, bool) {
	if r == nil {
		return nil, false
	}
	c, ok := r.byID[id]
	return c, ok
}

func (r *Recipients) Remove(id int64) {
	if _, ok := r.byID[id]; !ok {
		return
	}
	delete(r.byID, id)
	r.order = slices.DeleteFunc(r.order, func(v int64) bool { return v == id })
}

func (r *Recipients) Len() int {
	if r == nil {
		return 0
	}
	return len(r.order)
}

// IDs returns the account IDs in iteration order.
func (r *Recipients) IDs() []int64 {
	if r == nil {
		return nil
	}
	return slices.Clone(r.order)
}

// All iterates candidates in order. Removing the current candidate during iteration is allowed.
func (r *Recipients) All() iter.Seq2[int64, *DeliveryCandidate] {
	return func(yield func(int64, *DeliveryCandidate) bool) {
		if r == nil {
			return
		}
		for _, id := range slices.Clone(r.order) {
			c, ok := r.byID[id]
			if !ok {
				continue
			}
			if !yield(id, c) {
				return
			}
		}
	}
}

// Filter keeps the candidates for which keep returns true.
func (r *Recipients) Filter(keep func(*DeliveryCandidate) bool) {
	kept := r.order[:0]
	for _, id := range r.order {
		if keep(r.byID[id]) {
			kept = append(kept, id)
			continue
		}
		delete(r.byID, id)
	}
	r.order = kept
}

// SortByID orders candidates by ascending account ID.
func (r *Recipients) SortByID() {
	slices.Sort(r.order)
}

// Window drops accounts at or below the cursor, sorts by ID and keeps at most limit
// candidates. A non-positive limit keeps everything above the cursor.
// It reports whether candidates above the cursor were cut by the limit.
func (r *Recipients) Window(cursor int64, limit int) bool {
	r.Filter(func(c *DeliveryCandidate) bool { return c.accountID > cursor })
	r.SortByID()
	if limit <= 0 || len(r.order) <= limit {
		return false
	}
	for _, id := range r.order[limit:] {
		delete(r.byID, id)
	}
	r.order = r.order[:limit]
	return true
}

// Clone returns a deep copy.
func (r *Recipients) Clone() *Recipients {
	out := NewRecipients()
	for _, c := range r.All() {
		out.Add(c)
	}
	return out
}

func (r *Recipients) MarshalJSON() ([]byte, error) {
	list := make([]*DeliveryCandidate, 0, r.Len())
	for _, c := range r.All() {
		list = append(list, c)
	}
	return json.Marshal(list)
}

func (r *Recipients) UnmarshalJSON(data []byte) error {
	var list []*DeliveryCandidate
	if err := json.Unmarshal(data, &list); err != nil {
		return err
	}
	*r = *NewRecipients(list...)
	return nil
}
