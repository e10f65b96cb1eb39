package subscribers

import (
	"encoding/json"
	"slices"
)

// DeliveryCandidate is one recipient with the subscription flags that matched
// and the channels the message goes out through. Flags and notifiers are sets.
// A candidate without notifiers is still a valid recipient.
type DeliveryCandidate struct {
	accountID int64
	flags     []string
	notifiers []string
}

// NewCandidate creates a candidate for an account.
func NewCandidate(accountID int64, flags, notifiers []string) *DeliveryCandidate {
	c := &DeliveryCandidate{accountID: accountID}
	c.AddFlag(flags...)
	c.AddNotifier(notifiers...)
	return c
}

func (c *DeliveryCandidate) AccountID() int64 { return c.accountID }

// Flags returns the flag IDs in sorted order.
func (c *DeliveryCandidate) Flags() []string { return slices.Clone(c.flags) }

// Notifiers returns the channel names in sorted order.
func (c *DeliveryCandidate) Notifiers() []string { return slices.Clone(c.notifiers) }

func (c *DeliveryCandidate) HasFlag(id string) bool { return contains(c.flags, id) }

func (c *DeliveryCandidate) HasNotifier(name string) bool { return contains(c.notifiers, name) }

func (c *DeliveryCandidate) AddFlag(ids ...string) { c.flags = insert(c.flags, ids...) }

func (c *DeliveryCandidate) RemoveFlag(id string) { c.flags = remove(c.flags, id) }

func (c *DeliveryCandidate) AddNotifier(names ...string) { c.notifiers = insert(c.notifiers, names...) }

func (c *DeliveryCandidate) RemoveNotifier(name string) { c.notifiers = remove(c.notifiers, name) }

// SetNotifiers replaces the channel set.
func (c *DeliveryCandidate) SetNotifiers(names ...string) {
	c.notifiers = nil
	c.AddNotifier(names...)
}

// Merge unions the flags and notifiers of other into c.
func (c *DeliveryCandidate) Merge(other *DeliveryCandidate) {
	c.AddFlag(other.flags...)
	c.AddNotifier(other.notifiers...)
}

// Clone returns an independent copy.
func (c *DeliveryCandidate) Clone() *DeliveryCandidate {
	return &DeliveryCandidate{
		accountID: c.accountID,
		flags:     slices.Clone(c.flags),
		notifiers: slices.Clone(c.notifiers),
	}
}

type candidateJSON struct {
	AccountID int64    `json:"account_id"`
	Flags     []string `json:"flags"`
	Notifiers []string `json:"notifiers"`
}

func (c *DeliveryCandidate) MarshalJSON() ([]byte, error) {
	return json.Marshal(candidateJSON{
		AccountID: c.accountID,
		Flags:     nonNil(c.flags),
		Notifiers: nonNil(c.notifiers),
	})
}

func (c *DeliveryCandidate) UnmarshalJSON(data []byte) error {
	var raw candidateJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*c = *NewCandidate(raw.AccountID, raw.Flags, raw.Notifiers)
	return nil
}

func contains(set []string, v string) bool {
	_, ok := slices.BinarySearch(set, v)
	return ok
}

func insert(set []string, values ...string) []string {
	for _, v := range values {
		if v == "" {
			continue
		}
		if i, ok := slices.BinarySearch(set, v); !ok {
			set = slices.Insert(set, i, v)
		}
	}
	return set
}

func remove(set []string, v string) []string {
	if i, ok := slices.BinarySearch(set, v); ok {
		return slices.Delete(set, i, i+1)
	}
	return set
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
