package champselect

import "maps"

// Reasons a candidate is refused.
const (
	ReasonUnknown        = "unknown champion"
	ReasonBanned         = "banned"
	ReasonUnowned        = "unowned"
	ReasonAlreadyPicked  = "already picked"
	ReasonAutofilled     = "autofilled"
	ReasonIntendedPick   = "intended pick"
	ReasonTeammateHover  = "teammate hovering"
	ReasonCommitRejected = "rejected by client"
)

// InvalidCache maps champion ids to the reason they were refused. Entries
// live until Reset; the worker is the only writer.
type InvalidCache struct {
	reasons map[int]string
}

func NewInvalidCache() *InvalidCache {
	return &InvalidCache{reasons: make(map[int]string)}
}

func (c *InvalidCache) Get(id int) (string, bool) {
	r, ok := c.reasons[id]
	return r, ok
}

// Add records id with reason. It reports false if id was already present,
// in which case the first reason is kept.
func (c *InvalidCache) Add(id int, reason string) bool {
	if _, ok := c.reasons[id]; ok {
		return false
	}
	c.reasons[id] = reason
	return true
}

func (c *InvalidCache) Len() int {
	return len(c.reasons)
}

func (c *InvalidCache) Reset() {
	clear(c.reasons)
}

// Entries returns a copy for status reporting.
func (c *InvalidCache) Entries() map[int]string {
	return maps.Clone(c.reasons)
}
