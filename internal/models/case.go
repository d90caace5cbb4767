package models

import "strings"

// Case is one navigable entry of the manifest.
type Case struct {
	Key   string `json:"key"`
	Index int    `json:"index"`
}

// GroupKey is the recording the case was taken from: the key up to the
// first underscore, or the whole key when there is none.
func (c Case) GroupKey() string {
	if i := strings.IndexByte(c.Key, '_'); i >= 0 {
		return c.Key[:i]
	}
	return c.Key
}
