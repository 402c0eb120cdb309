// Package memory provides a dual-indexed associative memory store with
// relevance-ranked recall, time decay, access-frequency weighting, and a
// symmetric link graph between records.
package memory

import (
	"time"
)

// Channel identifies which matching pass produced a recall result.
type Channel string

const (
	// ChannelAssociative is the primary, explainable channel: substring and
	// metadata matching against key, value, and tag.
	ChannelAssociative Channel = "associative"

	// ChannelCoordinate is the proximity channel: matches records whose
	// derived coordinate lies near the query's coordinate. Deliberately
	// noisy; unrelated keys may coincidentally land close together.
	ChannelCoordinate Channel = "coordinate"
)

// Record is a single memory entry.
type Record struct {
	// Key is the unique identifier within the store.
	Key string `json:"key"`

	// Value is the text payload.
	Value string `json:"value"`

	// Tag is the mood label attached at write time.
	Tag string `json:"tag"`

	// Importance is a caller-supplied weight in [0,1].
	Importance float64 `json:"importance"`

	// CreatedAt is set on insert and reset on overwrite.
	CreatedAt time.Time `json:"created_at"`

	// AccessCount is incremented by Touch and never decreases. It survives
	// overwrites of the same key.
	AccessCount int `json:"access_count"`
}

// RecallResult is one scored match from Recall. The same key may appear
// twice in a result set, once per channel, with different scores.
type RecallResult struct {
	Key     string  `json:"key"`
	Score   float64 `json:"score"`
	Channel Channel `json:"channel"`
	Value   string  `json:"value"`
	Tag     string  `json:"tag,omitempty"`

	// Distance is the coordinate-space distance for coordinate-channel
	// matches, zero otherwise.
	Distance float64 `json:"distance,omitempty"`
}

// Stats holds aggregate statistics about the store.
type Stats struct {
	// Records is the number of records held.
	Records int `json:"records"`

	// Links is the number of undirected edges in the link graph.
	Links int `json:"links"`

	// AverageImportance is the mean importance across all records.
	AverageImportance float64 `json:"average_importance"`

	// TotalAccesses is the sum of all access counters.
	TotalAccesses int `json:"total_accesses"`
}

// RecordSnapshot is the portable form of a record used for persistence.
type RecordSnapshot struct {
	Key         string    `json:"key"`
	Value       string    `json:"value"`
	Tag         string    `json:"tag"`
	Importance  float64   `json:"importance"`
	CreatedAt   time.Time `json:"created_at"`
	AccessCount int       `json:"access_count"`
}

// Snapshot is the portable form of the full store state. Records are listed
// in insertion order so that a restore reproduces recall tie-breaking.
type Snapshot struct {
	Records []RecordSnapshot    `json:"records"`
	Links   map[string][]string `json:"links,omitempty"`
}
