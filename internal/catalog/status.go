package catalog

import (
	"context"
	"time"

	"github.com/gridsight/siterank/internal/geo"
)

// TypeStatus describes one feature type's slice of the current snapshot.
type TypeStatus struct {
	FeatureType string    `json:"feature_type"`
	Count       int       `json:"count"`
	LoadedAt    time.Time `json:"loaded_at,omitempty"`
	AgeSeconds  float64   `json:"age_seconds,omitempty"`
	Stale       bool      `json:"stale,omitempty"`
	Error       string    `json:"error,omitempty"`
}

// Status is a diagnostic view of the catalog for the CLI and HTTP surface.
type Status struct {
	Loaded     bool         `json:"loaded"`
	SnapshotAt time.Time    `json:"snapshot_at,omitempty"`
	TTLSeconds float64      `json:"ttl_seconds"`
	Types      []TypeStatus `json:"types"`
}

// Status reports the current snapshot without triggering a reload.
func (c *Catalog) Status() Status {
	st := Status{TTLSeconds: c.opts.TTL.Seconds()}
	snap := c.snap.Load()
	if snap == nil {
		return st
	}

	st.Loaded = true
	st.SnapshotAt = snap.createdAt
	for _, ft := range geo.AllFeatureTypes {
		ts := TypeStatus{FeatureType: string(ft)}
		if e := snap.entries[ft]; e != nil {
			if e.err != nil {
				ts.Error = e.err.Error()
			} else {
				ts.Count = len(e.features)
				ts.LoadedAt = e.loadedAt
				ts.AgeSeconds = time.Since(e.loadedAt).Seconds()
				ts.Stale = e.stale
			}
		}
		st.Types = append(st.Types, ts)
	}
	return st
}

// Refresh forces a reload regardless of TTL. Used by the catalog refresh
// command; normal reads rely on transparent TTL-driven reload.
func (c *Catalog) Refresh(ctx context.Context) error {
	_, err, _ := c.group.Do("refresh", func() (any, error) {
		return c.refresh(ctx)
	})
	return err
}
