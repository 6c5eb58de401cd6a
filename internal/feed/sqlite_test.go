package feed

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gridsight/siterank/internal/geo"
)

func newTestStore(t *testing.T) *SQLiteStore {
	t.Helper()
	store, err := NewSQLiteStore(filepath.Join(t.TempDir(), "snapshot.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestSQLiteStore_SaveLoad(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	saved := []*geo.Feature{
		{
			ID: "sub-1", Name: "Thorpe Marsh", Type: geo.Substation,
			Lat: 53.6, Lng: -1.1,
			Attrs: map[string]string{"voltage_kv": "400"},
		},
		{
			ID: "sub-2", Name: "Drax", Type: geo.Substation,
			Lat: 53.7, Lng: -1.0,
		},
	}
	require.NoError(t, store.Save(ctx, geo.Substation, saved))

	loaded, err := store.Load(ctx, geo.Substation)
	require.NoError(t, err)
	require.Len(t, loaded, 2)

	assert.Equal(t, "sub-1", loaded[0].ID)
	assert.Equal(t, "Thorpe Marsh", loaded[0].Name)
	assert.Equal(t, geo.Substation, loaded[0].Type)
	assert.Equal(t, 53.6, loaded[0].Lat)
	assert.Equal(t, map[string]string{"voltage_kv": "400"}, loaded[0].Attrs)
	assert.Nil(t, loaded[1].Attrs)
}

func TestSQLiteStore_PolylineVertices(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	line := &geo.Feature{
		ID: "tl-1", Type: geo.TransmissionLine,
		Lat: 53.5, Lng: -1.5,
		Verts: []geo.Coord{
			{Lat: 53.4, Lng: -1.8},
			{Lat: 53.5, Lng: -1.5},
			{Lat: 53.6, Lng: -1.2},
		},
	}
	require.NoError(t, store.Save(ctx, geo.TransmissionLine, []*geo.Feature{line}))

	loaded, err := store.Load(ctx, geo.TransmissionLine)
	require.NoError(t, err)
	require.Len(t, loaded, 1)
	assert.Equal(t, line.Verts, loaded[0].Verts)
	assert.True(t, loaded[0].IsLine())
}

func TestSQLiteStore_SaveReplaces(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	first := []*geo.Feature{
		{ID: "a", Type: geo.IXP, Lat: 51.5, Lng: -0.1},
		{ID: "b", Type: geo.IXP, Lat: 53.4, Lng: -2.2},
	}
	require.NoError(t, store.Save(ctx, geo.IXP, first))

	second := []*geo.Feature{{ID: "c", Type: geo.IXP, Lat: 55.9, Lng: -3.2}}
	require.NoError(t, store.Save(ctx, geo.IXP, second))

	loaded, err := store.Load(ctx, geo.IXP)
	require.NoError(t, err)
	require.Len(t, loaded, 1)
	assert.Equal(t, "c", loaded[0].ID)
}

func TestSQLiteStore_TypesIsolated(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, geo.Substation, []*geo.Feature{{ID: "s", Type: geo.Substation, Lat: 1, Lng: 1}}))
	require.NoError(t, store.Save(ctx, geo.WaterResource, []*geo.Feature{{ID: "w", Type: geo.WaterResource, Lat: 2, Lng: 2}}))

	// Replacing one type leaves the other alone.
	require.NoError(t, store.Save(ctx, geo.Substation, nil))

	subs, err := store.Load(ctx, geo.Substation)
	require.NoError(t, err)
	assert.Empty(t, subs)

	water, err := store.Load(ctx, geo.WaterResource)
	require.NoError(t, err)
	assert.Len(t, water, 1)
}

func TestSQLiteStore_LoadEmpty(t *testing.T) {
	store := newTestStore(t)
	features, err := store.Load(context.Background(), geo.FiberRoute)
	require.NoError(t, err)
	assert.Empty(t, features)
}
