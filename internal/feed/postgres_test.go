package feed

import (
	"context"
	"testing"

	"github.com/pashagolub/pgxmock/v3"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twpayne/go-geom"
	"github.com/twpayne/go-geom/encoding/wkb"

	sgeo "github.com/gridsight/siterank/internal/geo"
)

func lineWKB(t *testing.T, coords [][]float64) []byte {
	t.Helper()
	flat := make([]float64, 0, len(coords)*2)
	for _, c := range coords {
		flat = append(flat, c...)
	}
	ls := geom.NewLineStringFlat(geom.XY, flat)
	raw, err := wkb.Marshal(ls, wkb.NDR)
	require.NoError(t, err)
	return raw
}

func TestPostgresLoader_Load(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	rows := pgxmock.NewRows([]string{"id", "name", "lat", "lng", "geom_wkb", "attrs"}).
		AddRow("sub-1", "Thorpe Marsh", 53.6, -1.1, []byte(nil), []byte(`{"voltage_kv":"400"}`)).
		AddRow("sub-2", "Drax", 53.7, -1.0, []byte(nil), []byte(nil))
	mock.ExpectQuery("SELECT id, name, lat, lng, geom_wkb, attrs").
		WithArgs("substation").
		WillReturnRows(rows)

	loader := NewPostgresLoader(mock)
	features, err := loader.Load(context.Background(), sgeo.Substation)
	require.NoError(t, err)
	require.Len(t, features, 2)

	assert.Equal(t, "sub-1", features[0].ID)
	assert.Equal(t, sgeo.Substation, features[0].Type)
	assert.Equal(t, 53.6, features[0].Lat)
	assert.Equal(t, map[string]string{"voltage_kv": "400"}, features[0].Attrs)
	assert.Nil(t, features[0].Verts)
	assert.Nil(t, features[1].Attrs)

	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresLoader_LineGeometry(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	// X=lng, Y=lat in the stored geometry.
	raw := lineWKB(t, [][]float64{{-1.8, 53.4}, {-1.5, 53.5}, {-1.2, 53.6}})

	rows := pgxmock.NewRows([]string{"id", "name", "lat", "lng", "geom_wkb", "attrs"}).
		AddRow("tl-1", "line", 53.5, -1.5, raw, []byte(nil))
	mock.ExpectQuery("SELECT id, name, lat, lng, geom_wkb, attrs").
		WithArgs("transmission_line").
		WillReturnRows(rows)

	loader := NewPostgresLoader(mock)
	features, err := loader.Load(context.Background(), sgeo.TransmissionLine)
	require.NoError(t, err)
	require.Len(t, features, 1)

	require.Len(t, features[0].Verts, 3)
	assert.Equal(t, sgeo.Coord{Lat: 53.4, Lng: -1.8}, features[0].Verts[0])
	assert.Equal(t, sgeo.Coord{Lat: 53.6, Lng: -1.2}, features[0].Verts[2])
	assert.True(t, features[0].IsLine())
}

func TestPostgresLoader_SkipsBadGeometry(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	rows := pgxmock.NewRows([]string{"id", "name", "lat", "lng", "geom_wkb", "attrs"}).
		AddRow("bad", "corrupt", 53.5, -1.5, []byte{0xff, 0xfe}, []byte(nil)).
		AddRow("good", "fine", 53.6, -1.4, []byte(nil), []byte(nil))
	mock.ExpectQuery("SELECT id, name, lat, lng, geom_wkb, attrs").
		WithArgs("fiber_route").
		WillReturnRows(rows)

	loader := NewPostgresLoader(mock)
	features, err := loader.Load(context.Background(), sgeo.FiberRoute)
	require.NoError(t, err, "undecodable geometry is skipped, not fatal")
	require.Len(t, features, 1)
	assert.Equal(t, "good", features[0].ID)
}

func TestPostgresLoader_QueryError(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	mock.ExpectQuery("SELECT id, name, lat, lng, geom_wkb, attrs").
		WithArgs("ixp").
		WillReturnError(assert.AnError)

	loader := NewPostgresLoader(mock)
	_, err = loader.Load(context.Background(), sgeo.IXP)
	assert.Error(t, err)
}

func TestDecodeLineWKB_Point(t *testing.T) {
	pt := geom.NewPointFlat(geom.XY, []float64{-1.5, 53.5})
	raw, err := wkb.Marshal(pt, wkb.NDR)
	require.NoError(t, err)

	parts, err := decodeLineWKB(raw)
	require.NoError(t, err)
	assert.Nil(t, parts, "points carry no vertex sequence")
}

func TestDecodeLineWKB_MultiLineString(t *testing.T) {
	ml := geom.NewMultiLineStringFlat(geom.XY, []float64{
		-1.8, 53.4, -1.5, 53.5,
		-1.2, 53.6, -1.0, 53.7,
	}, []int{4, 8})
	raw, err := wkb.Marshal(ml, wkb.NDR)
	require.NoError(t, err)

	parts, err := decodeLineWKB(raw)
	require.NoError(t, err)
	require.Len(t, parts, 2)
	require.Len(t, parts[0], 2)
	require.Len(t, parts[1], 2)
	assert.Equal(t, sgeo.Coord{Lat: 53.7, Lng: -1.0}, parts[1][1])
}

func TestPostgresLoader_DisjointMultiLineParts(t *testing.T) {
	mock, err := pgxmock.NewPool()
	require.NoError(t, err)
	defer mock.Close()

	// Two disjoint parts on the same meridian, roughly 90 km apart. A
	// flattened vertex list would fabricate a segment through the gap and
	// report zero distance from a point midway between them.
	ml := geom.NewMultiLineStringFlat(geom.XY, []float64{
		-1.5, 52.5, -1.5, 52.6,
		-1.5, 53.4, -1.5, 53.5,
	}, []int{4, 8})
	raw, err := wkb.Marshal(ml, wkb.NDR)
	require.NoError(t, err)

	rows := pgxmock.NewRows([]string{"id", "name", "lat", "lng", "geom_wkb", "attrs"}).
		AddRow("tl-1", "split line", 53.0, -1.5, raw, []byte(nil))
	mock.ExpectQuery("SELECT id, name, lat, lng, geom_wkb, attrs").
		WithArgs("transmission_line").
		WillReturnRows(rows)

	loader := NewPostgresLoader(mock)
	features, err := loader.Load(context.Background(), sgeo.TransmissionLine)
	require.NoError(t, err)
	require.Len(t, features, 2)
	assert.Equal(t, "tl-1:1", features[0].ID)
	assert.Equal(t, "tl-1:2", features[1].ID)

	midway := sgeo.Coord{Lat: 53.0, Lng: -1.5}
	nearest := features[0].DistanceKm(midway)
	if d := features[1].DistanceKm(midway); d < nearest {
		nearest = d
	}
	// 0.4 degrees of latitude to the closer part's endpoint.
	assert.InDelta(t, 44.5, nearest, 0.5)
}
