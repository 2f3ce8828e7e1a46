package media

import (
	"database/sql"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func Test_BuildInsert_SkipsConflictingPaths(t *testing.T) {
	alt := 112.5
	records := []*Record{
		{
			Coordinate: Coordinate{Latitude: 40.1234, Longitude: -8.5678, Altitude: &alt},
			FullPath:   "/missions/Mission_1/DJI_0001.JPG",
			FileName:   "DJI_0001.JPG",
			MediaType:  Photo,
			MissionID:  7,
		},
		{
			Coordinate: Coordinate{Latitude: 41, Longitude: -8},
			FullPath:   "/missions/Mission_1/DJI_0002.MP4",
			FileName:   "DJI_0002.MP4",
			MediaType:  Video,
			MissionID:  7,
		},
	}

	query, args, err := buildInsert(records).ToSql()
	require.NoError(t, err)

	assert.Contains(t, query, "INSERT INTO drone_mission (full_path,file_name,media_type,altitude,geom,mission_id)")
	assert.Contains(t, query, "ST_GeomFromText($5, 4326)")
	assert.Contains(t, query, "ST_GeomFromText($11, 4326)")
	assert.Contains(t, query, "ON CONFLICT (full_path) DO NOTHING")

	require.Len(t, args, 12)
	assert.Equal(t, "/missions/Mission_1/DJI_0001.JPG", args[0])
	assert.Equal(t, "photo", args[2])
	assert.Equal(t, sql.NullFloat64{Float64: 112.5, Valid: true}, args[3])
	assert.Equal(t, "POINT(-8.5678 40.1234)", args[4])
	assert.Equal(t, 7, args[5])
	assert.Equal(t, "video", args[8])
	assert.Equal(t, sql.NullFloat64{}, args[9], "video altitude should be NULL")
}

func Test_PointWKT_OrdersLongitudeFirst(t *testing.T) {
	c := Coordinate{Latitude: -33.8688, Longitude: 151.2093}
	assert.Equal(t, "POINT(151.2093 -33.8688)", c.PointWKT())
}

func Test_InsertBatchSize_StaysBelowParameterLimit(t *testing.T) {
	records := make([]*Record, insertBatchSize)
	for i := range records {
		records[i] = &Record{FullPath: fmt.Sprintf("/m/%d.jpg", i), MediaType: Photo}
	}

	_, args, err := buildInsert(records).ToSql()
	require.NoError(t, err)
	assert.Less(t, len(args), 65535)
}
