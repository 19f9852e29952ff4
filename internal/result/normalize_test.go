package result

import (
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromRows_ColumnsAndTypes(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("SELECT").WillReturnRows(
		sqlmock.NewRows([]string{"service", "census", "occupancy"}).
			AddRow("CARD", int64(12), 0.75).
			AddRow("NEURO", int64(8), 0.5),
	)

	rows, err := db.Query("SELECT service, census, occupancy FROM v")
	require.NoError(t, err)
	defer rows.Close()

	res, err := FromRows(rows)
	require.NoError(t, err)
	require.NoError(t, res.Validate())

	assert.Equal(t, []string{"service", "census", "occupancy"}, res.Columns)
	require.Len(t, res.Rows, 2)
	// Typed scalars pass through, not stringified.
	assert.Equal(t, int64(12), res.Rows[0][1])
	assert.Equal(t, 0.75, res.Rows[0][2])
	assert.Equal(t, "NEURO", res.Rows[1][0])
}

func TestFromRows_ByteSlicesBecomeStrings(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("SELECT").WillReturnRows(
		sqlmock.NewRows([]string{"unit"}).AddRow([]byte("ICU")),
	)

	rows, err := db.Query("SELECT unit FROM u")
	require.NoError(t, err)
	defer rows.Close()

	res, err := FromRows(rows)
	require.NoError(t, err)
	assert.Equal(t, "ICU", res.Rows[0][0])
}

func TestFromJSON_FirstRecordDefinesColumns(t *testing.T) {
	res, err := FromJSON([]byte(`[{"a":1,"b":2},{"a":3}]`))
	require.NoError(t, err)
	require.NoError(t, res.Validate())

	assert.Equal(t, []string{"a", "b"}, res.Columns)
	require.Len(t, res.Rows, 2)
	assert.Equal(t, float64(3), res.Rows[1][0])
	assert.Nil(t, res.Rows[1][1], "missing key gets null placeholder")
}

func TestFromJSON_ExtraKeysDropped(t *testing.T) {
	res, err := FromJSON([]byte(`[{"a":1},{"a":2,"surprise":"x"}]`))
	require.NoError(t, err)

	assert.Equal(t, []string{"a"}, res.Columns)
	require.Len(t, res.Rows, 2)
	require.Len(t, res.Rows[1], 1, "keys absent from the first record are dropped")
}

func TestFromJSON_KeyOrderPreserved(t *testing.T) {
	res, err := FromJSON([]byte(`[{"zulu":1,"alpha":2,"mike":3}]`))
	require.NoError(t, err)
	assert.Equal(t, []string{"zulu", "alpha", "mike"}, res.Columns)
}

func TestFromJSON_Shapes(t *testing.T) {
	t.Run("data envelope", func(t *testing.T) {
		res, err := FromJSON([]byte(`{"data":[{"x":1},{"x":2}]}`))
		require.NoError(t, err)
		assert.Equal(t, []string{"x"}, res.Columns)
		assert.Len(t, res.Rows, 2)
	})

	t.Run("single object", func(t *testing.T) {
		res, err := FromJSON([]byte(`{"beds":10,"free":3}`))
		require.NoError(t, err)
		assert.Equal(t, []string{"beds", "free"}, res.Columns)
		require.Len(t, res.Rows, 1)
	})

	t.Run("empty array", func(t *testing.T) {
		res, err := FromJSON([]byte(`[]`))
		require.NoError(t, err)
		assert.Empty(t, res.Columns)
		assert.Empty(t, res.Rows)
	})

	t.Run("nested values survive", func(t *testing.T) {
		res, err := FromJSON([]byte(`[{"name":"ICU","tags":["critical","adult"]}]`))
		require.NoError(t, err)
		assert.Equal(t, []string{"name", "tags"}, res.Columns)
	})

	t.Run("scalar payload rejected", func(t *testing.T) {
		_, err := FromJSON([]byte(`42`))
		assert.Error(t, err)
	})
}
