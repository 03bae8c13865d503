package activity

import (
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildWhere(t *testing.T) {
	from := time.Date(2026, 5, 1, 0, 0, 0, 0, time.FixedZone("CEST", 2*3600))
	to := time.Date(2026, 5, 2, 0, 0, 0, 0, time.UTC)

	where, args := buildWhere(Filter{}, "a.")
	assert.Empty(t, where)
	assert.Nil(t, args)

	where, args = buildWhere(Filter{ActorID: "u-1", ActionKind: ActionEdit, From: from, To: to}, "a.")
	assert.Equal(t, " WHERE a.user_id = ? AND a.action_kind = ? AND a.created_at >= ? AND a.created_at <= ?", where)
	require.Len(t, args, 4)
	assert.Equal(t, "u-1", args[0])
	assert.Equal(t, "edit", args[1])
	assert.Equal(t, time.UTC, args[2].(time.Time).Location())
	assert.True(t, args[2].(time.Time).Equal(from))

	where, args = buildWhere(Filter{To: to}, "")
	assert.Equal(t, " WHERE created_at <= ?", where)
	assert.Len(t, args, 1)
}

func TestMarshalSnapshot(t *testing.T) {
	v, err := marshalSnapshot(nil)
	require.NoError(t, err)
	assert.Nil(t, v)

	v, err = marshalSnapshot(NewSnapshot().Set("title", String("Plan")).Set("done", Bool(true)))
	require.NoError(t, err)
	assert.Equal(t, `{"title":"Plan","done":true}`, v)
}

func TestUnmarshalSnapshot(t *testing.T) {
	assert.Nil(t, unmarshalSnapshot(sql.NullString{}))
	assert.Nil(t, unmarshalSnapshot(sql.NullString{Valid: true}))

	s := unmarshalSnapshot(sql.NullString{String: `{"b":1,"a":"x"}`, Valid: true})
	require.NotNil(t, s)
	assert.Equal(t, []string{"b", "a"}, s.Keys())

	broken := unmarshalSnapshot(sql.NullString{String: `{"b":`, Valid: true})
	require.NotNil(t, broken)
	v, ok := broken.Get("_parse_error")
	require.True(t, ok)
	assert.Equal(t, "invalid JSON", v.Text())
}
