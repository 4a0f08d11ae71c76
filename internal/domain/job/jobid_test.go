package job

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewJobID(t *testing.T) {
	jobID1 := NewJobID()
	jobID2 := NewJobID()

	// JobIDは一意である
	assert.NotEqual(t, jobID1.String(), jobID2.String())

	// フォーマットチェック: YYYYMMDD-HHMMSS-{UUID}
	parts := strings.Split(jobID1.String(), "-")
	require.Len(t, parts, 3)
	assert.Len(t, parts[0], 8)
	assert.Len(t, parts[1], 6)
	assert.Len(t, parts[2], 8)
}

func TestNewJobIDAt(t *testing.T) {
	at := time.Date(2026, 10, 15, 9, 30, 5, 0, time.UTC)
	id := newJobIDAt(at)

	assert.True(t, strings.HasPrefix(id.String(), "20261015-093005-"))
}

func TestJobIDFromString(t *testing.T) {
	tests := []struct {
		name string
		in   string
		want string
	}{
		{name: "job id", in: "20260301-120000-abcd1234", want: "20260301-120000-abcd1234"},
		{name: "trimmed", in: "  crm-req-42 ", want: "crm-req-42"},
		{name: "blank", in: "   ", want: ""},
		{name: "control chars", in: "abc\nforged=1", want: ""},
		{name: "too long", in: strings.Repeat("x", maxExternalLen+1), want: ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id := JobIDFromString(tt.in)
			assert.Equal(t, tt.want, id.String())
			assert.Equal(t, tt.want == "", id.IsZero())
		})
	}
	assert.True(t, JobID{}.IsZero())
}

func TestFromContext(t *testing.T) {
	id := JobIDFromString("crm-req-42")
	ctx := WithJobID(context.Background(), id)
	assert.Equal(t, id, FromContext(ctx))

	// ゼロ値は載せない
	assert.Equal(t, context.Background(), WithJobID(context.Background(), JobID{}))

	fresh := FromContext(context.Background())
	assert.False(t, fresh.IsZero())
	assert.NotEqual(t, fresh, FromContext(context.Background()))
}

func TestNewEntityID(t *testing.T) {
	a := NewEntityID("lead")
	b := NewEntityID("lead")

	assert.True(t, strings.HasPrefix(a, "lead_"))
	assert.NotEqual(t, a, b)
}
