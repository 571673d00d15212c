package servers

import (
	"context"
	"sync/atomic"
	"testing"

	"RTCSession/module/chat/model"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeMembership struct {
	members map[int64][]model.Member
	fail    map[int64]bool
	calls   atomic.Int32
}

func (f *fakeMembership) ServerMembers(_ context.Context, serverID int64) ([]model.Member, error) {
	f.calls.Add(1)
	if f.fail[serverID] {
		return nil, errors.New("membership query failed")
	}
	return f.members[serverID], nil
}

func TestComputeJoinsSuccessesInViewerOrder(t *testing.T) {
	src := &fakeMembership{
		members: map[int64][]model.Member{
			1: {{UserID: 7}, {UserID: 9}},
			2: {{UserID: 9}},
			3: {{UserID: 7}},
		},
	}
	r := New(src)
	viewerServers := []model.Server{{ID: 1, Name: "a"}, {ID: 2, Name: "b"}, {ID: 3, Name: "c"}}

	got := r.Compute(context.Background(), 7, viewerServers)
	require.Len(t, got, 2)
	assert.Equal(t, int64(1), got[0].ID)
	assert.Equal(t, int64(3), got[1].ID)
	assert.Equal(t, int32(3), src.calls.Load(), "one query per viewer server")
}

func TestComputeToleratesPartialFailure(t *testing.T) {
	src := &fakeMembership{
		members: map[int64][]model.Member{
			1: {{UserID: 7}},
			2: {{UserID: 7}},
		},
		fail: map[int64]bool{2: true},
	}
	r := New(src)
	got := r.Compute(context.Background(), 7,
		[]model.Server{{ID: 1}, {ID: 2}})

	require.Len(t, got, 1, "a failed query is 'not a common server', not an error")
	assert.Equal(t, int64(1), got[0].ID)
}

func TestComputeEmptyInputs(t *testing.T) {
	r := New(&fakeMembership{})
	assert.Nil(t, r.Compute(context.Background(), 0, []model.Server{{ID: 1}}))
	assert.Nil(t, r.Compute(context.Background(), 7, nil))
}
