package servers

import (
	"context"
	"sync"

	"RTCSession/logger"
	"RTCSession/module/chat/model"
)

// MembershipSource answers per-server membership queries.
type MembershipSource interface {
	ServerMembers(ctx context.Context, serverID int64) ([]model.Member, error)
}

// Resolver computes the communities shared between the viewer and a
// selected profile. No caching: recomputed from scratch on every profile
// selection change.
type Resolver struct {
	src MembershipSource
}

func New(src MembershipSource) *Resolver {
	return &Resolver{src: src}
}

// Compute fans out one membership query per viewer server, concurrently,
// and joins the successes. A failed query only excludes that server from
// consideration — "not a common server", never an error state. Result
// order follows viewerServers order.
func (r *Resolver) Compute(ctx context.Context, targetUserID int64, viewerServers []model.Server) []model.Server {
	if targetUserID == 0 || len(viewerServers) == 0 {
		return nil
	}

	shared := make([]bool, len(viewerServers))
	var wg sync.WaitGroup
	for i := range viewerServers {
		wg.Add(1)
		go func(i int, srv model.Server) {
			defer wg.Done()
			members, err := r.src.ServerMembers(ctx, srv.ID)
			if err != nil {
				logger.Warnf("[servers] membership query failed server=%d: %v", srv.ID, err)
				return
			}
			for _, m := range members {
				if m.UserID == targetUserID {
					shared[i] = true
					return
				}
			}
		}(i, viewerServers[i])
	}
	wg.Wait()

	out := make([]model.Server, 0, len(viewerServers))
	for i, ok := range shared {
		if ok {
			out = append(out, viewerServers[i])
		}
	}
	return out
}
