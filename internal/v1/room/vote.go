package room

import (
	"math"

	"github.com/tossemideia/synctube/internal/v1/metrics"
	"github.com/tossemideia/synctube/internal/v1/model"
)

// HandleSkipVote registers a skip vote for videoID. Stale votes (against a
// video no longer current) are silently ignored. HOST and the video's owner
// trigger an immediate advance; otherwise votes accumulate with set
// semantics until they reach the room's threshold (spec.md §4.4).
func (r *Room) HandleSkipVote(userID model.UserID, videoID model.VideoID) {
	r.mu.Lock()

	if r.sync.CurrentVideoID == nil || *r.sync.CurrentVideoID != videoID {
		r.mu.Unlock()
		return
	}

	u, ok := r.users[userID]
	if !ok {
		r.mu.Unlock()
		return
	}

	var owner model.UserID
	for _, v := range r.queue {
		if v.VideoID == videoID {
			owner = v.AddedBy
			break
		}
	}

	if u.Role == model.RoleHost || userID == owner {
		r.mu.Unlock()
		metrics.SkipVoteAdvances.WithLabelValues("privileged").Inc()
		r.AdvanceQueue()
		return
	}

	r.skipVotes[userID] = true
	required := requiredSkipVotes(r.connectedUserCountLocked(), r.settings.SkipVoteThreshold)
	votes := len(r.skipVotes)
	voters := make([]model.UserID, 0, votes)
	for id := range r.skipVotes {
		voters = append(voters, id)
	}
	threshold := votes >= required
	r.mu.Unlock()

	r.conn.Broadcast(FrameSkipVoteUpdate, SkipVoteUpdatePayload{
		VideoID: videoID, Votes: votes, Required: required, Voters: voters,
	}, "")

	if threshold {
		metrics.SkipVoteAdvances.WithLabelValues("threshold").Inc()
		r.AdvanceQueue()
	}
}

func requiredSkipVotes(connectedUsers int, threshold float64) int {
	required := int(math.Floor(float64(connectedUsers) * threshold))
	if required < 1 {
		return 1
	}
	return required
}
