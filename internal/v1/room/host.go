package room

import (
	"sort"
	"time"

	"github.com/tossemideia/synctube/internal/v1/metrics"
	"github.com/tossemideia/synctube/internal/v1/model"
)

// armHostGraceLocked schedules a one-shot transfer check HOST_GRACE_PERIOD
// from now, unless one is already pending (spec.md §4.3). Must be called
// with mu held.
func (r *Room) armHostGraceLocked() {
	if r.hostGraceTimer != nil {
		return
	}
	deadline := time.Now().Add(r.cfg.HostGracePeriod)
	r.hostGraceDeadline = &deadline
	r.hostGraceTimer = time.AfterFunc(r.cfg.HostGracePeriod, r.onHostGraceExpired)
}

// cancelHostGraceLocked stops a pending host-grace timer, called on host
// reconnect. Must be called with mu held.
func (r *Room) cancelHostGraceLocked() {
	if r.hostGraceTimer != nil {
		r.hostGraceTimer.Stop()
		r.hostGraceTimer = nil
	}
	r.hostGraceDeadline = nil
}

// onHostGraceExpired fires on the timer goroutine. If the host is still
// disconnected, it transfers the role to the lowest-id connected user.
func (r *Room) onHostGraceExpired() {
	r.mu.Lock()
	r.hostGraceTimer = nil
	r.hostGraceDeadline = nil

	var host *model.User
	for _, u := range r.users {
		if u.Role == model.RoleHost {
			host = u
			break
		}
	}
	if host == nil || host.Connected {
		r.mu.Unlock()
		return
	}

	newHostID, ok := r.lowestConnectedUserIDLocked()
	if !ok {
		r.mu.Unlock()
		return
	}
	host.Role = model.RoleViewer
	r.users[newHostID].Role = model.RoleHost
	newHostName := r.users[newHostID].DisplayName
	r.mu.Unlock()

	metrics.HostTransfers.WithLabelValues("grace_expired").Inc()
	r.conn.Broadcast(FrameHostChanged, HostChangedPayload{NewHostID: newHostID, NewHostName: newHostName}, "")
	r.systemChat(newHostName + " agora é o host.")
}

func (r *Room) lowestConnectedUserIDLocked() (model.UserID, bool) {
	var ids []string
	for id, u := range r.users {
		if u.Connected {
			ids = append(ids, string(id))
		}
	}
	if len(ids) == 0 {
		return "", false
	}
	sort.Strings(ids)
	return model.UserID(ids[0]), true
}
