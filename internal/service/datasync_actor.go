package service

import (
	"context"
	"sort"
	"time"

	"github.com/jmoiron/sqlx"

	"imvu-insight-api/internal/model"
	"imvu-insight-api/internal/snapshot"
)

// actorObservation is what one income batch tells us about a user id:
// the name attached to the latest purchase in the batch and the min/max
// purchase timestamps seen.
type actorObservation struct {
	name    string
	nameAt  time.Time
	minSeen time.Time
	maxSeen time.Time
}

func (o *actorObservation) observe(name string, at time.Time) {
	if o.minSeen.IsZero() || at.Before(o.minSeen) {
		o.minSeen = at
	}
	if at.After(o.maxSeen) {
		o.maxSeen = at
	}
	// Latest non-empty name wins within the batch.
	if name != "" && (o.name == "" || !at.Before(o.nameAt)) {
		o.name = name
		o.nameAt = at
	}
}

// collectActorObservations scans income rows for buyer, recipient, and
// reseller ids. Reseller ids that do not parse as integers are dropped;
// source data uses non-numeric placeholders there.
func collectActorObservations(rows []model.RawIncomeRow) map[int64]*actorObservation {
	obs := make(map[int64]*actorObservation)
	record := func(id int64, name string, at time.Time) {
		if id == 0 {
			return
		}
		o, ok := obs[id]
		if !ok {
			o = &actorObservation{}
			obs[id] = o
		}
		o.observe(name, at)
	}
	for i := range rows {
		r := &rows[i]
		record(r.BuyerID, r.BuyerName, r.PurchaseDate)
		record(r.RecipientID, r.RecipientName, r.PurchaseDate)
		record(snapshot.ParseID(r.ResellerID), r.ResellerName, r.PurchaseDate)
	}
	return obs
}

// ensureActors upserts ImvuUser rows from a batch observation map. Without a
// resolved owning developer id no actor can be created on this path, so a
// zero developerID skips the whole map.
func (s *DataSyncService) ensureActors(ctx context.Context, tx *sqlx.Tx, obs map[int64]*actorObservation, developerID int64, snapshotDate time.Time) error {
	if developerID == 0 || len(obs) == 0 {
		return nil
	}

	ids := make([]int64, 0, len(obs))
	for id := range obs {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	existing, err := s.store.ImvuUsersByIDs(ctx, tx, ids)
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	var inserts []model.ImvuUser
	for _, id := range ids {
		o := obs[id]
		minSeen, maxSeen := o.minSeen, o.maxSeen
		if minSeen.IsZero() {
			minSeen = snapshotDate
		}
		if maxSeen.IsZero() {
			maxSeen = snapshotDate
		}

		u, ok := existing[id]
		if !ok {
			nu := model.ImvuUser{
				UserID:          id,
				FirstSeenAt:     minSeen,
				LastSeenAt:      maxSeen,
				DeveloperUserID: developerID,
				CreatedAt:       now,
			}
			if o.name != "" {
				name := o.name
				nu.UserName = &name
			}
			inserts = append(inserts, nu)
			continue
		}

		changed := false
		if minSeen.Before(u.FirstSeenAt) {
			u.FirstSeenAt = minSeen
			changed = true
		}
		// Name updates ride the last-seen advance so a re-imported older
		// snapshot never clobbers a newer display name.
		if maxSeen.After(u.LastSeenAt) {
			u.LastSeenAt = maxSeen
			if o.name != "" {
				name := o.name
				u.UserName = &name
			}
			changed = true
		}
		if u.DeveloperUserID == 0 {
			u.DeveloperUserID = developerID
			changed = true
		}
		if changed {
			if err := s.store.UpdateImvuUser(ctx, tx, u); err != nil {
				return err
			}
		}
	}
	return s.store.InsertImvuUsers(ctx, tx, inserts)
}
