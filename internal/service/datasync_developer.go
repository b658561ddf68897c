package service

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"

	"imvu-insight-api/internal/model"
)

// ensureDeveloperAndActor guarantees that the snapshot's owning developer id
// exists both as a Developer row and as an ImvuUser row, and advances the
// day-granularity seen watermarks in both directions.
func (s *DataSyncService) ensureDeveloperAndActor(ctx context.Context, tx *sqlx.Tx, developerID int64, snapshotDate time.Time) error {
	if developerID == 0 {
		return nil
	}
	now := time.Now().UTC()

	devs, err := s.store.DevelopersByIDs(ctx, tx, []int64{developerID})
	if err != nil {
		return err
	}
	if dev, ok := devs[developerID]; ok {
		changed := false
		if snapshotDate.Before(dev.FirstSeenAt) {
			dev.FirstSeenAt = snapshotDate
			changed = true
		}
		if snapshotDate.After(dev.LastSeenAt) {
			dev.LastSeenAt = snapshotDate
			changed = true
		}
		if changed {
			if err := s.store.UpdateDeveloperSeen(ctx, tx, dev); err != nil {
				return err
			}
		}
	} else {
		err := s.store.InsertDevelopers(ctx, tx, []model.Developer{{
			DeveloperUserID: developerID,
			FirstSeenAt:     snapshotDate,
			LastSeenAt:      snapshotDate,
			CreatedAt:       now,
		}})
		if err != nil {
			return err
		}
	}

	users, err := s.store.ImvuUsersByIDs(ctx, tx, []int64{developerID})
	if err != nil {
		return err
	}
	if u, ok := users[developerID]; ok {
		changed := false
		if snapshotDate.Before(u.FirstSeenAt) {
			u.FirstSeenAt = snapshotDate
			changed = true
		}
		if snapshotDate.After(u.LastSeenAt) {
			u.LastSeenAt = snapshotDate
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
		return nil
	}
	return s.store.InsertImvuUsers(ctx, tx, []model.ImvuUser{{
		UserID:          developerID,
		FirstSeenAt:     snapshotDate,
		LastSeenAt:      snapshotDate,
		DeveloperUserID: developerID,
		CreatedAt:       now,
	}})
}
