package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"
)

// IncrementFilesProcessed bumps the lifetime and daily counters of userID.
// The daily counter restarts on the first file of a new local day.
func (s *Store) IncrementFilesProcessed(ctx context.Context, userID int64) error {
	now := s.now()
	today := now.Format("2006-01-02")
	return s.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx,
			`UPDATE users SET files_processed = files_processed + 1, last_active = ? WHERE user_id = ?`,
			now.Unix(), userID)
		if err != nil {
			return err
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return ErrNotFound
		}
		_, err = tx.ExecContext(ctx, `
			UPDATE user_analytics
			SET total_files = total_files + 1,
			    files_today = CASE WHEN last_file_date = ? THEN files_today + 1 ELSE 1 END,
			    last_file_date = ?
			WHERE user_id = ?`, today, today, userID)
		return err
	})
}

// AddPremiumTime extends userID's premium by d, counting from now when the
// current premium has lapsed. It returns the new expiry.
func (s *Store) AddPremiumTime(ctx context.Context, userID int64, d time.Duration) (time.Time, error) {
	var until time.Time
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		var err error
		until, err = addPremium(ctx, tx, userID, d, s.now())
		return err
	})
	if err != nil {
		return time.Time{}, fmt.Errorf("add premium %d: %w", userID, err)
	}
	return until, nil
}

func addPremium(ctx context.Context, tx *sql.Tx, userID int64, d time.Duration, now time.Time) (time.Time, error) {
	var current int64
	err := tx.QueryRowContext(ctx,
		`SELECT premium_until FROM users WHERE user_id = ?`, userID).Scan(&current)
	if errors.Is(err, sql.ErrNoRows) {
		return time.Time{}, ErrNotFound
	}
	if err != nil {
		return time.Time{}, err
	}
	base := now
	if t := time.Unix(current, 0); current > 0 && t.After(now) {
		base = t
	}
	until := base.Add(d)
	_, err = tx.ExecContext(ctx,
		`UPDATE users SET premium_until = ? WHERE user_id = ?`, until.Unix(), userID)
	return until, err
}

// IsPremium reports whether userID has unexpired premium, and until when.
func (s *Store) IsPremium(ctx context.Context, userID int64) (bool, time.Time, error) {
	var until int64
	err := s.db.QueryRowContext(ctx,
		`SELECT premium_until FROM users WHERE user_id = ?`, userID).Scan(&until)
	if errors.Is(err, sql.ErrNoRows) {
		return false, time.Time{}, ErrNotFound
	}
	if err != nil {
		return false, time.Time{}, err
	}
	if until == 0 {
		return false, time.Time{}, nil
	}
	t := time.Unix(until, 0)
	return t.After(s.now()), t, nil
}

// AddReferral records that referrer invited referred and credits referrer
// with bonus premium time. It returns false without changes when the pair
// is already recorded or the user referred themselves.
func (s *Store) AddReferral(ctx context.Context, referrer, referred int64, bonus time.Duration) (bool, error) {
	if referrer == referred {
		return false, nil
	}
	added := false
	now := s.now()
	err := s.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx,
			`INSERT OR IGNORE INTO referrals (referrer_id, referred_id, created_at) VALUES (?, ?, ?)`,
			referrer, referred, now.Unix())
		if err != nil {
			return err
		}
		if n, _ := res.RowsAffected(); n == 0 {
			return nil
		}
		if _, err := tx.ExecContext(ctx,
			`UPDATE users SET referrals = referrals + 1 WHERE user_id = ?`, referrer); err != nil {
			return err
		}
		if bonus > 0 {
			if _, err := addPremium(ctx, tx, referrer, bonus, now); err != nil {
				return err
			}
		}
		added = true
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("add referral %d->%d: %w", referrer, referred, err)
	}
	return added, nil
}

// Ranked is one leaderboard row.
type Ranked struct {
	UserID int64
	Name   string
	Count  int
}

// Leaderboard returns users ordered by files processed, skipping users with
// none.
func (s *Store) Leaderboard(ctx context.Context, limit int) ([]Ranked, error) {
	return s.ranked(ctx, "files_processed", limit)
}

// TopReferrals returns users ordered by referral count, skipping users with
// none.
func (s *Store) TopReferrals(ctx context.Context, limit int) ([]Ranked, error) {
	return s.ranked(ctx, "referrals", limit)
}

func (s *Store) ranked(ctx context.Context, column string, limit int) ([]Ranked, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT user_id, first_name, username, `+column+`
		FROM users WHERE `+column+` > 0
		ORDER BY `+column+` DESC, user_id ASC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("rank by %s: %w", column, err)
	}
	defer rows.Close()

	var out []Ranked
	for rows.Next() {
		var u User
		var r Ranked
		if err := rows.Scan(&u.ID, &u.FirstName, &u.Username, &r.Count); err != nil {
			return nil, err
		}
		r.UserID, r.Name = u.ID, u.DisplayName()
		out = append(out, r)
	}
	return out, rows.Err()
}

// Tier classifies remaining premium time.
type Tier string

const (
	TierLifetime Tier = "lifetime" // more than 365 days left
	TierYearly   Tier = "yearly"   // more than 30 days left
	TierMonthly  Tier = "monthly"
)

// TierFor returns the tier of a premium that expires at until.
func TierFor(until, now time.Time) Tier {
	left := until.Sub(now)
	switch {
	case left > 365*24*time.Hour:
		return TierLifetime
	case left > 30*24*time.Hour:
		return TierYearly
	}
	return TierMonthly
}

// PremiumUser is one row of the premium list.
type PremiumUser struct {
	UserID int64
	Name   string
	Until  time.Time
	Tier   Tier
}

// PremiumUsers lists users with unexpired premium, longest first.
func (s *Store) PremiumUsers(ctx context.Context, limit int) ([]PremiumUser, error) {
	now := s.now()
	rows, err := s.db.QueryContext(ctx, `
		SELECT user_id, first_name, username, premium_until
		FROM users WHERE premium_until > ?
		ORDER BY premium_until DESC LIMIT ?`, now.Unix(), limit)
	if err != nil {
		return nil, fmt.Errorf("list premium users: %w", err)
	}
	defer rows.Close()

	var out []PremiumUser
	for rows.Next() {
		var u User
		var until int64
		if err := rows.Scan(&u.ID, &u.FirstName, &u.Username, &until); err != nil {
			return nil, err
		}
		t := time.Unix(until, 0)
		out = append(out, PremiumUser{UserID: u.ID, Name: u.DisplayName(), Until: t, Tier: TierFor(t, now)})
	}
	return out, rows.Err()
}

// Totals holds bot-wide counters.
type Totals struct {
	Users     int
	Files     int
	Premium   int
	Referrals int
}

// TotalStats sums counters over all users.
func (s *Store) TotalStats(ctx context.Context) (Totals, error) {
	var t Totals
	err := s.db.QueryRowContext(ctx, `
		SELECT COUNT(*),
		       COALESCE(SUM(files_processed), 0),
		       COUNT(CASE WHEN premium_until > ? THEN 1 END),
		       COALESCE(SUM(referrals), 0)
		FROM users`, s.now().Unix()).Scan(&t.Users, &t.Files, &t.Premium, &t.Referrals)
	if err != nil {
		return Totals{}, fmt.Errorf("total stats: %w", err)
	}
	return t, nil
}
