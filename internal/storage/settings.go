package storage

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/backmassage/renamebot/internal/caption"
	"github.com/backmassage/renamebot/internal/naming"
	"github.com/backmassage/renamebot/internal/rename"
	"github.com/backmassage/renamebot/internal/thumbnail"
)

// UserSettings is everything stored about one user's preferences, plus the
// counters shown on the settings screen.
type UserSettings struct {
	UserID         int64
	Mode           rename.Mode
	Template       string
	Rules          naming.ReplacementRules
	CaptionStyle   caption.Style
	ThumbnailMode  thumbnail.Mode
	BannerPosition caption.Position
	BannerLink     string

	PremiumUntil   time.Time // zero when never premium
	FilesProcessed int
	FilesToday     int
}

// Rename returns the subset that drives name generation.
func (u UserSettings) Rename() rename.Settings {
	return rename.Settings{Mode: u.Mode, Template: u.Template, Rules: u.Rules}
}

// Settings loads the settings of userID. It returns ErrNotFound for unknown
// users. Unparseable stored values fall back to defaults.
func (s *Store) Settings(ctx context.Context, userID int64) (UserSettings, error) {
	us := UserSettings{UserID: userID}
	var (
		mode, rules, style, thumb, banner string
		premiumUntil                      int64
		lastDate                          string
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT us.rename_mode, us.template, us.replace_rules, us.caption_mode,
		       us.thumbnail_mode, us.banner_position, us.banner_link,
		       u.premium_until, u.files_processed,
		       COALESCE(a.files_today, 0), COALESCE(a.last_file_date, '')
		FROM user_settings us
		JOIN users u ON u.user_id = us.user_id
		LEFT JOIN user_analytics a ON a.user_id = us.user_id
		WHERE us.user_id = ?`, userID).Scan(
		&mode, &us.Template, &rules, &style, &thumb, &banner, &us.BannerLink,
		&premiumUntil, &us.FilesProcessed, &us.FilesToday, &lastDate)
	if errors.Is(err, sql.ErrNoRows) {
		return UserSettings{}, ErrNotFound
	}
	if err != nil {
		return UserSettings{}, fmt.Errorf("load settings %d: %w", userID, err)
	}

	if us.Mode, err = rename.ParseMode(mode); err != nil {
		us.Mode = rename.ModeAutorename
	}
	if us.CaptionStyle, err = caption.ParseStyle(style); err != nil {
		us.CaptionStyle = caption.Normal
	}
	if us.ThumbnailMode, err = thumbnail.ParseMode(thumb); err != nil {
		us.ThumbnailMode = thumbnail.ModeNormal
	}
	if us.BannerPosition, err = caption.ParsePosition(banner); err != nil {
		us.BannerPosition = caption.BannerDisabled
	}
	if err := json.Unmarshal([]byte(rules), &us.Rules); err != nil || len(us.Rules) == 0 {
		us.Rules = nil
	}
	if premiumUntil > 0 {
		us.PremiumUntil = time.Unix(premiumUntil, 0)
	}
	if lastDate != s.today() {
		us.FilesToday = 0
	}
	return us, nil
}

func (s *Store) today() string { return s.now().Format("2006-01-02") }

// setColumn updates one user_settings column. column is never user input.
func (s *Store) setColumn(ctx context.Context, userID int64, column string, value any) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE user_settings SET `+column+` = ? WHERE user_id = ?`, value, userID)
	if err != nil {
		return fmt.Errorf("set %s for %d: %w", column, userID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrNotFound
	}
	return nil
}

func (s *Store) SetRenameMode(ctx context.Context, userID int64, m rename.Mode) error {
	return s.setColumn(ctx, userID, "rename_mode", string(m))
}

func (s *Store) SetTemplate(ctx context.Context, userID int64, tmpl string) error {
	return s.setColumn(ctx, userID, "template", tmpl)
}

func (s *Store) SetCaptionStyle(ctx context.Context, userID int64, st caption.Style) error {
	return s.setColumn(ctx, userID, "caption_mode", string(st))
}

func (s *Store) SetThumbnailMode(ctx context.Context, userID int64, m thumbnail.Mode) error {
	return s.setColumn(ctx, userID, "thumbnail_mode", string(m))
}

// SetBanner stores the banner position and, when link is non-empty, the
// banner link.
func (s *Store) SetBanner(ctx context.Context, userID int64, pos caption.Position, link string) error {
	if err := s.setColumn(ctx, userID, "banner_position", string(pos)); err != nil {
		return err
	}
	if link == "" {
		return nil
	}
	return s.setColumn(ctx, userID, "banner_link", link)
}

// updateRules applies fn to the stored rule list inside one transaction.
func (s *Store) updateRules(ctx context.Context, userID int64, fn func(naming.ReplacementRules) naming.ReplacementRules) error {
	return s.withTx(ctx, func(tx *sql.Tx) error {
		var raw string
		err := tx.QueryRowContext(ctx,
			`SELECT replace_rules FROM user_settings WHERE user_id = ?`, userID).Scan(&raw)
		if errors.Is(err, sql.ErrNoRows) {
			return ErrNotFound
		}
		if err != nil {
			return err
		}
		var rules naming.ReplacementRules
		if err := json.Unmarshal([]byte(raw), &rules); err != nil {
			rules = nil
		}
		rules = fn(rules)
		if rules == nil {
			rules = naming.ReplacementRules{}
		}
		out, err := json.Marshal(rules)
		if err != nil {
			return err
		}
		_, err = tx.ExecContext(ctx,
			`UPDATE user_settings SET replace_rules = ? WHERE user_id = ?`, string(out), userID)
		return err
	})
}

// SetReplaceRule adds or updates the rule for old. An existing rule keeps its
// position in the list.
func (s *Store) SetReplaceRule(ctx context.Context, userID int64, old, with string) error {
	return s.updateRules(ctx, userID, func(rs naming.ReplacementRules) naming.ReplacementRules {
		return rs.Set(old, with)
	})
}

func (s *Store) RemoveReplaceRule(ctx context.Context, userID int64, old string) error {
	return s.updateRules(ctx, userID, func(rs naming.ReplacementRules) naming.ReplacementRules {
		return rs.Remove(old)
	})
}

func (s *Store) ClearReplaceRules(ctx context.Context, userID int64) error {
	return s.updateRules(ctx, userID, func(naming.ReplacementRules) naming.ReplacementRules {
		return nil
	})
}

// SetThumbnail stores a chat-platform file id for slot.
func (s *Store) SetThumbnail(ctx context.Context, userID int64, slot, fileID string) error {
	_, err := s.db.ExecContext(ctx, `
		INSERT INTO thumbnails (user_id, slot, file_id) VALUES (?, ?, ?)
		ON CONFLICT (user_id, slot) DO UPDATE SET file_id = excluded.file_id`,
		userID, slot, fileID)
	if err != nil {
		return fmt.Errorf("set thumbnail %d/%s: %w", userID, slot, err)
	}
	return nil
}

// Thumbnail returns the file id stored for slot, falling back to the
// default slot. ErrNotFound when neither exists.
func (s *Store) Thumbnail(ctx context.Context, userID int64, slot string) (string, error) {
	var fileID string
	err := s.db.QueryRowContext(ctx, `
		SELECT file_id FROM thumbnails
		WHERE user_id = ? AND slot IN (?, ?)
		ORDER BY slot = ? DESC LIMIT 1`,
		userID, slot, thumbnail.DefaultSlot, slot).Scan(&fileID)
	if errors.Is(err, sql.ErrNoRows) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("load thumbnail %d/%s: %w", userID, slot, err)
	}
	return fileID, nil
}

// DeleteThumbnail removes slot, or every slot when slot is "". It returns the
// number of thumbnails removed.
func (s *Store) DeleteThumbnail(ctx context.Context, userID int64, slot string) (int, error) {
	q := `DELETE FROM thumbnails WHERE user_id = ?`
	args := []any{userID}
	if slot != "" {
		q += ` AND slot = ?`
		args = append(args, slot)
	}
	res, err := s.db.ExecContext(ctx, q, args...)
	if err != nil {
		return 0, fmt.Errorf("delete thumbnail %d: %w", userID, err)
	}
	n, _ := res.RowsAffected()
	return int(n), nil
}
