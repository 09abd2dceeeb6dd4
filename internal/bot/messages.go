package bot

import (
	"errors"
	"fmt"
	"strings"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/backmassage/renamebot/internal/caption"
	"github.com/backmassage/renamebot/internal/display"
	"github.com/backmassage/renamebot/internal/naming"
	"github.com/backmassage/renamebot/internal/storage"
)

func esc(s string) string { return tgbotapi.EscapeText(tgbotapi.ModeHTML, s) }

func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

const startText = `👋 <b>Welcome to the Rename Bot!</b>

Send me any document, video or audio file and I will send it back with a new name.

• /autorename sets your naming template
• /mode switches between auto, manual and replace
• /settings shows everything you have configured`

func helpText(maxSize int64) string {
	var b strings.Builder
	b.WriteString("📖 <b>How it works</b>\n\n")
	b.WriteString("<b>Auto Rename</b> fills your template from the original filename.\n")
	b.WriteString("<b>Manual</b> uses the caption you send with the file.\n")
	b.WriteString("<b>Replace</b> keeps the name and applies your replace rules.\n\n")
	b.WriteString("<b>Template variables</b>\n")
	for _, v := range naming.KnownVariables {
		fmt.Fprintf(&b, "<code>{%s}</code> ", v)
	}
	b.WriteString("\n\n<b>Commands</b>\n")
	b.WriteString("/autorename <code>template</code> · /preview · /mode\n")
	b.WriteString("/replace <code>old | new</code> · /delreplace <code>old</code> · /clearreplace\n")
	b.WriteString("/caption_mode · /thumbnail_mode · /delthumb · /banner\n")
	b.WriteString("/leaderboard · /top_referrals · /refer · /premium · /elites\n\n")
	fmt.Fprintf(&b, "Files up to %s. Send a photo to set your thumbnail.", display.FormatBytes(maxSize))
	return b.String()
}

func orNone(s string) string {
	if s == "" {
		return "<i>not set</i>"
	}
	return "<code>" + esc(s) + "</code>"
}

func settingsText(us storage.UserSettings, now time.Time) string {
	var b strings.Builder
	b.WriteString("⚙️ <b>Your Settings</b>\n\n")
	fmt.Fprintf(&b, "<b>Rename Mode:</b> %s\n", us.Mode.Title())
	fmt.Fprintf(&b, "<b>Template:</b> %s\n", orNone(us.Template))
	fmt.Fprintf(&b, "<b>Replace Rules:</b> %d\n", len(us.Rules))
	fmt.Fprintf(&b, "<b>Caption Mode:</b> %s\n", esc(string(us.CaptionStyle)))
	fmt.Fprintf(&b, "<b>Thumbnail Mode:</b> %s\n", titleCase(string(us.ThumbnailMode)))
	if us.BannerPosition == caption.BannerDisabled || us.BannerLink == "" {
		b.WriteString("<b>Banner:</b> Disabled\n")
	} else {
		fmt.Fprintf(&b, "<b>Banner:</b> %s (%s)\n", us.BannerPosition, esc(us.BannerLink))
	}
	if us.PremiumUntil.After(now) {
		fmt.Fprintf(&b, "<b>Premium:</b> Active, %s left\n", display.FormatRemaining(us.PremiumUntil.Sub(now)))
	} else {
		b.WriteString("<b>Premium:</b> Free\n")
	}
	fmt.Fprintf(&b, "<b>Files renamed:</b> %s (%d today)", display.FormatCount(us.FilesProcessed), us.FilesToday)
	return b.String()
}

func rulesText(rules naming.ReplacementRules) string {
	if len(rules) == 0 {
		return "🔄 <b>Replace Rules</b>\n\nNo rules yet.\n\nUsage: <code>/replace old_text | new_text</code>\nor send a rule now."
	}
	var b strings.Builder
	b.WriteString("🔄 <b>Replace Rules</b> (applied in order)\n\n")
	for i, r := range rules {
		with := r.New
		if with == "" {
			with = "∅"
		}
		fmt.Fprintf(&b, "%d. <code>%s</code> → <code>%s</code>\n", i+1, esc(r.Old), esc(with))
	}
	b.WriteString("\nSend another rule, /delreplace <code>old</code> to drop one, or /clearreplace to remove all.")
	return b.String()
}

func medal(i int) string {
	switch i {
	case 1:
		return "🥇"
	case 2:
		return "🥈"
	case 3:
		return "🥉"
	}
	return fmt.Sprintf("%d.", i)
}

// rankingText renders a leaderboard; unit is "files" or "referrals".
func rankingText(title, empty, unit string, rows []storage.Ranked) string {
	if len(rows) == 0 {
		return title + "\n\n" + empty
	}
	var b strings.Builder
	b.WriteString(title + "\n\n")
	for i, r := range rows {
		fmt.Fprintf(&b, "%s %s: %s %s\n", medal(i+1), esc(r.Name), display.FormatCount(r.Count), unit)
	}
	return strings.TrimRight(b.String(), "\n")
}

func referText(username string, userID int64, bonus time.Duration, points int) string {
	link := fmt.Sprintf("https://t.me/%s?start=ref_%d", username, userID)
	return fmt.Sprintf(`🎁 <b>Refer Friends &amp; Earn Premium</b>

<b>Your referral link:</b>
<code>%s</code>

• +%s premium per referral
• +%d points per new user`, esc(link), display.FormatRemaining(bonus), points)
}

func premiumText(active bool, until, now time.Time, bonus time.Duration) string {
	if active {
		return fmt.Sprintf("💎 <b>Premium: Active</b>\n\n<b>Valid until:</b> %s\n<b>Remaining:</b> %s\n<b>Tier:</b> %s\n\nUploads are not rate limited while premium is active.",
			until.UTC().Format("2006-01-02 15:04 UTC"),
			display.FormatRemaining(until.Sub(now)),
			titleCase(string(storage.TierFor(until, now))))
	}
	return fmt.Sprintf("💎 <b>Premium</b>\n\nPremium users are not limited by the hourly upload quota.\n\nEach friend who joins through your /refer link adds %s.",
		display.FormatRemaining(bonus))
}

func elitesText(users []storage.PremiumUser) string {
	if len(users) == 0 {
		return "👑 <b>Elite Premium Users</b>\n\nNo premium users yet. Be the first!"
	}
	var b strings.Builder
	b.WriteString("👑 <b>Elite Premium Members</b>\n\n")
	for _, u := range users {
		icon := "⭐"
		switch u.Tier {
		case storage.TierLifetime:
			icon = "👑"
		case storage.TierYearly:
			icon = "💎"
		}
		fmt.Fprintf(&b, "%s %s (%s)\n", icon, esc(u.Name), titleCase(string(u.Tier)))
	}
	return strings.TrimRight(b.String(), "\n")
}

func statsText(t storage.Totals, sessions, limited int) string {
	return fmt.Sprintf(`📊 <b>Bot Statistics</b>

<b>Users:</b> %s
<b>Files renamed:</b> %s
<b>Premium users:</b> %s
<b>Referrals:</b> %s
<b>Open sessions:</b> %d
<b>Rate-limited users tracked:</b> %d`,
		display.FormatCount(t.Users), display.FormatCount(t.Files),
		display.FormatCount(t.Premium), display.FormatCount(t.Referrals),
		sessions, limited)
}

func bannerText(us storage.UserSettings) string {
	return fmt.Sprintf("🎨 <b>Banner Control Panel</b>\n\n<b>Position:</b> %s\n<b>Link:</b> %s\n\nThe link is added to the caption of every renamed file.",
		us.BannerPosition, orNone(us.BannerLink))
}

// templateErrorText explains a rejected template and, for an invalid name,
// suggests the closest known variable.
func templateErrorText(err error) string {
	msg := "❌ " + esc(err.Error())
	var te *naming.TemplateError
	if errors.As(err, &te) && te.Code == naming.CodeInvalidVariableName {
		if s, ok := naming.SuggestVariable(te.Name); ok {
			msg += fmt.Sprintf("\nDid you mean <code>{%s}</code>?", s)
		}
	}
	return msg
}

// unknownVariablesText warns about placeholders that will always render
// empty.
func unknownVariablesText(names []string) string {
	if len(names) == 0 {
		return ""
	}
	var b strings.Builder
	b.WriteString("\n\n⚠️ Unknown variables render empty:")
	for _, n := range names {
		fmt.Fprintf(&b, "\n• <code>{%s}</code>", esc(n))
		if s, ok := naming.SuggestVariable(n); ok {
			fmt.Fprintf(&b, " (did you mean <code>{%s}</code>?)", s)
		}
	}
	return b.String()
}
