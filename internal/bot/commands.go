package bot

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/backmassage/renamebot/internal/caption"
	"github.com/backmassage/renamebot/internal/display"
	"github.com/backmassage/renamebot/internal/naming"
	"github.com/backmassage/renamebot/internal/storage"
	"github.com/backmassage/renamebot/internal/thumbnail"
)

const (
	leaderboardSize = 10
	elitesSize      = 20
	refPrefix       = "ref_"
)

func (b *Bot) handleCommand(ctx context.Context, msg *tgbotapi.Message, created bool) {
	chatID, uid := msg.Chat.ID, msg.From.ID
	args := strings.TrimSpace(msg.CommandArguments())

	switch msg.Command() {
	case "start":
		b.cmdStart(ctx, msg, args, created)
	case "help":
		b.reply(ctx, chatID, helpText(b.cfg.MaxFileSize), kbPtr(backKeyboard()))
	case "settings":
		b.showSettings(ctx, chatID, uid, 0)
	case "autorename":
		b.cmdAutorename(ctx, chatID, uid, args)
	case "preview":
		b.cmdPreview(ctx, chatID, uid)
	case "mode":
		b.showMenu(ctx, chatID, uid, 0, menuMode)
	case "replace":
		b.cmdReplace(ctx, chatID, uid, args)
	case "delreplace":
		b.cmdDelReplace(ctx, chatID, uid, args)
	case "clearreplace":
		if err := b.store.ClearReplaceRules(ctx, uid); err != nil {
			b.fail(ctx, chatID, err)
			return
		}
		b.reply(ctx, chatID, "🗑 All replace rules removed.", nil)
	case "caption_mode":
		b.showMenu(ctx, chatID, uid, 0, menuCaption)
	case "thumbnail_mode":
		b.showMenu(ctx, chatID, uid, 0, menuThumbnail)
	case "delthumb":
		b.cmdDelThumb(ctx, chatID, uid, args)
	case "banner":
		b.cmdBanner(ctx, chatID, uid, args)
	case "leaderboard":
		b.cmdLeaderboard(ctx, chatID, false)
	case "top_referrals":
		b.cmdLeaderboard(ctx, chatID, true)
	case "refer":
		b.reply(ctx, chatID, referText(b.username, uid, b.cfg.ReferralBonus, b.cfg.ReferralPoints), nil)
	case "premium":
		b.cmdPremium(ctx, chatID, uid)
	case "elites":
		b.cmdElites(ctx, chatID)
	case "stats":
		b.cmdStats(ctx, chatID, uid)
	case "cancel":
		b.sessions.Clear(uid)
		b.reply(ctx, chatID, "Cancelled.", nil)
	default:
		b.reply(ctx, chatID, "Unknown command. Try /help.", nil)
	}
}

// fail logs err and tells the user something went wrong.
func (b *Bot) fail(ctx context.Context, chatID int64, err error) {
	b.log.Error("Chat %d: %v", chatID, err)
	b.reply(ctx, chatID, "❌ Something went wrong, please try again.", nil)
}

// cmdStart greets the user. A "ref_<id>" payload credits the referrer, but
// only for users seen for the first time.
func (b *Bot) cmdStart(ctx context.Context, msg *tgbotapi.Message, payload string, created bool) {
	uid := msg.From.ID
	if created {
		if referrer, ok := parseReferral(payload); ok {
			added, err := b.store.AddReferral(ctx, referrer, uid, b.cfg.ReferralBonus)
			switch {
			case err != nil:
				b.log.Warn("Referral %d -> %d: %v", referrer, uid, err)
			case added:
				b.log.Success("Referral %d -> %d", referrer, uid)
				b.reply(ctx, referrer, fmt.Sprintf("🎉 %s joined with your link! +%s premium.",
					esc(userOf(msg.From).DisplayName()), display.FormatRemaining(b.cfg.ReferralBonus)), nil)
			}
		}
	}
	b.reply(ctx, msg.Chat.ID, startText, kbPtr(mainMenuKeyboard()))
}

func parseReferral(payload string) (int64, bool) {
	s, ok := strings.CutPrefix(payload, refPrefix)
	if !ok {
		return 0, false
	}
	id, err := strconv.ParseInt(s, 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

func (b *Bot) cmdAutorename(ctx context.Context, chatID, uid int64, tmpl string) {
	if tmpl == "" {
		b.sessions.Expect(uid, storage.PendingTemplate)
		b.reply(ctx, chatID, templatePrompt, kbPtr(backKeyboard()))
		return
	}
	b.setTemplate(ctx, chatID, uid, tmpl)
}

const templatePrompt = `🔧 <b>Auto-Rename Template</b>

Send your template now, for example:
<code>S{season} E{episode} - {title} [{audio}] {quality}</code>

/preview shows the result with sample values.`

// setTemplate validates and stores tmpl, switching to autorename mode.
func (b *Bot) setTemplate(ctx context.Context, chatID, uid int64, tmpl string) {
	if _, err := naming.ValidateTemplate(tmpl); err != nil {
		b.reply(ctx, chatID, templateErrorText(err), nil)
		return
	}
	if err := b.store.SetTemplate(ctx, uid, tmpl); err != nil {
		b.fail(ctx, chatID, err)
		return
	}
	text := fmt.Sprintf("✅ <b>Template saved</b>\n\n<code>%s</code>\n<b>Preview:</b> <code>%s</code>",
		esc(tmpl), esc(naming.PreviewTemplate(tmpl)))
	text += unknownVariablesText(naming.UnknownVariables(tmpl))
	b.reply(ctx, chatID, text, nil)
}

func (b *Bot) cmdPreview(ctx context.Context, chatID, uid int64) {
	us, err := b.store.Settings(ctx, uid)
	if err != nil {
		b.fail(ctx, chatID, err)
		return
	}
	if us.Template == "" {
		b.reply(ctx, chatID, "❌ No template set. Use /autorename to create one first.", kbPtr(backKeyboard()))
		return
	}
	b.reply(ctx, chatID, fmt.Sprintf("🔍 <b>Template Preview</b>\n\n<b>Template:</b> <code>%s</code>\n<b>Preview:</b> <code>%s</code>",
		esc(us.Template), esc(naming.PreviewTemplate(us.Template))), nil)
}

func (b *Bot) cmdReplace(ctx context.Context, chatID, uid int64, args string) {
	if args == "" {
		us, err := b.store.Settings(ctx, uid)
		if err != nil {
			b.fail(ctx, chatID, err)
			return
		}
		b.sessions.Expect(uid, storage.PendingReplaceRule)
		b.reply(ctx, chatID, rulesText(us.Rules), nil)
		return
	}
	b.addRule(ctx, chatID, uid, args)
}

func (b *Bot) addRule(ctx context.Context, chatID, uid int64, text string) {
	rule, err := naming.ParseReplacementRule(text)
	if err != nil {
		b.reply(ctx, chatID, "❌ "+esc(err.Error()), nil)
		return
	}
	if err := b.store.SetReplaceRule(ctx, uid, rule.Old, rule.New); err != nil {
		b.fail(ctx, chatID, err)
		return
	}
	b.reply(ctx, chatID, fmt.Sprintf("✅ <b>Replace rule set</b>\n\n<b>Replace:</b> <code>%s</code>\n<b>With:</b> <code>%s</code>",
		esc(rule.Old), esc(rule.New)), nil)
}

// cmdDelReplace removes the rule whose search text is old and shows what
// is left.
func (b *Bot) cmdDelReplace(ctx context.Context, chatID, uid int64, old string) {
	if old == "" {
		b.reply(ctx, chatID, "Usage: <code>/delreplace old_text</code>", nil)
		return
	}
	us, err := b.store.Settings(ctx, uid)
	if err != nil {
		b.fail(ctx, chatID, err)
		return
	}
	if len(us.Rules.Remove(old)) == len(us.Rules) {
		b.reply(ctx, chatID, fmt.Sprintf("❌ No rule replaces <code>%s</code>.", esc(old)), nil)
		return
	}
	if err := b.store.RemoveReplaceRule(ctx, uid, old); err != nil {
		b.fail(ctx, chatID, err)
		return
	}
	b.reply(ctx, chatID, rulesText(us.Rules.Remove(old)), nil)
}

// cmdDelThumb deletes one slot, or every slot when no argument is given.
func (b *Bot) cmdDelThumb(ctx context.Context, chatID, uid int64, slot string) {
	slot = strings.ToLower(slot)
	n, err := b.store.DeleteThumbnail(ctx, uid, slot)
	if err != nil {
		b.fail(ctx, chatID, err)
		return
	}
	switch {
	case n == 0:
		b.reply(ctx, chatID, "No thumbnail to delete.", nil)
	case slot == "":
		b.reply(ctx, chatID, fmt.Sprintf("🗑 Deleted %d thumbnail(s).", n), nil)
	default:
		b.reply(ctx, chatID, fmt.Sprintf("🗑 Deleted thumbnail <code>%s</code>.", esc(slot)), nil)
	}
}

// cmdBanner shows the banner panel; an argument sets the link.
func (b *Bot) cmdBanner(ctx context.Context, chatID, uid int64, link string) {
	if link != "" {
		b.setBannerLink(ctx, chatID, uid, link)
		return
	}
	b.showMenu(ctx, chatID, uid, 0, menuBanner)
}

func (b *Bot) setBannerLink(ctx context.Context, chatID, uid int64, link string) {
	if !strings.HasPrefix(link, "http://") && !strings.HasPrefix(link, "https://") && !strings.HasPrefix(link, "tg://") {
		b.reply(ctx, chatID, "❌ The banner link must start with http://, https:// or tg://", nil)
		return
	}
	us, err := b.store.Settings(ctx, uid)
	if err != nil {
		b.fail(ctx, chatID, err)
		return
	}
	pos := us.BannerPosition
	if pos == caption.BannerDisabled {
		pos = caption.BannerEnd
	}
	if err := b.store.SetBanner(ctx, uid, pos, link); err != nil {
		b.fail(ctx, chatID, err)
		return
	}
	us.BannerPosition, us.BannerLink = pos, link
	b.reply(ctx, chatID, bannerText(us), kbPtr(bannerKeyboard(pos)))
}

func (b *Bot) cmdLeaderboard(ctx context.Context, chatID int64, referrals bool) {
	var (
		rows []storage.Ranked
		err  error
	)
	if referrals {
		rows, err = b.store.TopReferrals(ctx, leaderboardSize)
	} else {
		rows, err = b.store.Leaderboard(ctx, leaderboardSize)
	}
	if err != nil {
		b.fail(ctx, chatID, err)
		return
	}
	if referrals {
		b.reply(ctx, chatID, rankingText("🎯 <b>Top Referrers</b>",
			"No referrals yet. Use /refer to start earning premium!", "referrals", rows), nil)
		return
	}
	b.reply(ctx, chatID, rankingText("🏆 <b>Top Renamers</b>",
		"No data yet. Start renaming files to appear here!", "files", rows), nil)
}

func (b *Bot) cmdPremium(ctx context.Context, chatID, uid int64) {
	active, until, err := b.store.IsPremium(ctx, uid)
	if err != nil {
		b.fail(ctx, chatID, err)
		return
	}
	b.reply(ctx, chatID, premiumText(active, until, b.now(), b.cfg.ReferralBonus), nil)
}

func (b *Bot) cmdElites(ctx context.Context, chatID int64) {
	users, err := b.store.PremiumUsers(ctx, elitesSize)
	if err != nil {
		b.fail(ctx, chatID, err)
		return
	}
	b.reply(ctx, chatID, elitesText(users), nil)
}

func (b *Bot) cmdStats(ctx context.Context, chatID, uid int64) {
	if !b.cfg.IsAdmin(uid) {
		b.reply(ctx, chatID, "❌ Access denied. Admin only command.", nil)
		return
	}
	t, err := b.store.TotalStats(ctx)
	if err != nil {
		b.fail(ctx, chatID, err)
		return
	}
	b.reply(ctx, chatID, statsText(t, b.sessions.Len(), b.limiter.Len()), nil)
}

// handleText answers a pending prompt, if any.
func (b *Bot) handleText(ctx context.Context, msg *tgbotapi.Message) {
	chatID, uid := msg.Chat.ID, msg.From.ID
	text := strings.TrimSpace(msg.Text)
	switch b.sessions.Take(uid) {
	case storage.PendingTemplate:
		b.setTemplate(ctx, chatID, uid, text)
	case storage.PendingReplaceRule:
		b.addRule(ctx, chatID, uid, text)
	case storage.PendingBannerLink:
		b.setBannerLink(ctx, chatID, uid, text)
	default:
		b.reply(ctx, chatID, "📁 Send me a file to rename, or /help for commands.", nil)
	}
}

// handlePhoto stores the photo as a thumbnail. The caption may name a slot
// ("s02", "720p"); otherwise the default slot is used.
func (b *Bot) handlePhoto(ctx context.Context, msg *tgbotapi.Message) {
	chatID, uid := msg.Chat.ID, msg.From.ID
	slot, err := photoSlot(msg.Caption)
	if err != nil {
		b.reply(ctx, chatID, "❌ "+esc(err.Error()), nil)
		return
	}
	photo := msg.Photo[len(msg.Photo)-1] // largest size
	if err := b.store.SetThumbnail(ctx, uid, slot, photo.FileID); err != nil {
		b.fail(ctx, chatID, err)
		return
	}
	b.reply(ctx, chatID, fmt.Sprintf("🖼 Thumbnail saved for <code>%s</code>.", esc(slot)), nil)
}

var errBadSlot = errors.New("unknown thumbnail slot (use s01-s10, 144p-8000p, or leave the caption empty)")

func photoSlot(captionText string) (string, error) {
	s := strings.ToLower(strings.TrimSpace(captionText))
	if s == "" || s == thumbnail.DefaultSlot {
		return thumbnail.DefaultSlot, nil
	}
	for _, list := range [][]string{thumbnail.SeasonSlots, thumbnail.QualitySlots} {
		for _, slot := range list {
			if s == slot {
				return slot, nil
			}
		}
	}
	return "", errBadSlot
}
