package bot

import (
	"context"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/backmassage/renamebot/internal/caption"
	"github.com/backmassage/renamebot/internal/rename"
	"github.com/backmassage/renamebot/internal/storage"
	"github.com/backmassage/renamebot/internal/thumbnail"
)

func (b *Bot) handleCallback(ctx context.Context, cq *tgbotapi.CallbackQuery) {
	if cq.From == nil || cq.Message == nil {
		return
	}
	uid := cq.From.ID
	if _, err := b.store.EnsureUser(ctx, userOf(cq.From)); err != nil {
		b.log.Error("User %d: %v", uid, err)
		b.request(ctx, tgbotapi.NewCallback(cq.ID, "Something went wrong"))
		return
	}
	if !b.limiter.AllowRequest(uid) {
		b.request(ctx, tgbotapi.NewCallback(cq.ID, "⏳ Too many requests"))
		return
	}
	b.request(ctx, tgbotapi.NewCallback(cq.ID, ""))
	b.log.Debug(b.cfg.Verbose, "%d pressed %s", uid, cq.Data)

	chatID, msgID := cq.Message.Chat.ID, cq.Message.MessageID
	if err := b.applyChoice(ctx, uid, cq.Data); err != nil {
		b.log.Warn("Callback %q from %d: %v", cq.Data, uid, err)
		b.edit(ctx, chatID, msgID, "❌ "+esc(err.Error()), kbPtr(backKeyboard()))
		return
	}

	prefix, value := splitData(cq.Data)
	target := value
	switch prefix {
	case cbMode:
		target = menuMode
	case cbCaption:
		target = menuCaption
	case cbThumb:
		target = menuThumbnail
	case cbBanner:
		target = menuBanner
	case cbMenu:
	default:
		return
	}
	b.showMenu(ctx, chatID, uid, msgID, target)
}

// splitData separates a callback prefix from its value.
func splitData(data string) (prefix, value string) {
	for _, p := range []string{cbMode, cbCaption, cbThumb, cbBanner, cbMenu} {
		if v, ok := strings.CutPrefix(data, p); ok {
			return p, v
		}
	}
	return "", data
}

// applyChoice stores a setting picked from a keyboard. Menu navigation has
// nothing to store.
func (b *Bot) applyChoice(ctx context.Context, uid int64, data string) error {
	prefix, value := splitData(data)
	switch prefix {
	case cbMode:
		m, err := rename.ParseMode(value)
		if err != nil {
			return err
		}
		return b.store.SetRenameMode(ctx, uid, m)
	case cbCaption:
		st, err := caption.ParseStyle(value)
		if err != nil {
			return err
		}
		return b.store.SetCaptionStyle(ctx, uid, st)
	case cbThumb:
		m, err := thumbnail.ParseMode(value)
		if err != nil {
			return err
		}
		return b.store.SetThumbnailMode(ctx, uid, m)
	case cbBanner:
		pos, err := caption.ParsePosition(value)
		if err != nil {
			return err
		}
		us, err := b.store.Settings(ctx, uid)
		if err != nil {
			return err
		}
		return b.store.SetBanner(ctx, uid, pos, us.BannerLink)
	}
	return nil
}

func (b *Bot) showSettings(ctx context.Context, chatID, uid int64, msgID int) {
	b.showMenu(ctx, chatID, uid, msgID, menuSettings)
}

// showMenu renders a menu screen. With msgID 0 it is sent as a new message,
// otherwise the existing message is edited in place.
func (b *Bot) showMenu(ctx context.Context, chatID, uid int64, msgID int, target string) {
	us, err := b.store.Settings(ctx, uid)
	if err != nil {
		b.fail(ctx, chatID, err)
		return
	}

	var (
		text string
		kb   tgbotapi.InlineKeyboardMarkup
	)
	switch target {
	case menuSettings:
		text, kb = settingsText(us, b.now()), settingsKeyboard()
	case menuHelp:
		text, kb = helpText(b.cfg.MaxFileSize), backKeyboard()
	case menuMode:
		text = "📝 <b>Rename Mode</b>\n\nCurrent: <b>" + us.Mode.Title() + "</b>"
		kb = modeKeyboard(us.Mode)
	case menuCaption:
		text = "💬 <b>Caption Mode</b>\n\nCurrent: <b>" + esc(string(us.CaptionStyle)) + "</b>"
		kb = captionKeyboard(us.CaptionStyle)
	case menuThumbnail:
		text = "📷 <b>Thumbnail Mode</b>\n\nCurrent: <b>" + titleCase(string(us.ThumbnailMode)) +
			"</b>\n\nSend a photo to store a thumbnail. Put a slot such as <code>s02</code> or <code>720p</code> in its caption for season or quality mode."
		kb = thumbnailKeyboard(us.ThumbnailMode)
	case menuBanner:
		text, kb = bannerText(us), bannerKeyboard(us.BannerPosition)
	case menuBannerLink:
		b.sessions.Expect(uid, storage.PendingBannerLink)
		text, kb = "🔗 Send the link to show in your captions.", backKeyboard()
	case menuTemplate:
		b.sessions.Expect(uid, storage.PendingTemplate)
		text, kb = templatePrompt, backKeyboard()
	case menuReplace:
		b.sessions.Expect(uid, storage.PendingReplaceRule)
		text, kb = rulesText(us.Rules), backKeyboard()
	default:
		b.sessions.Clear(uid)
		text, kb = startText, mainMenuKeyboard()
	}

	if msgID == 0 {
		b.reply(ctx, chatID, text, &kb)
		return
	}
	b.edit(ctx, chatID, msgID, text, &kb)
}
