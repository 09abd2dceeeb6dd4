package bot

import (
	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/backmassage/renamebot/internal/caption"
	"github.com/backmassage/renamebot/internal/rename"
	"github.com/backmassage/renamebot/internal/thumbnail"
)

// Callback data prefixes. Data is "<prefix><value>".
const (
	cbMode    = "mode_"
	cbCaption = "caption_"
	cbThumb   = "thumb_"
	cbBanner  = "banner_"
	cbMenu    = "menu_"
)

// Menu targets for cbMenu.
const (
	menuMain       = "main"
	menuSettings   = "settings"
	menuHelp       = "help"
	menuMode       = "mode"
	menuCaption    = "caption"
	menuThumbnail  = "thumbnail"
	menuBanner     = "banner"
	menuBannerLink = "bannerlink"
	menuTemplate   = "template"
	menuReplace    = "replace"
)

func button(text, data string) tgbotapi.InlineKeyboardButton {
	return tgbotapi.NewInlineKeyboardButtonData(text, data)
}

func backRow() []tgbotapi.InlineKeyboardButton {
	return tgbotapi.NewInlineKeyboardRow(button("🔙 Back", cbMenu+menuMain))
}

// checked marks the currently selected option.
func checked(label string, on bool) string {
	if on {
		return "✅ " + label
	}
	return label
}

func mainMenuKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			button("⚙️ Settings", cbMenu+menuSettings),
			button("❓ Help", cbMenu+menuHelp),
		),
		tgbotapi.NewInlineKeyboardRow(
			button("📝 Rename Mode", cbMenu+menuMode),
			button("🔧 Template", cbMenu+menuTemplate),
		),
	)
}

func settingsKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			button("📝 Rename Mode", cbMenu+menuMode),
			button("🔧 Template", cbMenu+menuTemplate),
		),
		tgbotapi.NewInlineKeyboardRow(
			button("🔄 Replace Rules", cbMenu+menuReplace),
			button("💬 Caption", cbMenu+menuCaption),
		),
		tgbotapi.NewInlineKeyboardRow(
			button("📷 Thumbnail", cbMenu+menuThumbnail),
			button("🎨 Banner", cbMenu+menuBanner),
		),
		backRow(),
	)
}

func modeKeyboard(current rename.Mode) tgbotapi.InlineKeyboardMarkup {
	var row []tgbotapi.InlineKeyboardButton
	for _, m := range rename.Modes {
		row = append(row, button(checked(m.Title(), m == current), cbMode+string(m)))
	}
	return tgbotapi.NewInlineKeyboardMarkup(row, backRow())
}

// captionKeyboard lays the styles out three per row.
func captionKeyboard(current caption.Style) tgbotapi.InlineKeyboardMarkup {
	var rows [][]tgbotapi.InlineKeyboardButton
	var row []tgbotapi.InlineKeyboardButton
	for _, st := range caption.Styles {
		row = append(row, button(checked(string(st), st == current), cbCaption+string(st)))
		if len(row) == 3 {
			rows = append(rows, row)
			row = nil
		}
	}
	if len(row) > 0 {
		rows = append(rows, row)
	}
	rows = append(rows, backRow())
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func thumbnailKeyboard(current thumbnail.Mode) tgbotapi.InlineKeyboardMarkup {
	var row []tgbotapi.InlineKeyboardButton
	for _, m := range thumbnail.Modes {
		row = append(row, button(checked(titleCase(string(m)), m == current), cbThumb+string(m)))
	}
	return tgbotapi.NewInlineKeyboardMarkup(row, backRow())
}

func bannerKeyboard(current caption.Position) tgbotapi.InlineKeyboardMarkup {
	var row []tgbotapi.InlineKeyboardButton
	for _, p := range caption.Positions {
		row = append(row, button(checked(string(p), p == current), cbBanner+string(p)))
	}
	return tgbotapi.NewInlineKeyboardMarkup(
		row,
		tgbotapi.NewInlineKeyboardRow(button("🔗 Set Link", cbMenu+menuBannerLink)),
		backRow(),
	)
}

func backKeyboard() tgbotapi.InlineKeyboardMarkup {
	return tgbotapi.NewInlineKeyboardMarkup(backRow())
}
