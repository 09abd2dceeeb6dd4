package bot

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"

	"github.com/backmassage/renamebot/internal/caption"
	"github.com/backmassage/renamebot/internal/display"
	"github.com/backmassage/renamebot/internal/naming"
	"github.com/backmassage/renamebot/internal/rename"
	"github.com/backmassage/renamebot/internal/storage"
	"github.com/backmassage/renamebot/internal/thumbnail"
)

// maxThumbBytes caps a stored thumbnail download.
const maxThumbBytes = 10 << 20

// upload is the part of a document, video or audio message the handler
// needs.
type upload struct {
	rename.FileDescriptor
	video bool
}

func uploadOf(msg *tgbotapi.Message) (upload, bool) {
	switch {
	case msg.Document != nil:
		d := msg.Document
		return upload{
			FileDescriptor: rename.FileDescriptor{Name: d.FileName, Size: int64(d.FileSize), UniqueID: d.FileUniqueID, Source: d.FileID},
			video:          strings.HasPrefix(d.MimeType, "video/"),
		}, true
	case msg.Video != nil:
		v := msg.Video
		return upload{
			FileDescriptor: rename.FileDescriptor{Name: v.FileName, Size: int64(v.FileSize), UniqueID: v.FileUniqueID, Source: v.FileID},
			video:          true,
		}, true
	case msg.Audio != nil:
		a := msg.Audio
		return upload{
			FileDescriptor: rename.FileDescriptor{Name: a.FileName, Size: int64(a.FileSize), UniqueID: a.FileUniqueID, Source: a.FileID},
		}, true
	}
	return upload{}, false
}

// handleFile renames an uploaded file and sends it back as a document with
// the user's caption style, banner and thumbnail.
func (b *Bot) handleFile(ctx context.Context, msg *tgbotapi.Message) {
	chatID, uid := msg.Chat.ID, msg.From.ID
	up, ok := uploadOf(msg)
	if !ok {
		return
	}
	if b.cfg.MaxFileSize > 0 && up.Size > b.cfg.MaxFileSize {
		b.reply(ctx, chatID, fmt.Sprintf("❌ File too large. Maximum size is %s.", display.FormatBytes(b.cfg.MaxFileSize)), nil)
		return
	}

	premium, _, err := b.store.IsPremium(ctx, uid)
	if err != nil {
		b.fail(ctx, chatID, err)
		return
	}
	if !premium && !b.limiter.AllowUpload(uid) {
		b.reply(ctx, chatID, fmt.Sprintf("⏳ Upload limit reached (%d per hour). Try again later, or get premium with /refer.", b.cfg.UploadsPerHour), nil)
		return
	}

	us, err := b.store.Settings(ctx, uid)
	if err != nil {
		b.fail(ctx, chatID, err)
		return
	}

	status := b.reply(ctx, chatID, "⏳ Processing your file...", nil)
	res := b.renamer.Rename(ctx, b.userDir(uid), up.FileDescriptor, msg.Caption, us.Rename())
	if !res.Success {
		b.log.Error("Rename for %d failed: %s", uid, res.ErrorText())
		b.status(ctx, chatID, status, "❌ Error processing file: "+esc(res.ErrorText()))
		return
	}
	defer func() {
		if err := os.Remove(res.OutputPath); err != nil && !os.IsNotExist(err) {
			b.log.Warn("Could not remove %s: %v", res.OutputPath, err)
		}
	}()

	doc := tgbotapi.NewDocument(chatID, tgbotapi.FilePath(res.OutputPath))
	doc.Caption = caption.WithBanner(caption.Render(us.CaptionStyle, res.Filename, us.BannerLink), us.BannerLink, us.BannerPosition)
	doc.ParseMode = tgbotapi.ModeHTML
	if thumb := b.thumbFor(ctx, uid, us, up, res); thumb != nil {
		doc.Thumb = tgbotapi.FileBytes{Name: "thumb.jpg", Bytes: thumb}
	}
	if _, err := b.send(ctx, doc); err != nil {
		b.log.Error("Sending %s to %d failed: %v", res.Filename, uid, err)
		b.status(ctx, chatID, status, "❌ Could not send the renamed file, please try again.")
		return
	}

	if err := b.store.IncrementFilesProcessed(ctx, uid); err != nil {
		b.log.Warn("Counting file for %d: %v", uid, err)
	}
	if b.archiver != nil {
		if key, err := b.archiver.Archive(ctx, uid, res.OutputPath, res.Filename); err != nil {
			b.log.Warn("%v", err)
		} else {
			b.log.Debug(b.cfg.Verbose, "Archived %s", key)
		}
	}
	b.log.Success("%d: %s -> %s", uid, up.FallbackName(), res.Filename)
	b.status(ctx, chatID, status, fmt.Sprintf("✅ Renamed to <code>%s</code>", esc(res.Filename)))
}

// status edits the processing message, or sends a new one when the
// processing message was never delivered.
func (b *Bot) status(ctx context.Context, chatID int64, sent tgbotapi.Message, text string) {
	if sent.MessageID == 0 {
		b.reply(ctx, chatID, text, nil)
		return
	}
	b.edit(ctx, chatID, sent.MessageID, text, nil)
}

// thumbFor returns the stored thumbnail for the file's slot, a frame grabbed
// from the video, or nil.
func (b *Bot) thumbFor(ctx context.Context, uid int64, us storage.UserSettings, up upload, res rename.Result) []byte {
	slot := thumbnail.Slot(us.ThumbnailMode, naming.ExtractVariables(res.Filename))
	fileID, err := b.store.Thumbnail(ctx, uid, slot)
	if err != nil && !errors.Is(err, storage.ErrNotFound) {
		b.log.Warn("Thumbnail lookup for %d: %v", uid, err)
	}
	if fileID != "" {
		data, err := b.fetchThumb(ctx, fileID)
		if err == nil {
			return data
		}
		b.log.Warn("Stored thumbnail %s for %d: %v", slot, uid, err)
	}
	if !b.autoThumb || !up.video {
		return nil
	}
	data, err := thumbnail.FromVideo(ctx, b.frameOpts, res.OutputPath, b.cfg.TempDir)
	if err != nil {
		b.log.Debug(b.cfg.Verbose, "Frame grab for %s: %v", res.Filename, err)
		return nil
	}
	return data
}

func (b *Bot) fetchThumb(ctx context.Context, fileID string) ([]byte, error) {
	rc, err := b.fetcher.Fetch(ctx, fileID)
	if err != nil {
		return nil, err
	}
	defer rc.Close()
	data, err := io.ReadAll(io.LimitReader(rc, maxThumbBytes))
	if err != nil {
		return nil, err
	}
	return thumbnail.Normalize(data)
}
