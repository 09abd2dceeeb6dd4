package bot

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/backmassage/renamebot/internal/config"
	"github.com/backmassage/renamebot/internal/rename"
	"github.com/backmassage/renamebot/internal/storage"
)

// sentDoc is a document captured by fakeAPI before the bot deletes it.
type sentDoc struct {
	chatID  int64
	name    string
	data    []byte
	caption string
	thumb   bool
}

// fakeAPI records everything the bot sends.
type fakeAPI struct {
	mu       sync.Mutex
	nextID   int
	texts    []tgbotapi.MessageConfig
	edits    []tgbotapi.EditMessageTextConfig
	docs     []sentDoc
	answered []string
	baseURL  string
}

func (f *fakeAPI) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	switch m := c.(type) {
	case tgbotapi.MessageConfig:
		f.texts = append(f.texts, m)
	case tgbotapi.DocumentConfig:
		path := string(m.File.(tgbotapi.FilePath))
		data, err := os.ReadFile(path)
		if err != nil {
			return tgbotapi.Message{}, err
		}
		f.docs = append(f.docs, sentDoc{
			chatID: m.ChatID, name: filepath.Base(path), data: data,
			caption: m.Caption, thumb: m.Thumb != nil,
		})
	}
	return tgbotapi.Message{MessageID: f.nextID}, nil
}

func (f *fakeAPI) Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	switch m := c.(type) {
	case tgbotapi.EditMessageTextConfig:
		f.edits = append(f.edits, m)
	case tgbotapi.CallbackConfig:
		f.answered = append(f.answered, m.CallbackQueryID)
	}
	return &tgbotapi.APIResponse{Ok: true}, nil
}

func (f *fakeAPI) GetFileDirectURL(fileID string) (string, error) {
	return f.baseURL + "/" + fileID, nil
}

func (f *fakeAPI) lastText(t *testing.T) string {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	require.NotEmpty(t, f.texts, "no message sent")
	return f.texts[len(f.texts)-1].Text
}

func (f *fakeAPI) lastEdit(t *testing.T) tgbotapi.EditMessageTextConfig {
	t.Helper()
	f.mu.Lock()
	defer f.mu.Unlock()
	require.NotEmpty(t, f.edits, "no message edited")
	return f.edits[len(f.edits)-1]
}

type nopLogger struct{}

func (nopLogger) Info(string, ...interface{})        {}
func (nopLogger) Success(string, ...interface{})     {}
func (nopLogger) Warn(string, ...interface{})        {}
func (nopLogger) Error(string, ...interface{})       {}
func (nopLogger) Event(string, ...interface{})       {}
func (nopLogger) Debug(bool, string, ...interface{}) {}

type harness struct {
	bot   *Bot
	api   *fakeAPI
	store *storage.Store
	cfg   *config.Config
	files map[string]string // file id -> body served over HTTP
}

func newHarness(t *testing.T, tweak func(*config.Config)) *harness {
	t.Helper()
	dir := t.TempDir()
	cfg := config.DefaultConfig()
	cfg.TempDir = filepath.Join(dir, "temp")
	cfg.DownloadDir = filepath.Join(dir, "downloads")
	cfg.AutoThumbnail = false
	cfg.AdminIDs = []int64{99}
	if tweak != nil {
		tweak(&cfg)
	}

	store, err := storage.Open(filepath.Join(dir, "bot.db"))
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	h := &harness{store: store, cfg: &cfg, files: map[string]string{}}
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, ok := h.files[strings.TrimPrefix(r.URL.Path, "/")]
		if !ok {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)

	h.api = &fakeAPI{baseURL: srv.URL}
	h.bot, err = New(h.api, Options{Config: &cfg, Store: store, Log: nopLogger{}, Username: "RenameTestBot"})
	require.NoError(t, err)
	return h
}

func user(id int64) *tgbotapi.User {
	return &tgbotapi.User{ID: id, FirstName: fmt.Sprintf("User%d", id)}
}

func message(uid int64, text string) *tgbotapi.Message {
	m := &tgbotapi.Message{MessageID: 1, From: user(uid), Chat: &tgbotapi.Chat{ID: uid}, Text: text}
	if strings.HasPrefix(text, "/") {
		word, _, _ := strings.Cut(text, " ")
		m.Entities = []tgbotapi.MessageEntity{{Type: "bot_command", Offset: 0, Length: len(word)}}
	}
	return m
}

func (h *harness) send(uid int64, text string) {
	h.bot.HandleUpdate(context.Background(), tgbotapi.Update{Message: message(uid, text)})
}

func (h *harness) press(uid int64, data string) {
	h.bot.HandleUpdate(context.Background(), tgbotapi.Update{CallbackQuery: &tgbotapi.CallbackQuery{
		ID:      "cq-" + data,
		From:    user(uid),
		Message: &tgbotapi.Message{MessageID: 42, Chat: &tgbotapi.Chat{ID: uid}},
		Data:    data,
	}})
}

func (h *harness) upload(uid int64, fileID, name, body, captionText string) {
	h.files[fileID] = body
	msg := message(uid, "")
	msg.Caption = captionText
	msg.Document = &tgbotapi.Document{FileID: fileID, FileUniqueID: "u" + fileID, FileName: name, FileSize: len(body)}
	h.bot.HandleUpdate(context.Background(), tgbotapi.Update{Message: msg})
}

func (h *harness) settings(t *testing.T, uid int64) storage.UserSettings {
	t.Helper()
	us, err := h.store.Settings(context.Background(), uid)
	require.NoError(t, err)
	return us
}

func TestStart_CreditsReferrerOnce(t *testing.T) {
	h := newHarness(t, nil)
	ctx := context.Background()

	h.send(1, "/start")
	assert.Contains(t, h.api.lastText(t), "Welcome")

	h.send(2, "/start ref_1")
	ok, _, err := h.store.IsPremium(ctx, 1)
	require.NoError(t, err)
	assert.True(t, ok, "referrer should get premium")

	var notified bool
	for _, m := range h.api.texts {
		if m.ChatID == 1 && strings.Contains(m.Text, "joined with your link") {
			notified = true
		}
	}
	assert.True(t, notified)

	// A returning user cannot be credited again.
	h.send(2, "/start ref_1")
	rows, err := h.store.TopReferrals(ctx, 10)
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, 1, rows[0].Count)
}

func TestStart_SelfReferralIgnored(t *testing.T) {
	h := newHarness(t, nil)
	h.send(3, "/start ref_3")
	ok, _, err := h.store.IsPremium(context.Background(), 3)
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestAutorename(t *testing.T) {
	h := newHarness(t, nil)

	h.send(1, "/autorename {1abc} S{season}")
	assert.Contains(t, h.api.lastText(t), "invalid variable name")
	assert.NotEqual(t, "{1abc} S{season}", h.settings(t, 1).Template)

	h.send(1, "/autorename {title} [{qualty}]")
	reply := h.api.lastText(t)
	assert.Contains(t, reply, "Template saved")
	assert.Contains(t, reply, "{quality}", "unknown variable should get a suggestion")
	assert.Equal(t, "{title} [{qualty}]", h.settings(t, 1).Template)
}

func TestAutorename_PromptThenText(t *testing.T) {
	h := newHarness(t, nil)
	h.send(1, "/autorename")
	assert.Contains(t, h.api.lastText(t), "Send your template")

	h.send(1, "{title} E{episode}")
	assert.Equal(t, "{title} E{episode}", h.settings(t, 1).Template)

	// The prompt is consumed; plain text afterwards is just a hint.
	h.send(1, "{other}")
	assert.Equal(t, "{title} E{episode}", h.settings(t, 1).Template)
	assert.Contains(t, h.api.lastText(t), "Send me a file")
}

func TestReplaceRules(t *testing.T) {
	h := newHarness(t, nil)
	h.send(1, "/replace 720p | HD")
	h.send(1, "/replace")
	assert.Contains(t, h.api.lastText(t), "720p")
	h.send(1, "x264 |")

	rules := h.settings(t, 1).Rules
	require.Len(t, rules, 2)
	assert.Equal(t, "720p", rules[0].Old)
	assert.Equal(t, "HD", rules[0].New)
	assert.Equal(t, "x264", rules[1].Old)
	assert.Equal(t, "", rules[1].New)

	h.send(1, "/replace no separator")
	assert.Contains(t, h.api.lastText(t), "invalid rule format")

	h.send(1, "/delreplace 1080p")
	assert.Contains(t, h.api.lastText(t), "No rule replaces")
	require.Len(t, h.settings(t, 1).Rules, 2)

	h.send(1, "/delreplace")
	assert.Contains(t, h.api.lastText(t), "Usage")

	h.send(1, "/delreplace 720p")
	rules = h.settings(t, 1).Rules
	require.Len(t, rules, 1)
	assert.Equal(t, "x264", rules[0].Old)
	assert.NotContains(t, h.api.lastText(t), "720p")
	assert.Contains(t, h.api.lastText(t), "x264")

	h.send(1, "/clearreplace")
	assert.Empty(t, h.settings(t, 1).Rules)
}

func TestCallback_Choices(t *testing.T) {
	h := newHarness(t, nil)
	h.send(1, "/start")

	h.press(1, cbMode+string(rename.ModeManual))
	assert.Equal(t, rename.ModeManual, h.settings(t, 1).Mode)
	e := h.api.lastEdit(t)
	assert.Equal(t, 42, e.MessageID)
	require.NotNil(t, e.ReplyMarkup)
	assert.Equal(t, "✅ Manual", e.ReplyMarkup.InlineKeyboard[0][1].Text)
	assert.Contains(t, h.api.answered, "cq-mode_manual")

	h.press(1, cbCaption+"Bold")
	assert.Equal(t, "Bold", string(h.settings(t, 1).CaptionStyle))

	h.press(1, cbThumb+"season")
	assert.Equal(t, "season", string(h.settings(t, 1).ThumbnailMode))

	h.press(1, cbMode+"bogus")
	assert.Contains(t, h.api.lastEdit(t).Text, "invalid rename mode")
	assert.Equal(t, rename.ModeManual, h.settings(t, 1).Mode)
}

func TestCallback_BannerLinkFlow(t *testing.T) {
	h := newHarness(t, nil)
	h.press(1, cbMenu+menuBannerLink)
	h.send(1, "not a link")
	assert.Contains(t, h.api.lastText(t), "must start with")

	h.press(1, cbMenu+menuBannerLink)
	h.send(1, "https://t.me/channel")
	us := h.settings(t, 1)
	assert.Equal(t, "https://t.me/channel", us.BannerLink)
	assert.Equal(t, "END", string(us.BannerPosition))

	h.press(1, cbBanner+"BOTH")
	us = h.settings(t, 1)
	assert.Equal(t, "BOTH", string(us.BannerPosition))
	assert.Equal(t, "https://t.me/channel", us.BannerLink, "position change keeps the link")
}

func TestHandleFile_RenamesAndSends(t *testing.T) {
	h := newHarness(t, nil)
	ctx := context.Background()
	h.send(1, "/start")
	require.NoError(t, h.store.SetTemplate(ctx, 1, "{title} E{episode}"))
	require.NoError(t, h.store.SetBanner(ctx, 1, "END", "https://t.me/c"))

	h.upload(1, "f1", "My.Show.S01E02.mkv", "payload", "")

	require.Len(t, h.api.docs, 1)
	doc := h.api.docs[0]
	assert.Equal(t, "My.Show.S01E02 E02.mkv", doc.name)
	assert.Equal(t, "payload", string(doc.data))
	assert.Contains(t, doc.caption, "My.Show.S01E02 E02.mkv")
	assert.Contains(t, doc.caption, `href="https://t.me/c"`)
	assert.False(t, doc.thumb)

	assert.Contains(t, h.api.lastEdit(t).Text, "Renamed to")
	assert.Equal(t, 1, h.settings(t, 1).FilesProcessed)
	assert.NoFileExists(t, filepath.Join(h.cfg.DownloadDir, "1", doc.name), "sent file is removed")
}

func TestHandleFile_ManualModeUsesCaption(t *testing.T) {
	h := newHarness(t, nil)
	h.send(1, "/start")
	require.NoError(t, h.store.SetRenameMode(context.Background(), 1, rename.ModeManual))

	h.upload(1, "f1", "clip.mp4", "data", "Holiday 2026")
	require.Len(t, h.api.docs, 1)
	assert.Equal(t, "Holiday 2026.mp4", h.api.docs[0].name)
}

func TestHandleFile_StoredThumbnail(t *testing.T) {
	h := newHarness(t, nil)
	h.send(1, "/start")
	h.files["thumb1"] = string(tinyPNG(t))
	require.NoError(t, h.store.SetThumbnail(context.Background(), 1, "default", "thumb1"))

	h.upload(1, "f1", "a.mkv", "data", "")
	require.Len(t, h.api.docs, 1)
	assert.True(t, h.api.docs[0].thumb)
}

func TestHandleFile_DownloadFailure(t *testing.T) {
	h := newHarness(t, nil)
	h.send(1, "/start")
	msg := message(1, "")
	msg.Document = &tgbotapi.Document{FileID: "missing", FileName: "x.mkv", FileSize: 3}
	h.bot.HandleUpdate(context.Background(), tgbotapi.Update{Message: msg})

	assert.Empty(t, h.api.docs)
	assert.Contains(t, h.api.lastEdit(t).Text, "Error processing file")
	assert.Equal(t, 0, h.settings(t, 1).FilesProcessed)
}

func TestHandleFile_Limits(t *testing.T) {
	h := newHarness(t, func(c *config.Config) {
		c.MaxFileSize = 10
		c.UploadsPerHour = 1
	})
	h.upload(1, "big", "big.mkv", strings.Repeat("x", 11), "")
	assert.Contains(t, h.api.lastText(t), "File too large")
	assert.Empty(t, h.api.docs)

	h.upload(1, "f1", "a.mkv", "1", "")
	h.upload(1, "f2", "b.mkv", "2", "")
	assert.Len(t, h.api.docs, 1)
	assert.Contains(t, h.api.lastText(t), "Upload limit reached")

	// Premium users skip the hourly quota.
	_, err := h.store.AddPremiumTime(context.Background(), 1, time.Hour)
	require.NoError(t, err)
	h.upload(1, "f3", "c.mkv", "3", "")
	assert.Len(t, h.api.docs, 2)
}

func TestHandlePhoto(t *testing.T) {
	h := newHarness(t, nil)
	ctx := context.Background()
	photo := func(captionText string) {
		msg := message(1, "")
		msg.Caption = captionText
		msg.Photo = []tgbotapi.PhotoSize{{FileID: "small"}, {FileID: "large"}}
		h.bot.HandleUpdate(ctx, tgbotapi.Update{Message: msg})
	}

	photo("S02")
	id, err := h.store.Thumbnail(ctx, 1, "s02")
	require.NoError(t, err)
	assert.Equal(t, "large", id)

	photo("widescreen")
	assert.Contains(t, h.api.lastText(t), "unknown thumbnail slot")

	h.send(1, "/delthumb s02")
	assert.Contains(t, h.api.lastText(t), "Deleted thumbnail")
	_, err = h.store.Thumbnail(ctx, 1, "s02")
	assert.ErrorIs(t, err, storage.ErrNotFound)
}

func TestStats_AdminOnly(t *testing.T) {
	h := newHarness(t, nil)
	h.send(1, "/stats")
	assert.Contains(t, h.api.lastText(t), "Access denied")
	h.send(99, "/stats")
	assert.Contains(t, h.api.lastText(t), "Bot Statistics")
}

func TestRequestLimit(t *testing.T) {
	h := newHarness(t, func(c *config.Config) { c.RequestsPerMinute = 2 })
	h.send(1, "/help")
	h.send(1, "/help")
	h.send(1, "/help")
	assert.Contains(t, h.api.lastText(t), "Too many requests")
}

func TestServe_DrainsUntilClosed(t *testing.T) {
	h := newHarness(t, nil)
	updates := make(chan tgbotapi.Update, 3)
	for i := int64(1); i <= 3; i++ {
		updates <- tgbotapi.Update{Message: message(i, "/help")}
	}
	close(updates)
	h.bot.Serve(context.Background(), updates)
	assert.Len(t, h.api.texts, 3)
}
