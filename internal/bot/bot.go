// Package bot is the Telegram front end: it turns chat updates into calls
// on the rename, storage, caption and thumbnail packages.
//
// Updates are dispatched to a bounded set of goroutines by [Bot.Serve].
// Where the updates come from (long polling or a webhook) is decided by the
// caller; see [Poll] and [ListenWebhook].
package bot

import (
	"context"
	"fmt"
	"net/http"
	"path/filepath"
	"strconv"
	"sync"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"golang.org/x/time/rate"

	"github.com/backmassage/renamebot/internal/config"
	"github.com/backmassage/renamebot/internal/ffmpeg"
	"github.com/backmassage/renamebot/internal/rename"
	"github.com/backmassage/renamebot/internal/storage"
	"github.com/backmassage/renamebot/internal/transfer"
)

// API is the subset of *tgbotapi.BotAPI the handlers use.
type API interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	GetFileDirectURL(fileID string) (string, error)
}

// Logger is the logging surface used by the bot.
type Logger interface {
	Info(string, ...interface{})
	Success(string, ...interface{})
	Warn(string, ...interface{})
	Error(string, ...interface{})
	Event(string, ...interface{})
	Debug(bool, string, ...interface{})
}

// Options carries the bot's collaborators.
type Options struct {
	Config   *config.Config
	Store    *storage.Store
	Log      Logger
	Username string             // bot @username, used in referral links
	Archiver *transfer.Archiver // nil disables archiving
	Client   *http.Client       // file downloads; nil means http.DefaultClient
}

// maxWorkers bounds concurrently handled updates.
const maxWorkers = 16

// Telegram allows about 30 messages per second per bot.
const sendRate = 30

// Bot handles chat updates. Create with [New].
type Bot struct {
	api      API
	cfg      *config.Config
	store    *storage.Store
	log      Logger
	username string

	sessions    *storage.Sessions
	limiter     *Limiter
	sendLimiter *rate.Limiter
	renamer     *rename.Renamer
	fetcher     transfer.Fetcher
	archiver    *transfer.Archiver

	frameOpts ffmpeg.FrameOptions
	autoThumb bool

	workers chan struct{}
	wg      sync.WaitGroup
	now     func() time.Time
}

// New wires a Bot. The temp directory is created if needed.
func New(api API, opts Options) (*Bot, error) {
	cfg := opts.Config
	fetcher := transfer.URLFetcher{
		Resolve: func(_ context.Context, fileID string) (string, error) {
			return api.GetFileDirectURL(fileID)
		},
		Client: opts.Client,
	}
	local, err := transfer.NewLocalStore(cfg.TempDir, fetcher)
	if err != nil {
		return nil, err
	}

	frameOpts := ffmpeg.DefaultFrameOptions()
	frameOpts.Binary = cfg.FFmpegPath
	frameOpts.Verbose = cfg.Verbose

	return &Bot{
		api:         api,
		cfg:         cfg,
		store:       opts.Store,
		log:         opts.Log,
		username:    opts.Username,
		sessions:    storage.NewSessions(cfg.SessionTTL),
		limiter:     NewLimiter(cfg.RequestsPerMinute, cfg.UploadsPerHour),
		sendLimiter: rate.NewLimiter(rate.Limit(sendRate), sendRate),
		renamer:     rename.NewRenamer(local, nil, opts.Log, cfg.Verbose),
		fetcher:     fetcher,
		archiver:    opts.Archiver,
		frameOpts:   frameOpts,
		autoThumb:   cfg.AutoThumbnail && ffmpeg.Available(cfg.FFmpegPath),
		workers:     make(chan struct{}, maxWorkers),
		now:         time.Now,
	}, nil
}

// Serve handles updates until ctx is done or updates is closed, then waits
// for in-flight handlers.
func (b *Bot) Serve(ctx context.Context, updates <-chan tgbotapi.Update) {
	prune := time.NewTicker(10 * time.Minute)
	defer prune.Stop()
	defer b.wg.Wait()

	for {
		select {
		case <-ctx.Done():
			return
		case <-prune.C:
			if n := b.limiter.Prune(2 * time.Hour); n > 0 {
				b.log.Debug(b.cfg.Verbose, "Pruned %d idle rate limiters", n)
			}
		case u, ok := <-updates:
			if !ok {
				return
			}
			select {
			case b.workers <- struct{}{}:
			case <-ctx.Done():
				return
			}
			b.wg.Add(1)
			go func(u tgbotapi.Update) {
				defer func() { <-b.workers; b.wg.Done() }()
				b.HandleUpdate(ctx, u)
			}(u)
		}
	}
}

// HandleUpdate processes one update synchronously.
func (b *Bot) HandleUpdate(ctx context.Context, u tgbotapi.Update) {
	defer func() {
		if r := recover(); r != nil {
			b.log.Error("Update %d panicked: %v", u.UpdateID, r)
		}
	}()
	switch {
	case u.CallbackQuery != nil:
		b.handleCallback(ctx, u.CallbackQuery)
	case u.Message != nil:
		b.handleMessage(ctx, u.Message)
	}
}

func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	if msg.From == nil || msg.Chat == nil {
		return
	}
	uid := msg.From.ID
	created, err := b.store.EnsureUser(ctx, userOf(msg.From))
	if err != nil {
		b.log.Error("User %d: %v", uid, err)
		b.reply(ctx, msg.Chat.ID, "❌ Something went wrong, please try again.", nil)
		return
	}
	if !b.limiter.AllowRequest(uid) {
		b.reply(ctx, msg.Chat.ID, "⏳ Too many requests. Please slow down.", nil)
		return
	}

	switch {
	case msg.IsCommand():
		b.log.Event("%d /%s", uid, msg.Command())
		b.handleCommand(ctx, msg, created)
	case msg.Document != nil || msg.Video != nil || msg.Audio != nil:
		b.log.Event("%d sent a file", uid)
		b.handleFile(ctx, msg)
	case len(msg.Photo) > 0:
		b.log.Event("%d sent a photo", uid)
		b.handlePhoto(ctx, msg)
	case msg.Text != "":
		b.handleText(ctx, msg)
	}
}

func userOf(u *tgbotapi.User) storage.User {
	return storage.User{ID: u.ID, Username: u.UserName, FirstName: u.FirstName}
}

// userDir is where a user's renamed files are placed before sending.
func (b *Bot) userDir(userID int64) string {
	return filepath.Join(b.cfg.DownloadDir, strconv.FormatInt(userID, 10))
}

// --- sending ---

func (b *Bot) send(ctx context.Context, c tgbotapi.Chattable) (tgbotapi.Message, error) {
	if err := b.sendLimiter.Wait(ctx); err != nil {
		return tgbotapi.Message{}, fmt.Errorf("send rate limiter: %w", err)
	}
	return b.api.Send(c)
}

func (b *Bot) request(ctx context.Context, c tgbotapi.Chattable) {
	if err := b.sendLimiter.Wait(ctx); err != nil {
		return
	}
	if _, err := b.api.Request(c); err != nil {
		b.log.Debug(b.cfg.Verbose, "Request failed: %v", err)
	}
}

// reply sends an HTML message. kb may be nil.
func (b *Bot) reply(ctx context.Context, chatID int64, text string, kb *tgbotapi.InlineKeyboardMarkup) tgbotapi.Message {
	m := tgbotapi.NewMessage(chatID, text)
	m.ParseMode = tgbotapi.ModeHTML
	m.DisableWebPagePreview = true
	if kb != nil {
		m.ReplyMarkup = *kb
	}
	sent, err := b.send(ctx, m)
	if err != nil {
		b.log.Warn("Send to %d failed: %v", chatID, err)
	}
	return sent
}

// edit replaces the text (and keyboard, when kb is non-nil) of a sent
// message.
func (b *Bot) edit(ctx context.Context, chatID int64, messageID int, text string, kb *tgbotapi.InlineKeyboardMarkup) {
	e := tgbotapi.NewEditMessageText(chatID, messageID, text)
	e.ParseMode = tgbotapi.ModeHTML
	e.DisableWebPagePreview = true
	e.ReplyMarkup = kb
	b.request(ctx, e)
}

func kbPtr(kb tgbotapi.InlineKeyboardMarkup) *tgbotapi.InlineKeyboardMarkup { return &kb }
