package bot

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

var allowedUpdates = []string{"message", "callback_query"}

// Poll removes any webhook and starts long polling. The returned channel is
// closed after ctx is done.
func Poll(ctx context.Context, api *tgbotapi.BotAPI, timeout int) (tgbotapi.UpdatesChannel, error) {
	if _, err := api.Request(tgbotapi.DeleteWebhookConfig{}); err != nil {
		return nil, fmt.Errorf("delete webhook: %w", err)
	}
	u := tgbotapi.NewUpdate(0)
	u.Timeout = timeout
	u.AllowedUpdates = allowedUpdates
	updates := api.GetUpdatesChan(u)
	go func() {
		<-ctx.Done()
		api.StopReceivingUpdates()
	}()
	return updates, nil
}

const (
	// WebhookPath is where updates are posted in webhook mode.
	WebhookPath = "/webhook"

	// SecretHeader carries the secret_token given to setWebhook on every
	// update Telegram posts.
	SecretHeader = "X-Telegram-Bot-Api-Secret-Token"

	maxUpdateBytes = 1 << 20
)

// ListenWebhook registers publicURL+WebhookPath with Telegram and serves it
// on addr until ctx is done. Updates are delivered on the returned channel.
// Posts that do not carry secret in [SecretHeader] are rejected.
func ListenWebhook(ctx context.Context, api *tgbotapi.BotAPI, publicURL, secret, addr string, log Logger) (<-chan tgbotapi.Update, error) {
	if secret == "" {
		return nil, errors.New("webhook secret is empty")
	}
	// WebhookConfig in this library version has no secret_token field.
	params := tgbotapi.Params{}
	params["url"] = publicURL + WebhookPath
	params["secret_token"] = secret
	if err := params.AddInterface("allowed_updates", allowedUpdates); err != nil {
		return nil, fmt.Errorf("set webhook: %w", err)
	}
	if _, err := api.MakeRequest("setWebhook", params); err != nil {
		return nil, fmt.Errorf("set webhook: %w", err)
	}

	updates := make(chan tgbotapi.Update, api.Buffer)
	mux := newMux(ctx, updates, secret)
	if err := serve(ctx, addr, mux, log); err != nil {
		return nil, err
	}
	go func() {
		<-ctx.Done()
		close(updates)
	}()
	return updates, nil
}

// ServeHealth serves only the health endpoint, for long-polling
// deployments that still need a port open.
func ServeHealth(ctx context.Context, addr string, log Logger) error {
	return serve(ctx, addr, newMux(ctx, nil, ""), log)
}

func newMux(ctx context.Context, updates chan<- tgbotapi.Update, secret string) *http.ServeMux {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})
	if updates != nil {
		mux.Handle(WebhookPath, webhookHandler(ctx, updates, secret))
	}
	return mux
}

// webhookHandler decodes posted updates onto updates. Requests without the
// secret header, or arriving after ctx is done, are refused.
func webhookHandler(ctx context.Context, updates chan<- tgbotapi.Update, secret string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
			return
		}
		got := r.Header.Get(SecretHeader)
		if secret == "" || subtle.ConstantTimeCompare([]byte(got), []byte(secret)) != 1 {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		var u tgbotapi.Update
		body := http.MaxBytesReader(w, r.Body, maxUpdateBytes)
		if err := json.NewDecoder(body).Decode(&u); err != nil {
			http.Error(w, "bad update", http.StatusBadRequest)
			return
		}
		select {
		case updates <- u:
			w.WriteHeader(http.StatusOK)
		case <-ctx.Done():
			http.Error(w, "shutting down", http.StatusServiceUnavailable)
		}
	})
}

// serve starts an HTTP server on addr and shuts it down when ctx is done.
// It fails fast if addr cannot be bound.
func serve(ctx context.Context, addr string, h http.Handler, log Logger) error {
	srv := &http.Server{Addr: addr, Handler: h, ReadHeaderTimeout: 10 * time.Second}
	errc := make(chan error, 1)
	go func() { errc <- srv.ListenAndServe() }()

	select {
	case err := <-errc:
		return fmt.Errorf("listen %s: %w", addr, err)
	case <-time.After(100 * time.Millisecond):
	}
	log.Info("HTTP server listening on %s", addr)

	go func() {
		<-ctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			log.Warn("HTTP shutdown: %v", err)
		}
		if err := <-errc; err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Warn("HTTP server: %v", err)
		}
	}()
	return nil
}
