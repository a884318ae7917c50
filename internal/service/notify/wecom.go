// Package notify delivers pipeline reports to a WeCom group webhook.
package notify

import (
	"context"
	"crypto/md5"
	"encoding/base64"
	"encoding/hex"
	"fmt"
	"net/http"
	"time"

	"ChartSentry/internal/domain/models"
	pkghttp "ChartSentry/pkg/http"
	"ChartSentry/pkg/logger"
)

// DefaultMaxTextLen caps report text so a verbose model reply cannot blow
// the webhook's message size limit.
const DefaultMaxTextLen = 600

type textPayload struct {
	MsgType string `json:"msgtype"`
	Text    struct {
		Content string `json:"content"`
	} `json:"text"`
}

type imagePayload struct {
	MsgType string `json:"msgtype"`
	Image   struct {
		Base64 string `json:"base64"`
		MD5    string `json:"md5"`
	} `json:"image"`
}

type webhookReply struct {
	ErrCode int    `json:"errcode"`
	ErrMsg  string `json:"errmsg"`
}

// WeComNotifier posts text and chart images to a WeCom robot webhook.
type WeComNotifier struct {
	webhookURL string
	maxTextLen int
	http       *pkghttp.Client
	logger     *logger.Logger
}

// Option configures WeComNotifier.
type Option func(*WeComNotifier)

// WithMaxTextLen overrides the text truncation limit.
func WithMaxTextLen(n int) Option {
	return func(w *WeComNotifier) {
		if n > 0 {
			w.maxTextLen = n
		}
	}
}

// WithTimeout sets the per-request timeout.
func WithTimeout(d time.Duration) Option {
	return func(w *WeComNotifier) {
		w.http = pkghttp.NewClient(pkghttp.WithTimeout(d))
	}
}

// NewWeComNotifier creates a notifier for the given webhook URL.
func NewWeComNotifier(webhookURL string, log *logger.Logger, opts ...Option) *WeComNotifier {
	w := &WeComNotifier{
		webhookURL: webhookURL,
		maxTextLen: DefaultMaxTextLen,
		http:       pkghttp.NewClient(),
		logger:     log,
	}

	for _, opt := range opts {
		opt(w)
	}

	return w
}

// Notify sends the text message first, then one image message per frame.
// Image failures are logged and skipped; the text going through is what
// counts as delivery.
func (w *WeComNotifier) Notify(ctx context.Context, text string, images []models.ChartImage) error {
	payload := textPayload{MsgType: "text"}
	payload.Text.Content = Truncate(text, w.maxTextLen)

	if err := w.post(ctx, payload); err != nil {
		return fmt.Errorf("notify text: %w", err)
	}

	for _, img := range images {
		if err := w.sendImage(ctx, img); err != nil {
			w.logger.Warn("image notify failed",
				logger.String("name", img.Name),
				logger.Error(err))
		}
	}

	return nil
}

func (w *WeComNotifier) sendImage(ctx context.Context, img models.ChartImage) error {
	sum := md5.Sum(img.Data)

	payload := imagePayload{MsgType: "image"}
	payload.Image.Base64 = base64.StdEncoding.EncodeToString(img.Data)
	payload.Image.MD5 = hex.EncodeToString(sum[:])

	return w.post(ctx, payload)
}

func (w *WeComNotifier) post(ctx context.Context, payload interface{}) error {
	var reply webhookReply
	err := w.http.SendAndParse(ctx, &pkghttp.RequestOptions{
		Method: http.MethodPost,
		URL:    w.webhookURL,
		Body:   payload,
	}, &reply)
	if err != nil {
		return err
	}
	if reply.ErrCode != 0 {
		return fmt.Errorf("webhook errcode %d: %s", reply.ErrCode, reply.ErrMsg)
	}
	return nil
}

// Truncate cuts s to at most max runes, appending an ellipsis when cut.
func Truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max]) + "..."
}
