// Package telegram implements the transport.Sender boundary on telebot.
package telegram

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"time"

	tele "gopkg.in/telebot.v4"

	"silentping/internal/transport"
	"silentping/pkg/logx"
	"silentping/pkg/mention"
)

type Config struct {
	Token string

	// Offline skips the getMe call on startup. Used by tests.
	Offline bool
}

type Adapter struct {
	cfg Config
	log logx.Logger
	bot *tele.Bot
}

func New(cfg Config, log logx.Logger) (*Adapter, error) {
	if strings.TrimSpace(cfg.Token) == "" && !cfg.Offline {
		return nil, errors.New("telegram token is empty")
	}
	b, err := tele.NewBot(tele.Settings{
		Token:   cfg.Token,
		Offline: cfg.Offline,
	})
	if err != nil {
		return nil, err
	}
	return &Adapter{cfg: cfg, log: log, bot: b}, nil
}

// chatRecipient adapts a mention.Chat to telebot's Recipient: a numeric ID
// rendered as decimal, or a public @username passed through verbatim.
type chatRecipient struct {
	chat mention.Chat
}

func (r chatRecipient) Recipient() string {
	if r.chat.Username != "" {
		return r.chat.Username
	}
	return strconv.FormatInt(r.chat.ID, 10)
}

func (a *Adapter) SendPayload(ctx context.Context, p mention.Payload) (transport.MessageRef, error) {
	start := time.Now()
	msg, err := a.bot.Send(chatRecipient{chat: p.Chat}, p.Text, sendOptions(p))
	if err != nil {
		return transport.MessageRef{}, err
	}
	a.log.Debug("payload sent",
		logx.Int64("chat_id", msg.Chat.ID),
		logx.Int("mentions", len(p.Mentions)),
		logx.Duration("took", time.Since(start)),
	)
	return transport.MessageRef{ChatID: msg.Chat.ID, MessageID: msg.ID}, nil
}

func (a *Adapter) EditPayload(ctx context.Context, ref transport.MessageRef, p mention.Payload) error {
	m := &tele.Message{ID: ref.MessageID, Chat: &tele.Chat{ID: ref.ChatID}}
	_, err := a.bot.Edit(m, p.Text, sendOptions(p))
	return err
}

func sendOptions(p mention.Payload) *tele.SendOptions {
	ents := make(tele.Entities, len(p.Mentions))
	for i, m := range p.Mentions {
		ents[i] = tele.MessageEntity{
			Type:   tele.EntityTMention,
			Offset: m.Offset,
			Length: m.Length,
			User:   &tele.User{ID: m.UserID},
		}
	}
	return &tele.SendOptions{
		Entities:              ents,
		DisableWebPagePreview: true,
	}
}
