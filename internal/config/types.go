package config

import (
	"errors"
	"fmt"

	"silentping/pkg/mention"
)

type Config struct {
	Telegram TelegramConfig `json:"telegram"`
	Logging  LoggingConfig  `json:"logging"`

	// Delivery controls request pacing and report retention.
	Delivery *DeliveryConfig `json:"delivery,omitempty"`

	// Storage enables the sqlite delivery log.
	Storage *StorageConfig `json:"storage,omitempty"`

	// Limits are the payload limits applied to every blast unless the blast
	// overrides them.
	Limits *LimitsConfig `json:"limits,omitempty"`

	// Blasts are the named mention broadcasts. A blast with a cron spec runs
	// on schedule; one without is trigger-only (-blast flag).
	Blasts []BlastConfig `json:"blasts,omitempty"`
}

type TelegramConfig struct {
	Token string `json:"token"`
}

type LoggingConfig struct {
	Level   string      `json:"level"`
	Console bool        `json:"console"`
	File    LoggingFile `json:"file"`
}

type LoggingFile struct {
	Enabled bool   `json:"enabled"`
	Path    string `json:"path"`
}

// DeliveryConfig controls the send loop.
//
// All durations are Go duration strings (e.g. "500ms", "10s", "1m").
// If the whole section is omitted, delivery defaults to enabled with no
// inter-request delay.
type DeliveryConfig struct {
	Enabled   *bool  `json:"enabled,omitempty"`
	SendDelay string `json:"send_delay,omitempty"`
	StatusMax int    `json:"status_max,omitempty"`
	StatusTTL string `json:"status_ttl,omitempty"`
}

// StorageConfig controls the optional persistence layer.
//
// Example:
//
//	"storage": { "path": "./silentping.db" }
type StorageConfig struct {
	Enabled     bool   `json:"enabled"`
	Path        string `json:"path"`
	BusyTimeout string `json:"busy_timeout,omitempty"` // Go duration string
}

// LimitsConfig mirrors mention.Limits with config-friendly field names.
type LimitsConfig struct {
	MaxRecipientsPerMessage int    `json:"max_recipients_per_message,omitempty"`
	MaxTextLength           int    `json:"max_text_length,omitempty"`
	OverflowPolicy          string `json:"overflow_policy,omitempty"`
}

// Limits converts to the mention package's limits, validating the policy.
func (l *LimitsConfig) Limits() (mention.Limits, error) {
	if l == nil {
		return mention.Limits{}, nil
	}
	policy, err := mention.ParseOverflowPolicy(l.OverflowPolicy)
	if err != nil {
		return mention.Limits{}, err
	}
	return mention.Limits{
		MaxRecipients: l.MaxRecipientsPerMessage,
		MaxTextLen:    l.MaxTextLength,
		Overflow:      policy,
	}, nil
}

type ChatConfig struct {
	ID       int64  `json:"id,omitempty"`
	Username string `json:"username,omitempty"`
}

func (c ChatConfig) Chat() mention.Chat {
	return mention.Chat{ID: c.ID, Username: c.Username}
}

type BlastConfig struct {
	Name string `json:"name"`

	// Cron is a robfig/cron spec (5 or 6 fields, descriptors allowed).
	// Empty means the blast only runs when triggered explicitly.
	Cron string `json:"cron,omitempty"`

	Chat       ChatConfig           `json:"chat"`
	Recipients []int64              `json:"recipients"`
	Template   mention.TemplateSpec `json:"template"`
	Limits     *LimitsConfig        `json:"limits,omitempty"`
}

// Validate rejects configs that cannot possibly run, so a bad edit never
// reaches the services during hot reload.
func (c *Config) Validate() error {
	if _, err := Duration("delivery.send_delay", optStr(c.Delivery, func(d *DeliveryConfig) string { return d.SendDelay })); err != nil {
		return err
	}
	if _, err := Duration("delivery.status_ttl", optStr(c.Delivery, func(d *DeliveryConfig) string { return d.StatusTTL })); err != nil {
		return err
	}
	if c.Storage != nil {
		if _, err := Duration("storage.busy_timeout", c.Storage.BusyTimeout); err != nil {
			return err
		}
		if c.Storage.Enabled && c.Storage.Path == "" {
			return errors.New("storage.path is required when storage is enabled")
		}
	}
	if _, err := c.Limits.Limits(); err != nil {
		return fmt.Errorf("limits: %w", err)
	}

	seen := map[string]bool{}
	for i := range c.Blasts {
		b := &c.Blasts[i]
		where := fmt.Sprintf("blasts[%d]", i)
		if b.Name == "" {
			return fmt.Errorf("%s: name is required", where)
		}
		if seen[b.Name] {
			return fmt.Errorf("%s: duplicate blast name %q", where, b.Name)
		}
		seen[b.Name] = true
		if b.Chat.ID == 0 && b.Chat.Username == "" {
			return fmt.Errorf("%s (%s): chat id or username is required", where, b.Name)
		}
		if len(b.Recipients) == 0 {
			return fmt.Errorf("%s (%s): recipients are required", where, b.Name)
		}
		if _, err := b.Template.Template(); err != nil {
			return fmt.Errorf("%s (%s): %w", where, b.Name, err)
		}
		if _, err := b.Limits.Limits(); err != nil {
			return fmt.Errorf("%s (%s): %w", where, b.Name, err)
		}
	}
	return nil
}

// Blast returns the named blast, if configured.
func (c *Config) Blast(name string) (*BlastConfig, bool) {
	for i := range c.Blasts {
		if c.Blasts[i].Name == name {
			return &c.Blasts[i], true
		}
	}
	return nil, false
}

func optStr[T any](v *T, get func(*T) string) string {
	if v == nil {
		return ""
	}
	return get(v)
}
