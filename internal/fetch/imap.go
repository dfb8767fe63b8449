package fetch

import (
	"context"
	"fmt"
	"io"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/emersion/go-imap"
	"github.com/emersion/go-imap/client"

	"github.com/reconly/reconly/core/options"
	"github.com/reconly/reconly/internal/registry"
)

// IMAPDescriptor describes the built-in IMAP inbox fetcher. Credentials are
// configurable; the password can also be supplied via environment, in which
// case the field is locked in the UI.
func IMAPDescriptor() registry.Descriptor {
	return registry.Descriptor{
		Kind:        registry.KindFetcher,
		Name:        "imap",
		DisplayName: "Email (IMAP)",
		Description: "Fetches recent messages from an IMAP inbox",
		Icon:        "mail",
		ConfigSchema: []registry.ConfigFieldSpec{
			{Key: "host", Type: registry.FieldConnection, Label: "IMAP host", Required: true, Editable: true},
			{Key: "port", Type: registry.FieldInteger, Label: "IMAP port", Default: "993", Editable: true},
			{Key: "username", Type: registry.FieldString, Label: "Username", Required: true, Editable: true},
			{Key: "password", Type: registry.FieldString, Label: "Password", Required: true, EnvVar: "RECONLY_IMAP_PASSWORD", Secret: true, Editable: true},
			{Key: "folder", Type: registry.FieldString, Label: "Folder", Default: "INBOX", Editable: true},
			{Key: "max_items", Type: registry.FieldInteger, Label: "Max messages per fetch", Default: "20", Editable: true},
		},
		Capabilities: registry.Capabilities{RequiresAPIKey: false},
		DetectURL: func(u string) bool {
			return strings.HasPrefix(u, "imap://") || strings.HasPrefix(u, "imaps://")
		},
	}
}

type imapFetcher struct {
	host     string
	port     int
	username string
	password string
	folder   string
	maxItems int
}

// NewIMAP constructs the IMAP fetcher from its resolved configuration.
func NewIMAP(cfg map[string]any) (Fetcher, error) {
	host := options.String(cfg, "host", "")
	if host == "" {
		return nil, fmt.Errorf("imap: host is not configured")
	}
	return &imapFetcher{
		host:     host,
		port:     options.Int(cfg, "port", 993),
		username: options.String(cfg, "username", ""),
		password: options.String(cfg, "password", ""),
		folder:   options.String(cfg, "folder", "INBOX"),
		maxItems: options.Int(cfg, "max_items", 20),
	}, nil
}

func (f *imapFetcher) Fetch(ctx context.Context, _ string, opts Options) ([]Item, error) {
	addr := net.JoinHostPort(f.host, strconv.Itoa(f.port))
	c, err := client.DialTLS(addr, nil)
	if err != nil {
		return nil, fmt.Errorf("dial %s: %w", addr, err)
	}
	defer func() { _ = c.Logout() }()
	if deadline, ok := ctx.Deadline(); ok {
		c.Timeout = time.Until(deadline)
	}

	if err := c.Login(f.username, f.password); err != nil {
		return nil, fmt.Errorf("imap login: %w", err)
	}
	mbox, err := c.Select(f.folder, true)
	if err != nil {
		return nil, fmt.Errorf("select %s: %w", f.folder, err)
	}
	if mbox.Messages == 0 {
		return nil, nil
	}

	limit := opts.Limit
	if limit <= 0 {
		limit = f.maxItems
	}
	from := uint32(1)
	if mbox.Messages > uint32(limit) {
		from = mbox.Messages - uint32(limit) + 1
	}
	seqset := new(imap.SeqSet)
	seqset.AddRange(from, mbox.Messages)

	section := &imap.BodySectionName{Peek: true}
	fetchItems := []imap.FetchItem{imap.FetchEnvelope, section.FetchItem()}
	messages := make(chan *imap.Message, limit)
	done := make(chan error, 1)
	go func() { done <- c.Fetch(seqset, fetchItems, messages) }()

	var items []Item
	for msg := range messages {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		env := msg.Envelope
		if env == nil {
			continue
		}
		item := Item{
			Title:     env.Subject,
			URL:       "mid:" + strings.Trim(env.MessageId, "<>"),
			Published: env.Date,
		}
		if len(env.From) > 0 {
			if name := env.From[0].PersonalName; name != "" {
				item.Author = name
			} else {
				item.Author = env.From[0].Address()
			}
		}
		if body := msg.GetBody(section); body != nil {
			if b, readErr := io.ReadAll(body); readErr == nil {
				item.Content = string(b)
			}
		}
		if !opts.Since.IsZero() && !item.Published.IsZero() && item.Published.Before(opts.Since) {
			continue
		}
		items = append(items, item)
	}
	if err := <-done; err != nil {
		return nil, fmt.Errorf("fetch messages: %w", err)
	}
	return items, nil
}
