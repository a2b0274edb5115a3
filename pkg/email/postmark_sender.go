package email

import (
	"context"
	"errors"
	"fmt"

	"github.com/mrz1836/postmark"
)

// PostmarkSender sends messages with Postmark's templated email API.
type PostmarkSender struct {
	client  *postmark.Client
	catalog *Catalog
	config  Config
}

// NewPostmarkSender creates a Postmark-backed sender.
func NewPostmarkSender(cfg Config, catalog *Catalog) (*PostmarkSender, error) {
	if cfg.PostmarkServerToken == "" {
		return nil, fmt.Errorf("%w: PostmarkServerToken is required", ErrInvalidConfig)
	}
	if !emailRegex.MatchString(cfg.SenderEmail) {
		return nil, fmt.Errorf("%w: SenderEmail must be a valid email address", ErrInvalidConfig)
	}
	if cfg.SupportEmail != "" && !emailRegex.MatchString(cfg.SupportEmail) {
		return nil, fmt.Errorf("%w: SupportEmail must be a valid email address", ErrInvalidConfig)
	}
	if catalog == nil {
		return nil, fmt.Errorf("%w: catalog is required", ErrInvalidConfig)
	}

	return &PostmarkSender{
		client:  postmark.NewClient(cfg.PostmarkServerToken, cfg.PostmarkAccountToken),
		catalog: catalog,
		config:  cfg,
	}, nil
}

// Send implements Sender. Reply-To is set to the support address so that
// replies from subscribers reach a person.
func (s *PostmarkSender) Send(ctx context.Context, msg Message) (string, error) {
	if err := msg.Validate(); err != nil {
		return "", err
	}
	tpl, err := s.catalog.Lookup(msg.Template)
	if err != nil {
		return "", err
	}

	model := make(map[string]interface{}, len(msg.Data)+1)
	for k, v := range msg.Data {
		model[k] = v
	}
	model["subject"] = tpl.RenderSubject(msg.Data)

	tag := msg.Tag
	if tag == "" {
		tag = msg.Template
	}

	resp, err := s.client.SendTemplatedEmail(ctx, postmark.TemplatedEmail{
		TemplateAlias: tpl.Alias,
		TemplateModel: model,
		From:          s.config.SenderEmail,
		To:            msg.To,
		ReplyTo:       s.config.SupportEmail,
		Tag:           tag,
		TrackOpens:    true,
		MessageStream: s.config.MessageStream,
	})
	if err != nil {
		return "", errors.Join(ErrFailedToSend, err)
	}
	if resp.ErrorCode > 0 {
		return "", errors.Join(
			ErrFailedToSend,
			fmt.Errorf("postmark error: %d - %s", resp.ErrorCode, resp.Message),
		)
	}
	return resp.MessageID, nil
}
