// Copyright (C) 2024 the quixsi maintainers
// See root-dir/LICENSE for more information

package notifier

import (
	"context"
	"fmt"

	"github.com/bwmarrin/discordgo"

	"github.com/quixsi/checkin/internal/model"
)

type DiscordNotifier struct {
	session   *discordgo.Session
	channelID string
}

func NewDiscordNotifier(session *discordgo.Session, channelID string) *DiscordNotifier {
	return &DiscordNotifier{
		session:   session,
		channelID: channelID,
	}
}

// NewDiscordBot creates a bot session for token without opening the gateway;
// sending channel messages only needs the REST API.
func NewDiscordBot(token, channelID string) (*DiscordNotifier, error) {
	session, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("create discord session: %w", err)
	}
	return NewDiscordNotifier(session, channelID), nil
}

func (n *DiscordNotifier) NotifyRSVP(ctx context.Context, event *model.Event, guest *model.Guest) error {
	return n.send(ctx, rsvpMessage(event, guest))
}

func (n *DiscordNotifier) NotifyAdmission(ctx context.Context, event *model.Event, guest *model.Guest) error {
	return n.send(ctx, admissionMessage(event, guest))
}

func (n *DiscordNotifier) send(ctx context.Context, message string) error {
	if n.session == nil {
		return fmt.Errorf("discord session is nil")
	}
	if n.channelID == "" {
		return fmt.Errorf("discord channel ID is empty")
	}
	if _, err := n.session.ChannelMessageSend(n.channelID, message, discordgo.WithContext(ctx)); err != nil {
		return fmt.Errorf("send discord message: %w", err)
	}
	return nil
}
