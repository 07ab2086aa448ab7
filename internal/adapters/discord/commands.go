package discord

import "github.com/bwmarrin/discordgo"

var minHistory = 1.0

var Commands = []*discordgo.ApplicationCommand{
	{
		Name:        "topic-status",
		Description: "Shows whether topic submissions are open",
	},
	{
		Name:        "topic-reset",
		Description: "Clears the topic cooldown (admins)",
	},
	{
		Name:        "topic-history",
		Description: "Lists the latest moderation decisions (admins)",
		Options: []*discordgo.ApplicationCommandOption{{
			Type:        discordgo.ApplicationCommandOptionInteger,
			Name:        "limit",
			Description: "How many decisions to show (max 25)",
			MinValue:    &minHistory,
			MaxValue:    25,
		}},
	},
}
