// Package chat contains the Twitch IRC front end for the PhiZone bot.
//
// StartBot connects to Twitch IRC for TWITCH_CHANNEL and routes messages that
// start with the configured command prefix (default "!pz") through
// bot.Handler.Dispatch, sending the formatted reply back into the channel.
// Non-command chatter is ignored without a reply.
//
// Credentials: the IRC client requires a bot username and an OAuth token with
// chat:read/chat:edit scopes. Without them the front end logs once and stays
// disabled, leaving the health/metrics HTTP server as the only surface.
package chat
