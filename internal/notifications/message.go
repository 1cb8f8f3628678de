package notifications

import "strings"

// BuildMessage renders the title and body templates for a match and attaches
// the data payload the mobile app routes on (matchId, type, url).
// Templates may reference {opponent1} and {opponent2}.
func BuildMessage(m Match, titleTemplate, bodyTemplate string) Message {
	r := strings.NewReplacer(
		"{opponent1}", m.Opponent1,
		"{opponent2}", m.Opponent2,
	)
	return Message{
		Title: r.Replace(titleTemplate),
		Body:  r.Replace(bodyTemplate),
		Data: map[string]string{
			"matchId": m.ID,
			"type":    notificationLive,
			"url":     m.LiveURL,
		},
	}
}
