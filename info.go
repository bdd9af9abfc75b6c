package steamsync

import "github.com/opd-ai/steamsync/steam"

// InfoLines renders a profile the way GetInfo reports it. Game, server, real
// name and profile lines are omitted when unknown.
func InfoLines(sum steam.Summary) []string {
	lines := []string{"Name:      " + sum.Nick}
	if sum.Game != nil {
		lines = append(lines, "Playing:   "+*sum.Game)
	}
	if sum.Server != nil {
		lines = append(lines, "Server:    steam://connect/"+*sum.Server)
	}
	if sum.FullName != "" {
		lines = append(lines, "Real Name: "+sum.FullName)
	}
	lines = append(lines,
		"Steam ID:  "+sum.ID.String(),
		"Status:    "+sum.State.String(),
	)
	if sum.ProfileURL != "" {
		lines = append(lines, "Profile:   "+sum.ProfileURL)
	}
	return lines
}
