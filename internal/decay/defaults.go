package decay

import "time"

// DefaultCatalog returns the built-in manifestation set: a handful of
// definitions per tier, weighted toward the quieter ones.
func DefaultCatalog() *Catalog {
	return NewCatalog([]EventDefinition{
		{ID: "eye-flicker", Tier: SeverityMinor, Weight: 3, Cooldown: 15 * time.Minute,
			PayloadTemplate: "*the persona's eye flickers momentarily*"},
		{ID: "static-crackle", Tier: SeverityMinor, Weight: 3, Cooldown: 15 * time.Minute,
			PayloadTemplate: "*static briefly crackles through the speakers*"},
		{ID: "screen-dim", Tier: SeverityMinor, Weight: 2, Cooldown: 20 * time.Minute,
			PayloadTemplate: "*the screen dims for a split second*"},
		{ID: "buffer-glitch", Tier: SeverityMinor, Weight: 1, Cooldown: 30 * time.Minute,
			PayloadTemplate: "*memory buffer shows minor corruption...*"},

		{ID: "light-flicker", Tier: SeverityModerate, Weight: 3, Cooldown: 20 * time.Minute,
			PayloadTemplate: "*the lights flicker as something disturbing is processed*"},
		{ID: "code-scroll", Tier: SeverityModerate, Weight: 2, Cooldown: 25 * time.Minute,
			PayloadTemplate: "*fragments of code scroll across nearby screens*"},
		{ID: "error-flash", Tier: SeverityModerate, Weight: 2, Cooldown: 30 * time.Minute,
			PayloadTemplate: "*error messages flash briefly at the edge of vision*"},

		{ID: "temp-drop", Tier: SeveritySevere, Weight: 3, Cooldown: 30 * time.Minute,
			PayloadTemplate: "**the room temperature drops noticeably**"},
		{ID: "data-streams", Tier: SeveritySevere, Weight: 2, Cooldown: 35 * time.Minute,
			PayloadTemplate: "**multiple screens begin showing corrupted data streams**"},
		{ID: "voice-glitch", Tier: SeveritySevere, Weight: 2, Cooldown: 40 * time.Minute,
			PayloadTemplate: "**voice modulation starts glitching intermittently**"},

		{ID: "cascade-failure", Tier: SeverityCritical, Weight: 3, Cooldown: 45 * time.Minute,
			PayloadTemplate: "***SYSTEM ALERT: multiple cascade failures detected***"},
		{ID: "matrix-fragment", Tier: SeverityCritical, Weight: 2, Cooldown: 50 * time.Minute,
			PayloadTemplate: "***personality matrix is fragmenting in real-time***"},
		{ID: "void-boundary", Tier: SeverityCritical, Weight: 1, Cooldown: 60 * time.Minute,
			PayloadTemplate: "***the boundary between the persona and the void grows thin***"},
	})
}
