package http

import "github.com/sawitsmart/backend/internal/domain"

// Style is how a client should paint the sensor sector.
type Style struct {
	Stroke string `json:"stroke"`
	Fill   string `json:"fill"`
}

// Palette maps each severity band onto a sector style.
type Palette struct {
	Normal Style `json:"normal"`
	Warn   Style `json:"warn"`
	Danger Style `json:"danger"`
}

// DefaultPalette is green, amber and red.
var DefaultPalette = Palette{
	Normal: Style{Stroke: "#22c55e", Fill: "rgba(34,197,94,0.15)"},
	Warn:   Style{Stroke: "#f59e0b", Fill: "rgba(250,204,21,0.18)"},
	Danger: Style{Stroke: "#ef4444", Fill: "rgba(239,68,68,0.20)"},
}

// For returns the style of a severity band.
func (p Palette) For(s domain.Severity) Style {
	switch s {
	case domain.SeverityDanger:
		return p.Danger
	case domain.SeverityWarn:
		return p.Warn
	default:
		return p.Normal
	}
}
