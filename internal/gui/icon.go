package gui

import "fyne.io/fyne/v2"

// iconSVG is an open book under a small star.
const iconSVG = `<svg xmlns="http://www.w3.org/2000/svg" viewBox="0 0 256 256">
<rect width="256" height="256" rx="48" fill="#3b5ba5"/>
<path d="M128 84 C104 64 64 60 36 68 V196 C64 188 104 192 128 212 Z" fill="#fdf6e3"/>
<path d="M128 84 C152 64 192 60 220 68 V196 C192 188 152 192 128 212 Z" fill="#f4e9c8"/>
<path d="M128 84 V212" stroke="#3b5ba5" stroke-width="6"/>
<path d="M128 18 L138 40 L162 42 L144 57 L150 80 L128 68 L106 80 L112 57 L94 42 L118 40 Z" fill="#ffd54f"/>
</svg>`

// GetAppIcon returns the application icon as a Fyne resource
func GetAppIcon() fyne.Resource {
	return fyne.NewStaticResource("storybuddy.svg", []byte(iconSVG))
}
