package ui

import (
	"github.com/pterm/pterm"
)

func PrintBanner(version string) {
	logo := `
    __  ____           _       __      __       __
   /  |/  (_)___  ___ | |     / /___ _/ /______/ /_
  / /|_/ / / __ \/ _ \| | /| / / __ ` + "`" + `/ __/ ___/ __ \
 / /  / / / / / /  __/| |/ |/ / /_/ / /_/ /__/ / / /
/_/  /_/_/_/ /_/\___/ |__/|__/\__,_/\__/\___/_/ /_/
`
	pterm.FgYellow.Println(logo)
	pterm.DefaultCenter.Println(pterm.FgGray.Sprint(version + " - Covert Mining Risk Scanner"))
	pterm.Println()

	pterm.DefaultBox.
		WithTitle(pterm.FgYellow.Sprint("⚠️  HEURISTIC ASSESSMENT ⚠️")).
		WithTitleBottomCenter().
		WithRightPadding(2).
		WithLeftPadding(2).
		Println("Risk levels are scored from usage and permission signals.\nA HIGH verdict is a lead for investigation, not proof of mining.")

	pterm.Println()
}
