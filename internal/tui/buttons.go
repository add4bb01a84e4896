package tui

import (
	"github.com/hay-kot/adbdeck/internal/actions"
	"github.com/hay-kot/adbdeck/internal/core/config"
	"github.com/hay-kot/adbdeck/internal/core/styles"
)

// gridColumns is the number of buttons per row.
const gridColumns = 4

type buttonKind int

const (
	buttonAction buttonKind = iota
	buttonRefresh
	buttonSaveLogs
	buttonFlash
	buttonRootCheck
	buttonLogcat
	buttonInstall
	buttonPush
	buttonPull
	buttonScreenshot
	buttonApps
	buttonDiagnostics
	buttonScript
	buttonFastboot
	buttonUser
)

// button is one entry of the action grid.
type button struct {
	Label   string
	Icon    string
	Kind    buttonKind
	Action  actions.Simple     // buttonAction only
	Command config.UserCommand // buttonUser only
}

func (b button) Title() string {
	return b.Icon + " " + b.Label
}

var catalogIcons = map[string]string{
	"reboot":      styles.IconReboot,
	"soft-reboot": styles.IconSoftReboot,
	"recovery":    styles.IconRecovery,
	"bootloader":  styles.IconBootloader,
	"download":    styles.IconDownload,
	"edl":         styles.IconEDL,
	"shutdown":    styles.IconShutdown,
}

// buildButtons lays out the grid: device refresh, the reboot catalog, the
// composite operations and finally any user-defined commands.
func buildButtons(cmds []config.UserCommand) []button {
	out := []button{{Label: "Refresh", Icon: styles.IconRefresh, Kind: buttonRefresh}}

	for _, a := range actions.Catalog {
		out = append(out, button{Label: a.Label, Icon: catalogIcons[a.Key], Kind: buttonAction, Action: a})
	}

	out = append(out,
		button{Label: "Save Logs", Icon: styles.IconSave, Kind: buttonSaveLogs},
		button{Label: "Flash", Icon: styles.IconFlash, Kind: buttonFlash},
		button{Label: "Root Check", Icon: styles.IconRoot, Kind: buttonRootCheck},
		button{Label: "Logcat", Icon: styles.IconLogcat, Kind: buttonLogcat},
		button{Label: "Install APK", Icon: styles.IconInstall, Kind: buttonInstall},
		button{Label: "Push File", Icon: styles.IconPush, Kind: buttonPush},
		button{Label: "Pull File", Icon: styles.IconPull, Kind: buttonPull},
		button{Label: "Screenshot", Icon: styles.IconScreenshot, Kind: buttonScreenshot},
		button{Label: "List Apps", Icon: styles.IconApps, Kind: buttonApps},
		button{Label: "Battery/Temp", Icon: styles.IconBattery, Kind: buttonDiagnostics},
		button{Label: "Run .sh", Icon: styles.IconScript, Kind: buttonScript},
		button{Label: "Fastboot Devices", Icon: styles.IconFastboot, Kind: buttonFastboot},
	)

	for _, uc := range cmds {
		out = append(out, button{Label: uc.Name, Icon: styles.IconCustom, Kind: buttonUser, Command: uc})
	}
	return out
}

// moveSelection returns the index reached by moving (dx, dy) cells from
// cur in a grid of n buttons. Moves that leave the grid are ignored.
func moveSelection(cur, n, dx, dy int) int {
	if n == 0 {
		return 0
	}
	next := cur + dx + dy*gridColumns
	if dx != 0 && next/gridColumns != cur/gridColumns {
		return cur
	}
	if next < 0 || next >= n {
		return cur
	}
	return next
}
