package styles

// Icons shown next to action labels and in notifications.
var (
	IconReboot     = "🔁"
	IconSoftReboot = "🌙"
	IconRecovery   = "🛠"
	IconBootloader = "⚙"
	IconDownload   = "🔻"
	IconEDL        = "💣"
	IconShutdown   = "🛑"
	IconRefresh    = "🔄"
	IconSave       = "💾"
	IconFlash      = "📂"
	IconRoot       = "🧪"
	IconLogcat     = "📃"
	IconInstall    = "📦"
	IconPush       = "📤"
	IconPull       = "📥"
	IconScreenshot = "📸"
	IconApps       = "📲"
	IconBattery    = "🔋"
	IconScript     = "💻"
	IconFastboot   = "⚡"
	IconCustom     = "▶"
)

// Status marks used in log entries.
var (
	IconOK   = "✔"
	IconFail = "✖"
)
