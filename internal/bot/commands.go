package bot

// Command constants for Telegram bot commands.
const (
	CommandStart         = "/start"
	CommandHelp          = "/help"
	CommandMenu          = "/menu"
	CommandCancel        = "/cancel"
	CommandLogin         = "/login"
	CommandRegister      = "/register"
	CommandLogout        = "/logout"
	CommandProfile       = "/profile"
	CommandSettings      = "/settings"
	CommandNotifications = "/notifications"

	CommandSlots     = "/slots"
	CommandCasino    = "/casino"
	CommandLive      = "/live"
	CommandSearch    = "/search"
	CommandFavorites = "/favorites"
	CommandRecent    = "/recent"

	CommandDeposit      = "/deposit"
	CommandWithdraw     = "/withdraw"
	CommandTransactions = "/transactions"
	CommandMethods      = "/methods"
	CommandBonuses      = "/bonuses"
	CommandVIP          = "/vip"

	CommandAdmin             = "/admin"
	CommandAdminUsers        = "/admin_users"
	CommandAdminBonuses      = "/admin_bonuses"
	CommandAdminNewBonus     = "/admin_newbonus"
	CommandAdminTransactions = "/admin_transactions"
	CommandAdminContent      = "/admin_content"
)

// menuCommands are published to Telegram's command list; the description of
// each is the "commands.<name>" translation. Admin commands stay unlisted.
var menuCommands = []string{
	CommandStart,
	CommandSlots,
	CommandCasino,
	CommandLive,
	CommandSearch,
	CommandFavorites,
	CommandRecent,
	CommandDeposit,
	CommandWithdraw,
	CommandTransactions,
	CommandBonuses,
	CommandVIP,
	CommandProfile,
	CommandNotifications,
	CommandSettings,
	CommandLogin,
	CommandLogout,
	CommandCancel,
	CommandHelp,
}
