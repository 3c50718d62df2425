package config

// Default values for configuration
const (
	DefaultLogLevel = "info"
	DefaultLogJSON  = true

	DefaultTransportKind = TransportSlack

	DefaultBotName    = "glossarybot"
	DefaultBotTrigger = "vra"

	DefaultDBPath = "./data/glossary.db"

	DefaultSQLMaintenanceSchedule = "0 0 3 * * *" // 03:00 every day
)

// DefaultBotMessages are used when the config file leaves them out.
var DefaultBotMessages = BotMessages{
	Welcome:  "Hi everyone! I'm the glossary bot. Start a message with my keyword and a term, and I'll reply with what it means.",
	NotFound: "I don't have a definition for \"%s\" yet.",
}

// DefaultTasks lists the scheduled tasks known to the bot and their
// default state.
var DefaultTasks = map[string]TaskConfig{
	"sql_maintenance": {Enabled: false, Schedule: DefaultSQLMaintenanceSchedule},
}
