package cfg

type Cfg struct {
	// Storage
	DBPath   string
	FeedsDir string
	SeedFile string

	// IRC connection
	IRCHost          string
	IRCPort          int
	IRCPassword      string
	IRCSSL           bool
	IRCChannel       string
	IRCNick          string
	NickServPassword string
	IgnorePrivmsg    bool
	PublicHelp       bool

	// Announcement policy
	IdleMinutes         int
	WaitForFirstMsg     bool
	DateFormat          string
	FeedLimit           int
	FeedOrderDesc       bool
	UseColors           bool
	UpdateBeforeConnect bool

	// Link shortening
	ShortenThreshold int
	ShortenerURL     string
	ShortenerKey     string

	// HTTP
	FetchTimeout int // seconds
	UserAgent    string
	APIPort      string
	APIAccessKey string

	// Application metadata
	LogFile  string
	Timezone string
	Debug    bool
	Version  string
}
