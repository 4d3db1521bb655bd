package res

const (
	AppName       = "duoplay"
	DisplayName   = "Duoplay"
	AppVersion    = "0.1.0"
	AppVersionTag = "v" + AppVersion
	ConfigFile    = "config.toml"
	GithubURL     = "https://github.com/dweymouth/duoplay"
)
