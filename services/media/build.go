package media

import (
	kkdai "github.com/kkdai/youtube/v2"
	"github.com/nijaru/yt-quiz/config"
	"github.com/nijaru/yt-quiz/scraper"
	"github.com/nijaru/yt-quiz/sources"
	"github.com/sirupsen/logrus"
)

// MobileClients simulates the Android app, which YouTube throttles less often.
var MobileClients = []string{"android", "web"}

// Strategies returns the yt-dlp download strategies in the order they are
// tried: default client, cookies when configured, then mobile simulation.
func Strategies(cfg *config.Config, logger *logrus.Logger) []Strategy {
	plain := scraper.NewRunner(sources.ScraperConfig(cfg, false), logger)
	list := []Strategy{{Name: "default", Tool: plain}}

	mobile := plain
	if cfg.Sources.UsesCookies() {
		withCookies := plain.WithConfig(sources.ScraperConfig(cfg, true))
		list = append(list, Strategy{Name: "cookies", Tool: withCookies})
		mobile = withCookies
	}

	return append(list, Strategy{Name: "mobile", Tool: mobile, PlayerClients: MobileClients})
}

func NewServiceFromConfig(cfg *config.Config, logger *logrus.Logger) (Service, error) {
	// Streams can run for minutes; the request context bounds them.
	client, err := sources.NewHTTPClient(0, cfg.Sources.YtDlpProxy)
	if err != nil {
		return nil, err
	}

	player := &kkdai.Client{HTTPClient: client}
	return NewService(player, Strategies(cfg, logger), Config{
		DownloadDir: cfg.Media.DownloadDir,
		WarnSize:    cfg.Media.WarnSize,
		MaxSize:     cfg.Media.MaxSize,
	}, logger), nil
}
