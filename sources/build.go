package sources

import (
	"github.com/nijaru/yt-quiz/config"
	"github.com/nijaru/yt-quiz/scraper"
	"github.com/sirupsen/logrus"
)

// ScraperConfig maps application settings to yt-dlp options, with cookies when withCookies is set.
func ScraperConfig(cfg *config.Config, withCookies bool) scraper.Config {
	sc := scraper.Config{
		Proxy:         cfg.Sources.YtDlpProxy,
		SocketTimeout: cfg.Media.SocketTimeout,
		Retries:       cfg.Media.Retries,
	}
	if withCookies {
		sc.CookiesFromBrowser = cfg.Sources.CookiesFromBrowser
		sc.CookiesFile = cfg.Sources.CookiesFile
	}
	return sc
}

// NewChainFromConfig assembles the fallback chain in its fixed priority order:
//
//	ytdlp, ytdlp+cookies, subtitle-download, captions, captions@<proxy>...
//
// Steps that need settings which are absent are left out.
func NewChainFromConfig(cfg *config.Config, logger *logrus.Logger, opts ...ChainOption) (*Chain, error) {
	direct, err := NewHTTPClient(cfg.Sources.HTTPTimeout, "")
	if err != nil {
		return nil, err
	}

	plain := scraper.NewRunner(ScraperConfig(cfg, false), logger)
	list := []Source{NewYtDlp(plain, direct)}

	downloadRunner := plain
	if cfg.Sources.UsesCookies() {
		withCookies := plain.WithConfig(ScraperConfig(cfg, true))
		list = append(list, NewYtDlp(withCookies, direct))
		downloadRunner = withCookies
	}

	list = append(list, NewSubtitleDownload(downloadRunner, cfg.TempDir))
	list = append(list, NewCaptions(direct, ""))

	for _, p := range cfg.Sources.Proxies {
		client, err := NewHTTPClient(cfg.Sources.HTTPTimeout, p)
		if err != nil {
			return nil, err
		}
		list = append(list, NewCaptions(client, p))
	}

	base := []ChainOption{
		WithLogger(logger),
		WithStepTimeout(cfg.Sources.StepTimeout),
		WithCookieLabel(ScraperConfig(cfg, true).CookieLabel()),
	}
	return NewChain(list, append(base, opts...)...), nil
}
