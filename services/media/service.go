package media

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	kkdai "github.com/kkdai/youtube/v2"
	"github.com/nijaru/yt-quiz/errors"
	"github.com/nijaru/yt-quiz/scraper"
	"github.com/nijaru/yt-quiz/utils"
	"github.com/nijaru/yt-quiz/youtube"
	"github.com/sirupsen/logrus"
)

const (
	DefaultWarnSize int64 = 100 * 1024 * 1024
	DefaultMaxSize  int64 = 500 * 1024 * 1024
)

var ErrTooLarge = errors.New("file exceeds the maximum download size")

// QualityLadder is tried after the requested selector when yt-dlp downloads.
var QualityLadder = []string{"best[height<=720]", "worst"}

type Service interface {
	ListFormats(ctx context.Context, input string) (*FormatList, error)
	// Download saves one rendition to disk. progress receives the bytes written and may be nil.
	Download(ctx context.Context, req DownloadRequest, progress io.Writer) (*DownloadResult, error)
}

// Player is the part of the kkdai client used for renditions and streams.
type Player interface {
	GetVideoContext(ctx context.Context, url string) (*kkdai.Video, error)
	GetStreamContext(ctx context.Context, video *kkdai.Video, format *kkdai.Format) (io.ReadCloser, int64, error)
}

type Tool interface {
	Dump(ctx context.Context, videoURL string) (*scraper.Info, error)
	Download(ctx context.Context, videoURL string, opts scraper.DownloadOptions) error
}

// Strategy is one yt-dlp configuration tried by the download fallback.
type Strategy struct {
	Name          string
	Tool          Tool
	PlayerClients []string
}

type Config struct {
	DownloadDir string
	WarnSize    int64
	MaxSize     int64
}

type Format struct {
	ID            string `json:"id"`
	Quality       string `json:"quality"`
	MimeType      string `json:"mime_type,omitempty"`
	Ext           string `json:"ext"`
	Width         int    `json:"width,omitempty"`
	Height        int    `json:"height,omitempty"`
	AudioChannels int    `json:"audio_channels,omitempty"`
	Bitrate       int    `json:"bitrate,omitempty"`
	Size          int64  `json:"size,omitempty"`
	SizeHuman     string `json:"size_human,omitempty"`
	HasVideo      bool   `json:"has_video"`
	HasAudio      bool   `json:"has_audio"`
}

// Resolution formats width and height as WxH, or "audio only".
func (f Format) Resolution() string {
	if f.Width == 0 || f.Height == 0 {
		if f.HasAudio && !f.HasVideo {
			return "audio only"
		}
		return ""
	}
	return fmt.Sprintf("%dx%d", f.Width, f.Height)
}

type FormatList struct {
	VideoID  string        `json:"video_id"`
	Title    string        `json:"title"`
	Duration time.Duration `json:"duration"`
	Source   string        `json:"source"`
	Formats  []Format      `json:"formats"`
}

type DownloadRequest struct {
	VideoID  string `json:"video_id"`
	FormatID string `json:"format_id,omitempty"`
	Quality  string `json:"quality,omitempty"`
	DestDir  string `json:"dest_dir,omitempty"`
}

type DownloadResult struct {
	Path      string `json:"path"`
	Size      int64  `json:"size"`
	SizeHuman string `json:"size_human"`
	Source    string `json:"source"`
	Strategy  string `json:"strategy,omitempty"`
	Selector  string `json:"selector,omitempty"`
	Warning   string `json:"warning,omitempty"`
}

type service struct {
	player     Player
	strategies []Strategy
	config     Config
	logger     *logrus.Logger
}

func NewService(player Player, strategies []Strategy, config Config, logger *logrus.Logger) Service {
	if config.WarnSize <= 0 {
		config.WarnSize = DefaultWarnSize
	}
	if config.MaxSize <= 0 {
		config.MaxSize = DefaultMaxSize
	}
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &service{
		player:     player,
		strategies: strategies,
		config:     config,
		logger:     logger,
	}
}

func (s *service) ListFormats(ctx context.Context, input string) (*FormatList, error) {
	const op = "MediaService.ListFormats"

	videoID, err := youtube.ParseVideoID(input)
	if err != nil {
		return nil, errors.InvalidInput(op, err, "Invalid YouTube URL or video ID")
	}
	logger := s.logger.WithField("video_id", videoID)

	video, err := s.player.GetVideoContext(ctx, videoID)
	if err == nil && len(video.Formats) > 0 {
		return &FormatList{
			VideoID:  videoID,
			Title:    video.Title,
			Duration: video.Duration,
			Source:   "kkdai",
			Formats:  fromPlayerFormats(video.Formats),
		}, nil
	}
	if err != nil {
		logger.WithError(err).Warn("Player lookup failed, falling back to yt-dlp")
	}

	var lastErr error = err
	for _, st := range s.strategies {
		info, err := st.Tool.Dump(ctx, youtube.WatchURL(videoID))
		if err != nil {
			logger.WithError(err).WithField("strategy", st.Name).Warn("yt-dlp format lookup failed")
			lastErr = err
			continue
		}
		return &FormatList{
			VideoID:  videoID,
			Title:    info.Title,
			Duration: time.Duration(info.Duration * float64(time.Second)),
			Source:   "ytdlp",
			Formats:  fromToolFormats(info.Formats),
		}, nil
	}

	return nil, errors.BadGateway(op, lastErr, "Could not list formats for this video")
}

func (s *service) Download(ctx context.Context, req DownloadRequest, progress io.Writer) (*DownloadResult, error) {
	const op = "MediaService.Download"

	videoID, err := youtube.ParseVideoID(req.VideoID)
	if err != nil {
		return nil, errors.InvalidInput(op, err, "Invalid YouTube URL or video ID")
	}
	dir := req.DestDir
	if dir == "" {
		dir = s.config.DownloadDir
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, errors.Internal(op, err, "Failed to create download directory")
	}
	logger := s.logger.WithFields(logrus.Fields{"video_id": videoID, "format": req.FormatID})

	var title string
	video, err := s.player.GetVideoContext(ctx, videoID)
	if err != nil {
		logger.WithError(err).Warn("Player lookup failed")
	} else {
		title = video.Title
		res, err := s.streamDownload(ctx, video, req, dir, progress)
		switch {
		case err == nil:
			return s.finish(op, res)
		case errors.Is(err, ErrTooLarge):
			return nil, s.tooLarge(op)
		case ctx.Err() != nil:
			return nil, errors.Internal(op, ctx.Err(), "Download cancelled")
		default:
			logger.WithError(err).Warn("Stream download failed, falling back to yt-dlp")
		}
	}

	res, err := s.toolDownload(ctx, videoID, title, req, dir)
	if err != nil {
		return nil, errors.BadGateway(op, err, "Download failed with every strategy")
	}
	return s.finish(op, res)
}

// streamDownload copies the chosen itag straight from the player stream.
func (s *service) streamDownload(ctx context.Context, video *kkdai.Video, req DownloadRequest, dir string, progress io.Writer) (*DownloadResult, error) {
	format, err := pickFormat(video.Formats, req.FormatID, req.Quality)
	if err != nil {
		return nil, err
	}
	if format.ContentLength > s.config.MaxSize {
		return nil, ErrTooLarge
	}

	stream, _, err := s.player.GetStreamContext(ctx, video, format)
	if err != nil {
		return nil, err
	}
	defer stream.Close()

	quality := format.QualityLabel
	if quality == "" {
		quality = strconv.Itoa(format.ItagNo)
	}
	path := filepath.Join(dir, utils.OutputName(video.Title, video.ID, quality, mimeExt(format.MimeType)))

	f, err := os.Create(path)
	if err != nil {
		return nil, err
	}

	var w io.Writer = f
	if progress != nil {
		w = io.MultiWriter(f, progress)
	}

	// One byte past the limit is enough to know the file is too large.
	n, err := io.Copy(w, io.LimitReader(stream, s.config.MaxSize+1))
	closeErr := f.Close()
	if err == nil {
		err = closeErr
	}
	if err != nil {
		os.Remove(path)
		return nil, err
	}

	return &DownloadResult{Path: path, Size: n, Source: "kkdai", Selector: strconv.Itoa(format.ItagNo)}, nil
}

// toolDownload walks strategies, and within each the quality ladder, until yt-dlp succeeds.
func (s *service) toolDownload(ctx context.Context, videoID, title string, req DownloadRequest, dir string) (*DownloadResult, error) {
	selectors := make([]string, 0, len(QualityLadder)+1)
	if sel := requestedSelector(req); sel != "" {
		selectors = append(selectors, sel)
	}
	selectors = append(selectors, QualityLadder...)

	label := req.Quality
	if label == "" {
		label = req.FormatID
	}
	base := utils.OutputName(title, videoID, label, "")

	var lastErr error
	for _, st := range s.strategies {
		for _, sel := range selectors {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}

			entry := s.logger.WithFields(logrus.Fields{
				"video_id": videoID,
				"strategy": st.Name,
				"selector": sel,
			})

			err := st.Tool.Download(ctx, youtube.WatchURL(videoID), scraper.DownloadOptions{
				Format:         sel,
				OutputTemplate: filepath.Join(dir, base+".%(ext)s"),
				PlayerClients:  st.PlayerClients,
			})
			if err != nil {
				entry.WithError(err).Warn("yt-dlp download attempt failed")
				lastErr = err
				continue
			}

			path, size, err := findOutput(dir, base)
			if err != nil {
				lastErr = err
				continue
			}

			entry.Info("yt-dlp download succeeded")
			return &DownloadResult{Path: path, Size: size, Source: "ytdlp", Strategy: st.Name, Selector: sel}, nil
		}
	}

	if lastErr == nil {
		lastErr = errors.New("no download strategies configured")
	}
	return nil, lastErr
}

// finish applies the size policy to a completed download.
func (s *service) finish(op string, res *DownloadResult) (*DownloadResult, error) {
	if res.Size > s.config.MaxSize {
		os.Remove(res.Path)
		return nil, s.tooLarge(op)
	}
	if res.Size >= s.config.WarnSize {
		res.Warning = fmt.Sprintf("Large file (%s). Download may take a while.", humanize.Bytes(uint64(res.Size)))
	}
	res.SizeHuman = humanize.Bytes(uint64(res.Size))
	return res, nil
}

func (s *service) tooLarge(op string) error {
	msg := fmt.Sprintf("File is larger than the %s limit", humanize.Bytes(uint64(s.config.MaxSize)))
	return errors.E(op, ErrTooLarge, msg, http.StatusRequestEntityTooLarge)
}

func requestedSelector(req DownloadRequest) string {
	if req.FormatID != "" {
		return req.FormatID
	}
	q := strings.TrimSuffix(strings.ToLower(req.Quality), "p")
	if n, err := strconv.Atoi(q); err == nil && n > 0 {
		return fmt.Sprintf("best[height<=%d]", n)
	}
	if req.Quality != "" {
		return req.Quality
	}
	return "best"
}

func pickFormat(formats kkdai.FormatList, formatID, quality string) (*kkdai.Format, error) {
	if formatID != "" {
		itag, err := strconv.Atoi(formatID)
		if err != nil {
			return nil, fmt.Errorf("format %q is not an itag", formatID)
		}
		for i := range formats {
			if formats[i].ItagNo == itag {
				return &formats[i], nil
			}
		}
		return nil, fmt.Errorf("itag %d not offered", itag)
	}

	// Progressive formats carry both audio and video.
	var best *kkdai.Format
	for i := range formats {
		f := &formats[i]
		if f.AudioChannels == 0 || f.Width == 0 {
			continue
		}
		if quality != "" && !strings.EqualFold(f.QualityLabel, quality) {
			continue
		}
		if best == nil || f.Height > best.Height {
			best = f
		}
	}
	if best == nil {
		return nil, fmt.Errorf("no progressive format for quality %q", quality)
	}
	return best, nil
}

func findOutput(dir, base string) (string, int64, error) {
	matches, err := filepath.Glob(filepath.Join(dir, globEscape(base)+".*"))
	if err != nil {
		return "", 0, err
	}
	for _, m := range matches {
		if strings.HasSuffix(m, ".part") || strings.HasSuffix(m, ".ytdl") {
			continue
		}
		fi, err := os.Stat(m)
		if err != nil || fi.IsDir() {
			continue
		}
		return m, fi.Size(), nil
	}
	return "", 0, fmt.Errorf("downloaded file not found for %s", base)
}

func globEscape(s string) string {
	r := strings.NewReplacer("[", "\\[", "]", "\\]", "*", "\\*", "?", "\\?")
	return r.Replace(s)
}

func mimeExt(mime string) string {
	base, _, _ := strings.Cut(mime, ";")
	kind, sub, ok := strings.Cut(strings.TrimSpace(base), "/")
	if !ok {
		return "bin"
	}
	if kind == "audio" && sub == "mp4" {
		return "m4a"
	}
	return sub
}

func fromPlayerFormats(formats kkdai.FormatList) []Format {
	out := make([]Format, 0, len(formats))
	for _, f := range formats {
		out = append(out, Format{
			ID:            strconv.Itoa(f.ItagNo),
			Quality:       playerQuality(f),
			MimeType:      f.MimeType,
			Ext:           mimeExt(f.MimeType),
			Width:         f.Width,
			Height:        f.Height,
			AudioChannels: f.AudioChannels,
			Bitrate:       f.Bitrate,
			Size:          f.ContentLength,
			SizeHuman:     humanSize(f.ContentLength),
			HasVideo:      strings.HasPrefix(f.MimeType, "video/"),
			HasAudio:      f.AudioChannels > 0,
		})
	}
	return out
}

func playerQuality(f kkdai.Format) string {
	if f.QualityLabel != "" {
		return f.QualityLabel
	}
	return f.Quality
}

func fromToolFormats(formats []scraper.Format) []Format {
	out := make([]Format, 0, len(formats))
	for _, f := range formats {
		quality := f.FormatNote
		if quality == "" {
			quality = f.Resolution
		}
		out = append(out, Format{
			ID:        f.FormatID,
			Quality:   quality,
			Ext:       f.Ext,
			Width:     f.Width,
			Height:    f.Height,
			Bitrate:   int(f.TBR * 1000),
			Size:      f.Size(),
			SizeHuman: humanSize(f.Size()),
			HasVideo:  f.HasVideo(),
			HasAudio:  f.HasAudio(),
		})
	}
	return out
}

func humanSize(n int64) string {
	if n <= 0 {
		return ""
	}
	return humanize.Bytes(uint64(n))
}
