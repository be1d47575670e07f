package cmd

import (
	"context"
	"fmt"
	"text/tabwriter"

	"github.com/nijaru/yt-quiz/services/media"
	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"
)

var (
	downloadFormat  string
	downloadQuality string
	downloadOut     string
)

var formatsCmd = &cobra.Command{
	Use:   "formats <url>",
	Short: "List the downloadable renditions of a video",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(ctx context.Context, a *app) error {
			svc, err := a.media()
			if err != nil {
				return err
			}

			list, err := svc.ListFormats(ctx, args[0])
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "%s (%s)\n\n", list.Title, list.VideoID)
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "ID\tQUALITY\tTYPE\tRESOLUTION\tCHANNELS\tSIZE")
			for _, f := range list.Formats {
				fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%d\t%s\n",
					f.ID, f.Quality, mediaType(f), f.Resolution(), f.AudioChannels, f.SizeHuman)
			}
			if err := w.Flush(); err != nil {
				return err
			}
			fmt.Fprintf(cmd.ErrOrStderr(), "%d formats from %s\n", len(list.Formats), list.Source)
			return nil
		})
	},
}

var downloadCmd = &cobra.Command{
	Use:   "download <url>",
	Short: "Download a video rendition",
	Example: `  yt-quiz download dQw4w9WgXcQ --quality 720p
  yt-quiz download dQw4w9WgXcQ --format 18 --out ./videos`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withApp(cmd, func(ctx context.Context, a *app) error {
			svc, err := a.media()
			if err != nil {
				return err
			}

			bar := progressbar.DefaultBytes(-1, "downloading")
			res, err := svc.Download(ctx, media.DownloadRequest{
				VideoID:  args[0],
				FormatID: downloadFormat,
				Quality:  downloadQuality,
				DestDir:  downloadOut,
			}, bar)
			_ = bar.Finish()
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "\nSaved %s (%s) via %s", res.Path, res.SizeHuman, res.Source)
			if res.Strategy != "" {
				fmt.Fprintf(cmd.OutOrStdout(), " [%s, %s]", res.Strategy, res.Selector)
			}
			fmt.Fprintln(cmd.OutOrStdout())
			if res.Warning != "" {
				fmt.Fprintf(cmd.ErrOrStderr(), "Warning: %s\n", res.Warning)
			}
			return nil
		})
	},
}

func mediaType(f media.Format) string {
	switch {
	case f.HasVideo && f.HasAudio:
		return "video+audio"
	case f.HasVideo:
		return "video"
	case f.HasAudio:
		return "audio"
	}
	return f.Ext
}

func init() {
	flags := downloadCmd.Flags()
	flags.StringVarP(&downloadFormat, "format", "f", "", "format ID (itag or yt-dlp format_id)")
	flags.StringVarP(&downloadQuality, "quality", "q", "", "quality such as 720p, or a yt-dlp selector")
	flags.StringVar(&downloadOut, "out", "", "output directory (default: DOWNLOAD_DIR)")

	rootCmd.AddCommand(formatsCmd, downloadCmd)
}
