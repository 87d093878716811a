package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"text/tabwriter"

	"Atlas/core/playlist"
	"Atlas/logger"
	"Atlas/model"

	"github.com/spf13/cobra"
)

var (
	playlistName string
	playlistSort string
)

var playlistCmd = &cobra.Command{
	Use:     "playlist",
	Aliases: []string{"playlists"},
	Short:   "播放列表管理",
}

var playlistImportCmd = &cobra.Command{
	Use:   "import FILE.m3u",
	Short: "导入 M3U 播放列表",
	Long:  `Resolves every entry of an M3U file against the indexed libraries and stores the matches as a playlist. Entries outside any library or not indexed yet are reported and skipped.`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		file, err := filepath.Abs(args[0])
		if err != nil {
			return err
		}
		f, err := os.Open(file)
		if err != nil {
			return err
		}
		defer f.Close()

		entries, err := playlist.ParseM3U(f, filepath.Dir(file))
		if err != nil {
			return fmt.Errorf("parse %s: %w", file, err)
		}

		a, err := openApp(cmd.Context(), cfg, false)
		if err != nil {
			return err
		}
		defer a.close()

		name := playlistName
		if name == "" {
			name = strings.TrimSuffix(filepath.Base(file), filepath.Ext(file))
		}
		p := playlist.New(name, a.cart, append([]playlist.Option{playlist.WithBus(a.bus)}, a.plOpts...)...)

		var missing int
		for _, e := range entries {
			lib, rel, err := a.libs.Locate(e.Path)
			if err != nil {
				missing++
				logger.Warn("playlist entry outside every library", logger.String("path", e.Path))
				continue
			}
			t, err := a.cart.FindTrackByPath(lib.ID, rel)
			if err != nil {
				missing++
				logger.Warn("playlist entry not indexed", logger.String("path", e.Path))
				continue
			}
			p.Add(t.ID)
		}

		a.cart.AddPlaylist(p)
		if err := a.store.SavePlaylist(cmd.Context(), p.Snapshot()); err != nil {
			return err
		}
		fmt.Printf("imported %q (%s): %d tracks, %d entries skipped\n", p.Name, p.ID, p.Len(), missing)
		return nil
	},
}

var playlistShowCmd = &cobra.Command{
	Use:   "show [ID]",
	Short: "查看播放列表，不带参数时列出全部",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd.Context(), cfg, false)
		if err != nil {
			return err
		}
		defer a.close()

		tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		defer tw.Flush()

		if len(args) == 0 {
			fmt.Fprintln(tw, "ID\tNAME\tTRACKS\tSORT")
			for _, p := range a.cart.Playlists() {
				fmt.Fprintf(tw, "%s\t%s\t%d\t%s\n", p.ID, p.Name, p.Len(), p.Model())
			}
			return nil
		}

		id, err := model.ParseID(args[0])
		if err != nil {
			return fmt.Errorf("invalid playlist id %q", args[0])
		}
		p, err := a.cart.GetPlaylist(id)
		if err != nil {
			return err
		}
		if playlistSort != "" {
			m, err := playlist.ParseSortModel(playlistSort)
			if err != nil {
				return err
			}
			p.ApplyModel(m)
		}

		cur, _ := p.Current()
		fmt.Fprintf(tw, "#\tTITLE\tARTIST\tALBUM\n")
		for i, tid := range p.Tracks() {
			marker := ""
			if tid == cur {
				marker = "▶"
			}
			t, err := a.cart.GetTrack(tid)
			if err != nil {
				fmt.Fprintf(tw, "%d%s\t(missing %s)\t\t\n", i+1, marker, tid)
				continue
			}
			artist, album := "", ""
			if ar, err := a.cart.GetArtist(t.ArtistID); err == nil {
				artist = ar.Name
			}
			if al, err := a.cart.GetAlbum(t.AlbumID); err == nil {
				album = al.Name
			}
			fmt.Fprintf(tw, "%d%s\t%s\t%s\t%s\n", i+1, marker, t.Title, artist, album)
		}
		return nil
	},
}

func init() {
	playlistImportCmd.Flags().StringVar(&playlistName, "name", "", "playlist name (default: file name)")
	playlistShowCmd.Flags().StringVar(&playlistSort, "sort", "", "sort model: newest, oldest, album, artist, track_name")

	playlistCmd.AddCommand(playlistImportCmd, playlistShowCmd)
	rootCmd.AddCommand(playlistCmd)
}
