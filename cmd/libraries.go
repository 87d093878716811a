package cmd

import (
	"fmt"
	"os"
	"path/filepath"
	"text/tabwriter"

	"Atlas/core/library"
	"Atlas/logger"
	"Atlas/model"

	"github.com/spf13/cobra"
)

var (
	libType    string
	libPath    string
	libVolume  string
	libName    string
	libNoIndex bool
)

var librariesCmd = &cobra.Command{
	Use:     "libraries",
	Aliases: []string{"library", "libs"},
	Short:   "媒体库管理",
}

var librariesListCmd = &cobra.Command{
	Use:   "list",
	Short: "列出媒体库",
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd.Context(), cfg, false)
		if err != nil {
			return err
		}
		defer a.close()

		tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "ID\tTYPE\tNAME\tVOLUME\tROOT\tSTATUS")
		for _, l := range a.libs.List() {
			root, ok := l.Root()
			status := "available"
			if !ok {
				status = "unavailable"
				root = l.RelativePath
			}
			vol := l.StorageUUID
			if vol == "" {
				vol = "-"
			}
			fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%s\n", l.ID, l.Type, l.Name, vol, root, status)
		}
		return tw.Flush()
	},
}

var librariesAddCmd = &cobra.Command{
	Use:   "add",
	Short: "添加媒体库并立即索引",
	RunE: func(cmd *cobra.Command, args []string) error {
		typ, err := model.ParseLibraryType(libType)
		if err != nil {
			return err
		}
		root, err := filepath.Abs(libPath)
		if err != nil {
			return err
		}

		a, err := openApp(cmd.Context(), cfg, true)
		if err != nil {
			return err
		}
		defer a.close()

		lib, err := library.New(typ, libVolume, root, libName, a.env)
		if err != nil {
			return err
		}
		if err := a.store.SaveLibrary(cmd.Context(), lib.Descriptor()); err != nil {
			return err
		}
		a.libs.Add(lib)
		fmt.Printf("added %s library %q (%s)\n", lib.Type, lib.Name, lib.ID)

		if !lib.IndexOnCreate || libNoIndex {
			return nil
		}
		if !lib.Available() {
			logger.Warn("new library is not available yet, skipping first index", logger.String("root", root))
			return nil
		}
		return indexOne(cmd.Context(), a, lib)
	},
}

var librariesRemoveCmd = &cobra.Command{
	Use:   "remove ID",
	Short: "删除媒体库，仅在该库中的曲目一并移除",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := openApp(cmd.Context(), cfg, false)
		if err != nil {
			return err
		}
		defer a.close()

		libs, err := a.selectLibraries(args)
		if err != nil {
			return err
		}
		lib := libs[0]
		removed := a.ix.RemoveUnder(cmd.Context(), lib, "")
		if err := a.store.DeleteLibrary(cmd.Context(), lib.ID); err != nil {
			return err
		}
		a.libs.Remove(lib.ID)
		fmt.Printf("removed library %q, %d tracks dropped\n", lib.Name, removed)
		return nil
	},
}

func init() {
	librariesAddCmd.Flags().StringVar(&libType, "type", "music", "library type: music, audiobook or podcast")
	librariesAddCmd.Flags().StringVar(&libPath, "path", "", "library root directory")
	librariesAddCmd.Flags().StringVar(&libVolume, "volume", "", "filesystem UUID of the removable volume holding the root")
	librariesAddCmd.Flags().StringVar(&libName, "name", "", "display name (default: directory name)")
	librariesAddCmd.Flags().BoolVar(&libNoIndex, "no-index", false, "do not index right away")
	librariesAddCmd.MarkFlagRequired("path")

	librariesCmd.AddCommand(librariesListCmd, librariesAddCmd, librariesRemoveCmd)
	rootCmd.AddCommand(librariesCmd)
}
