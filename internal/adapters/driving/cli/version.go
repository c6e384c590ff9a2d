package cli

import (
	"runtime"
	"runtime/debug"

	"github.com/spf13/cobra"
)

var versionShort bool

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Long: `Prints the docqa version with the Go toolchain and platform. Binaries built
from a git checkout also report the commit.`,
	Run: func(cmd *cobra.Command, _ []string) {
		if versionShort {
			cmd.Printf("%s\n", version)
			return
		}
		cmd.Printf("docqa version %s\n", version)
		cmd.Printf("  go:     %s %s/%s\n", runtime.Version(), runtime.GOOS, runtime.GOARCH)
		info, _ := debug.ReadBuildInfo()
		if rev := revision(info); rev != "" {
			cmd.Printf("  commit: %s\n", rev)
		}
	},
}

func init() {
	versionCmd.Flags().BoolVar(&versionShort, "short", false, "print only the version number")
	rootCmd.AddCommand(versionCmd)
}

// revision returns the abbreviated VCS commit recorded in info, with a
// "-dirty" suffix for builds from a modified tree.
func revision(info *debug.BuildInfo) string {
	if info == nil {
		return ""
	}
	var rev string
	var dirty bool
	for _, s := range info.Settings {
		switch s.Key {
		case "vcs.revision":
			rev = s.Value
		case "vcs.modified":
			dirty = s.Value == "true"
		}
	}
	if rev == "" {
		return ""
	}
	if len(rev) > 12 {
		rev = rev[:12]
	}
	if dirty {
		rev += "-dirty"
	}
	return rev
}
