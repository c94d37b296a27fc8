package mergesubs

import (
	"encoding/json"
	"fmt"

	processor "github.com/jaym/mergesubs/processors"
	"github.com/spf13/cobra"
)

var probeCmd = &cobra.Command{
	Use:   "probe media_file",
	Short: "List the subtitle streams of a media file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		all, _ := cmd.Flags().GetBool("all")

		streams, err := processor.FFProbe{}.Probe(args[0])
		if err != nil {
			return err
		}
		if !all {
			streams = processor.SubtitleStreams(streams)
		}
		if streams == nil {
			streams = []processor.StreamInfo{}
		}

		return printJSON(cmd, streams)
	},
}

// printJSON pretty prints v on the command's output.
func printJSON(cmd *cobra.Command, v any) error {
	o, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	_, err = fmt.Fprintln(cmd.OutOrStdout(), string(o))
	return err
}

func init() {
	probeCmd.Flags().Bool("all", false, "list every stream, not only subtitles")
	rootCmd.AddCommand(probeCmd)
}
