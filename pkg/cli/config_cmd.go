package cli

import (
	"fmt"
	"maps"
	"slices"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/getmockd/devserve/pkg/cli/internal/output"
	"github.com/getmockd/devserve/pkg/config"
)

// ConfigOutput is the JSON form of the config command.
type ConfigOutput struct {
	Config  *config.Configuration `json:"config"`
	Sources map[string]string     `json:"sources"`
}

func newConfigCommand(f *flagValues) *cobra.Command {
	var jsonOutput bool
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show the effective configuration and where each value came from",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			loadEnvFiles(cmd.ErrOrStderr(), ".")
			cfg, err := loadConfiguration(cmd, f)
			if err != nil {
				return err
			}
			if jsonOutput {
				return output.JSON(cmd.OutOrStdout(), ConfigOutput{Config: cfg, Sources: cfg.Sources})
			}

			tw := output.Table(cmd.OutOrStdout())
			fmt.Fprintln(tw, "KEY\tVALUE\tSOURCE")
			for _, row := range configRows(cfg) {
				source := cfg.Sources[row[0]]
				if source == "" {
					source = config.SourceDefault
				}
				fmt.Fprintf(tw, "%s\t%s\t%s\n", row[0], row[1], source)
			}
			return tw.Flush()
		},
	}
	cmd.Flags().BoolVar(&jsonOutput, "json", false, "Output in JSON format")
	return cmd
}

func configRows(cfg *config.Configuration) [][2]string {
	rules := cfg.Rules.File
	if rules == "" && len(cfg.Rules.Set) > 0 {
		rules = fmt.Sprintf("(%d inline rules)", len(cfg.Rules.Set))
	}

	engine := cfg.Engine.Name
	if len(cfg.Engine.Map) > 0 {
		pairs := make([]string, 0, len(cfg.Engine.Map))
		for _, ext := range slices.Sorted(maps.Keys(cfg.Engine.Map)) {
			pairs = append(pairs, ext+"="+cfg.Engine.Map[ext])
		}
		engine = strings.TrimSpace(engine + " " + strings.Join(pairs, ","))
	}

	return [][2]string{
		{"port", strconv.Itoa(cfg.Port)},
		{"https", strconv.FormatBool(cfg.HTTPS)},
		{"host", cfg.Host},
		{"rules", rules},
		{"online", strconv.FormatBool(cfg.Online)},
		{"dir", cfg.Dir},
		{"views", cfg.Views},
		{"engine", engine},
		{"ext", cfg.Ext},
		{"launch", strconv.FormatBool(cfg.Launch)},
		{"spec", cfg.Spec},
		{"logLevel", cfg.LogLevel},
		{"logFormat", cfg.LogFormat},
	}
}
