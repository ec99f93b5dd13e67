package cmd

import (
	"encoding/json"
	"fmt"
	"io"

	"cosmossdk.io/log"
	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/subhasisjena1643/tapnad/internal/config"
)

const binaryName = "tapnadd"

// NewRootCmd creates a new root command for tapnadd. It is called once in main.
func NewRootCmd() *cobra.Command {
	v := config.NewViper()

	rootCmd := &cobra.Command{
		Use:           binaryName,
		Short:         "Bitcoin vs Ethereum tap race ABCI application",
		SilenceErrors: true,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			// set the default command outputs
			cmd.SetOut(cmd.OutOrStdout())
			cmd.SetErr(cmd.ErrOrStderr())
			return config.BindFlags(v, cmd.Flags())
		},
	}
	config.AddFlags(rootCmd.PersistentFlags())

	rootCmd.AddCommand(
		newStartCmd(v),
		newConfigCmd(v),
		newTxCmd(),
	)
	return rootCmd
}

func newConfigCmd(v *viper.Viper) *cobra.Command {
	return &cobra.Command{
		Use:   "config",
		Short: "Print the effective configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if _, err := config.Load(v); err != nil {
				return err
			}
			b, err := json.MarshalIndent(v.AllSettings(), "", "  ")
			if err != nil {
				return err
			}
			_, err = fmt.Fprintln(cmd.OutOrStdout(), string(b))
			return err
		},
	}
}

func newLogger(w io.Writer, cfg config.Config) (log.Logger, error) {
	lvl, err := zerolog.ParseLevel(cfg.Log.Level)
	if err != nil {
		return nil, fmt.Errorf("parsing log level: %w", err)
	}
	opts := []log.Option{log.LevelOption(lvl)}
	if cfg.Log.Format == config.LogFormatJSON {
		opts = append(opts, log.OutputJSONOption())
	} else {
		opts = append(opts, log.ColorOption(false))
	}
	return log.NewLogger(w, opts...), nil
}
