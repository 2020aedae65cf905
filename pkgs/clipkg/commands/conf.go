package commands

import (
	"github.com/WangWilly/xCrawl/pkgs/config"
	"github.com/spf13/cobra"
)

var confCMD = &cobra.Command{
	Use:   "conf",
	Short: "reconfigure",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := setup(cmd, false)
		if err != nil {
			return err
		}
		defer a.Close()

		if _, err := config.PromptConfig(a.confPath()); err != nil {
			return err
		}
		a.logger.Infoln("config done")
		return nil
	},
}
