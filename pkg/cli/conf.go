package cli

import (
	"context"
	"fmt"

	urfave "github.com/urfave/cli/v3"
)

func newConfigCmd() *urfave.Command {
	return &urfave.Command{
		Name:            "config",
		Aliases:         []string{"c"},
		Usage:           "Print the effective configuration (creates config.yaml when missing)",
		HideHelpCommand: true,
		Action:          cmdConfig,
	}
}

func cmdConfig(_ context.Context, cmd *urfave.Command) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}

	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("config is not usable: %w", err)
	}

	if err := encode(cmd, cfg); err != nil {
		return fmt.Errorf("error encoding config: %w", err)
	}
	return nil
}
