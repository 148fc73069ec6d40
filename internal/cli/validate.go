package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var validateRunner = runValidate

func newValidateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Check an API description without generating code",
		Example: strings.TrimSpace(`  restcoder validate --input petstore.yaml
  restcoder validate --input https://api.example.com/openapi.json --method GET`),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := resolveGenerateConfig(cmd)
			if err != nil {
				return err
			}
			return validateRunner(cmd.Context(), cfg)
		},
	}
	addInputFlags(cmd.Flags())
	return cmd
}

func runValidate(ctx context.Context, cfg *GenerateConfig) error {
	log := newLogger(cfg.errOut(), cfg.Verbose)
	api, err := loadAPI(ctx, cfg, log)
	if err != nil {
		return err
	}
	ops := 0
	for _, r := range api.Resources {
		ops += len(r.Operations)
	}
	fmt.Fprintf(cfg.out(), "%s is valid: %d resources, %d operations, %d data types\n",
		api.Name, len(api.Resources), ops, len(api.DataTypes))
	return nil
}
