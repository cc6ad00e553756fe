package validatecmder

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/spheronhq/iclgen/pkg/icl"
)

const validateLongDesc string = `Validate an ICL YAML file against the dialect rules.

Reports every violation with a dotted path to the offending field.
Exit status is non-zero when the document is invalid.

Examples:
  iclgen validate config.yaml
  iclgen validate configs/icl_config_20250114_104205.yaml`

const validateShortDesc string = "Validate an ICL YAML file"

type validateCommander struct{}

func NewValidateCmd() *cobra.Command {
	cmder := &validateCommander{}

	cmd := &cobra.Command{
		Use:   "validate <file>",
		Short: validateShortDesc,
		Long:  validateLongDesc,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmder.run(cmd, args[0])
		},
	}

	return cmd
}

func (c *validateCommander) run(cmd *cobra.Command, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("could not read %s: %w", path, err)
	}

	var doc map[string]any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return fmt.Errorf("%s is not valid YAML: %w", path, err)
	}

	result := icl.DefaultSchema().Validate(doc)
	if result.OK {
		fmt.Fprintf(cmd.OutOrStdout(), "%s is valid ICL\n", path)
		return nil
	}

	for _, fieldErr := range result.Errors {
		fmt.Fprintf(cmd.OutOrStdout(), "  %s: %s\n", fieldErr.Path, fieldErr.Message)
	}

	return fmt.Errorf("%s has %d validation error(s)", path, len(result.Errors))
}
