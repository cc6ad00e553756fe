package gencmder

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/spheronhq/iclgen/agent"
	"github.com/spheronhq/iclgen/pkg/icl"
	"github.com/spheronhq/iclgen/pkg/knowledge"
	"github.com/spheronhq/iclgen/pkg/llm"
	"github.com/spheronhq/iclgen/pkg/logger"
	"github.com/spheronhq/iclgen/pkg/prompt"
)

const generateLongDesc string = `Generate a single ICL configuration from a natural-language request.

The request is sent through the full loop: prompt composition, generation,
YAML extraction, and schema validation. The validated document is printed
to stdout and saved under the output directory with a timestamped name.

Examples:
  iclgen generate "Deploy a Node.js app with 2GB RAM and autoscaling 2 to 5 instances"
  iclgen generate --out configs --knowledge icl-knowledge.yaml "Set up a Redis cache with 2GB memory"`

const generateShortDesc string = "One-shot configuration generation"

type generateCommander struct {
	outputDir     string
	knowledgePath string
	model         string
	debug         bool
}

func NewGenerateCmd() *cobra.Command {
	cmder := &generateCommander{}

	cmd := &cobra.Command{
		Use:   "generate <request>",
		Short: generateShortDesc,
		Long:  generateLongDesc,
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmder.run(cmd.Context(), cmd, strings.Join(args, " "))
		},
	}

	cmd.Flags().StringVarP(&cmder.outputDir, "out", "o", "configs", "Directory for saved configurations")
	cmd.Flags().StringVar(&cmder.knowledgePath, "knowledge", "", "Path to a YAML knowledge-base file")
	cmd.Flags().StringVar(&cmder.model, "model", "", "Gemini model name")
	cmd.Flags().BoolVar(&cmder.debug, "debug", false, "Enable debug logging")

	return cmd
}

func (c *generateCommander) run(ctx context.Context, cmd *cobra.Command, request string) error {
	log := logger.NewLogger(c.debug)
	defer log.Sync()

	base := knowledge.Default()
	if c.knowledgePath != "" {
		loaded, err := knowledge.Load(c.knowledgePath)
		if err != nil {
			return err
		}
		base = loaded
	}

	client, err := llm.NewGeminiClient(ctx, llm.GeminiConfig{
		APIKey: os.Getenv("GEMINI_API_KEY"),
		Model:  c.model,
	})
	if err != nil {
		return fmt.Errorf("could not create generation client: %w", err)
	}

	a := agent.New(client, prompt.NewComposer(base, 0), icl.DefaultSchema(), nil, log)
	sess := agent.NewSession("one-shot")

	result := a.HandleMessage(ctx, sess, request)
	if result.ErrorKind != "" {
		for _, fieldErr := range result.ValidationErrors {
			fmt.Fprintf(cmd.ErrOrStderr(), "  %s: %s\n", fieldErr.Path, fieldErr.Message)
		}
		return fmt.Errorf("generation failed (%s): %s", result.ErrorKind, result.Reply)
	}

	fmt.Fprintln(cmd.OutOrStdout(), result.DocumentYAML)

	path, err := c.save(result.DocumentYAML)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "\nConfiguration saved to %s\n", path)

	return nil
}

// save writes the document under the output directory with a timestamped
// filename.
func (c *generateCommander) save(yamlText string) (string, error) {
	if err := os.MkdirAll(c.outputDir, 0o755); err != nil {
		return "", fmt.Errorf("could not create output directory: %w", err)
	}

	name := fmt.Sprintf("icl_config_%s.yaml", time.Now().Format("20060102_150405"))
	path := filepath.Join(c.outputDir, name)

	if err := os.WriteFile(path, []byte(yamlText+"\n"), 0o644); err != nil {
		return "", fmt.Errorf("could not save configuration: %w", err)
	}

	return path, nil
}
