package main

import (
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	chatcmder "github.com/spheronhq/iclgen/cmd/iclgen/chat"
	gencmder "github.com/spheronhq/iclgen/cmd/iclgen/generate"
	servecmder "github.com/spheronhq/iclgen/cmd/iclgen/serve"
	sessionscmder "github.com/spheronhq/iclgen/cmd/iclgen/sessions"
	validatecmder "github.com/spheronhq/iclgen/cmd/iclgen/validate"
)

const rootLongDesc = `iclgen turns natural-language infrastructure requirements into valid
Spheron ICL YAML configurations, refined conversationally across turns.

Run "iclgen serve" to start the HTTP API, "iclgen chat" for a terminal
chat client, or "iclgen generate" for a one-shot generation.`

func main() {
	// A .env file is the usual home for GEMINI_API_KEY during development;
	// its absence is not an error.
	_ = godotenv.Load()

	root := &cobra.Command{
		Use:          "iclgen",
		Short:        "Conversational Spheron ICL configuration generator",
		Long:         rootLongDesc,
		SilenceUsage: true,
	}

	root.AddCommand(
		servecmder.NewServeCmd(),
		gencmder.NewGenerateCmd(),
		validatecmder.NewValidateCmd(),
		chatcmder.NewChatCmd(),
		sessionscmder.NewSessionsCmd(),
	)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
