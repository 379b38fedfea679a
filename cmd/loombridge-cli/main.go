// Package main provides the loombridge-cli tool for inspecting the provider
// catalog and validating catalog overlay files.
package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	aibridge "github.com/loomworks/ai-bridge"
	"github.com/loomworks/ai-bridge/internal/version"
	"github.com/loomworks/ai-bridge/providers"
)

func main() {
	root := &cobra.Command{
		Use:           "loombridge-cli",
		Short:         "LoomBridge catalog inspection tool",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(providersCmd(), modelsCmd(), optionsCmd(), validateCmd(), versionCmd())
	if err := root.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func fatalf(format string, args ...interface{}) {
	fmt.Fprintf(os.Stderr, format+"\n", args...)
	os.Exit(1)
}

func providersCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "providers",
		Short: "List catalog providers",
		Run: func(_ *cobra.Command, _ []string) {
			fmt.Printf("%-14s %-18s %-10s %-7s %s\n", "ID", "NAME", "WIRE", "AUTH", "MODELS")
			for _, d := range providers.Default().All() {
				fmt.Printf("%-14s %-18s %-10s %-7s %d language, %d image\n",
					d.ID, d.DisplayName, d.Wire, d.Auth.Kind,
					len(d.LanguageModels), len(d.ImageModels))
			}
		},
	}
}

func modelsCmd() *cobra.Command {
	var modality string
	cmd := &cobra.Command{
		Use:   "models <provider>",
		Short: "List a provider's models and capabilities",
		Args:  cobra.ExactArgs(1),
		Run: func(_ *cobra.Command, args []string) {
			desc, err := providers.Default().Find(args[0])
			if err != nil {
				fatalf("Error: %v", err)
			}
			switch modality {
			case "", "language", "image":
			default:
				fatalf("Error: invalid modality %q (want language or image)", modality)
			}

			if modality == "" || modality == string(providers.ModalityLanguage) {
				for _, m := range desc.LanguageModels {
					fmt.Printf("%-44s language  %s\n", m.ID, strings.Join(capabilityTags(m), ","))
				}
			}
			if modality == "" || modality == string(providers.ModalityImage) {
				for _, m := range desc.ImageModels {
					fmt.Printf("%-44s image     sizes=%s\n", m.ID, strings.Join(m.Sizes, "|"))
				}
			}
		},
	}
	cmd.Flags().StringVar(&modality, "modality", "", "filter by modality (language or image)")
	return cmd
}

func capabilityTags(m providers.LanguageModel) []string {
	var tags []string
	if m.FunctionCalling {
		tags = append(tags, "tools")
	}
	if m.Vision {
		tags = append(tags, "vision")
	}
	if m.Streaming {
		tags = append(tags, "streaming")
	}
	if m.JSONMode {
		tags = append(tags, "json")
	}
	if m.Reasoning {
		tags = append(tags, "reasoning")
	}
	return tags
}

func optionsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "options <provider> <model>",
		Short: "Show a model's advanced option variants",
		Args:  cobra.ExactArgs(2),
		Run: func(_ *cobra.Command, args []string) {
			bridge, err := aibridge.New()
			if err != nil {
				fatalf("Error: %v", err)
			}
			desc, err := bridge.Find(args[0])
			if err != nil {
				fatalf("Error: %v", err)
			}
			if _, ok := desc.ModelModality(args[1]); !ok {
				fatalf("Error: provider %s has no model %q", desc.ID, args[1])
			}

			opts := bridge.AdvancedOptions(args[0], args[1])
			if len(opts) == 0 {
				fmt.Printf("%s/%s exposes no advanced options\n", desc.ID, args[1])
				return
			}
			for _, opt := range opts {
				fmt.Printf("  %-18s %s\n", opt.Kind, strings.Join(opt.Values, ", "))
			}
		},
	}
}

func validateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "validate <catalog-file>",
		Short: "Validate a catalog overlay file (JSON/YAML)",
		Args:  cobra.ExactArgs(1),
		Run: func(_ *cobra.Command, args []string) {
			merged, err := aibridge.LoadCatalogFile(args[0], providers.Builtin())
			if err != nil {
				fatalf("Validation error: %v", err)
			}

			var ids []string
			for _, d := range merged {
				ids = append(ids, d.ID)
			}
			fmt.Printf("✓ Catalog is valid\n")
			fmt.Printf("  Providers: %d\n", len(merged))
			fmt.Printf("  IDs:       %s\n", strings.Join(ids, ", "))
		},
	}
}

func versionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version info",
		Run: func(_ *cobra.Command, _ []string) {
			fmt.Printf("loombridge-cli %s\n", version.String())
		},
	}
}
