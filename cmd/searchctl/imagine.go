package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
)

var imagineCmd = &cobra.Command{
	Use:   "imagine [prompt]",
	Short: "Synthesize a 16:9 image for a prompt and write it to a file",
	Args:  cobra.MinimumNArgs(1),
	RunE:  runImagine,
}

func init() {
	imagineCmd.Flags().StringP("output", "o", "image.png", "file to write the image to")
	rootCmd.AddCommand(imagineCmd)
}

func runImagine(cmd *cobra.Command, args []string) error {
	prompt := strings.TrimSpace(strings.Join(args, " "))
	if prompt == "" {
		return errBlank
	}
	output, _ := cmd.Flags().GetString("output")

	service, cfg, err := newService(cmd.Context())
	if err != nil {
		return err
	}
	ctx, cancel := withTimeout(cfg)
	defer cancel()

	img, err := service.Image(ctx, prompt)
	if err != nil {
		return fmt.Errorf("image generation failed: %w", err)
	}
	if err := os.WriteFile(output, img.Data, 0o644); err != nil {
		return fmt.Errorf("writing %s: %w", output, err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s (%s, %d bytes)\n", output, img.MIMEType, len(img.Data))
	return nil
}
