package cmd

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/mjaros/chatterm/internal/assets"
	"github.com/mjaros/chatterm/internal/signal"
	"github.com/mjaros/chatterm/internal/ui"
)

var ocrLanguages string

func init() {
	filesOCRCmd.Flags().StringVar(&ocrLanguages, "lang", assets.DefaultOCRLanguages, "OCR language codes")
	filesCmd.AddCommand(filesUploadCmd)
	filesCmd.AddCommand(filesTextCmd)
	filesCmd.AddCommand(filesOCRCmd)
	filesCmd.AddCommand(filesRmCmd)
	rootCmd.AddCommand(filesCmd)
}

var filesCmd = &cobra.Command{
	Use:   "files",
	Short: "List and manage uploaded files",
	RunE: func(cmd *cobra.Command, args []string) error {
		client := newClient()
		files, err := client.ListFiles(context.Background())
		if err != nil {
			return err
		}
		styles := ui.DefaultStyles()
		if len(files) == 0 {
			fmt.Println(styles.Muted.Render("No uploaded files."))
			return nil
		}
		for _, f := range files {
			fmt.Printf("%s  %s  %s\n",
				styles.Muted.Render(f.ID),
				f.Name,
				styles.Muted.Render(fmt.Sprintf("%s, %d bytes", f.Mime, f.Size)))
		}
		return nil
	},
}

var filesUploadCmd = &cobra.Command{
	Use:   "upload <path> [path...]",
	Short: "Upload one or more files",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext()
		defer stop()

		panel := assets.New(newClient(), logger)
		entries, err := panel.Upload(ctx, args)
		if err != nil {
			return err
		}
		styles := ui.DefaultStyles()
		for _, e := range entries {
			fmt.Println(styles.FormatResult(true, e.Name+" → "+e.URL))
		}
		return nil
	},
}

var filesTextCmd = &cobra.Command{
	Use:   "text <id>",
	Short: "Extract text from an uploaded document",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext()
		defer stop()

		client := newClient()
		text, err := client.ExtractText(ctx, args[0])
		if err != nil {
			return err
		}
		fmt.Println(text)
		return nil
	},
}

var filesOCRCmd = &cobra.Command{
	Use:   "ocr <id>",
	Short: "Run OCR on an uploaded image",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext()
		defer stop()

		client := newClient()
		text, err := client.OCR(ctx, args[0], ocrLanguages)
		if err != nil {
			return err
		}
		fmt.Println(text)
		return nil
	},
}

var filesRmCmd = &cobra.Command{
	Use:   "rm <id>",
	Short: "Delete an uploaded file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		client := newClient()
		if err := client.DeleteFile(context.Background(), args[0]); err != nil {
			return err
		}
		fmt.Println(ui.DefaultStyles().FormatResult(true, "File deleted."))
		return nil
	},
}
