// reelctl drives the reel API from the command line: upload a clip, submit a
// render, follow its progress and let the temporary upload be cleaned up
// afterwards.
package main

import (
	"context"
	"fmt"
	"mime"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"reel/internal/composition"
	"reel/internal/models"
	"reel/internal/orchestrator"
	"reel/internal/pkg/logger"
	"reel/internal/renderapi"
	"reel/internal/uploader"
)

var (
	apiBaseURL string

	filePath    string
	contentType string
	title       string
	width       int
	height      int
	duration    int
	fps         int
)

func main() {
	root := &cobra.Command{
		Use:           "reelctl",
		Short:         "Drive reel video renders from the command line",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&apiBaseURL, "api", envOr("REEL_API_URL", "http://localhost:8080"), "base URL of the reel API")

	renderCmd := &cobra.Command{
		Use:   "render",
		Short: "Upload an optional clip and render the composition",
		RunE:  runRender,
	}
	renderCmd.Flags().StringVar(&filePath, "file", "", "video clip to upload (optional)")
	renderCmd.Flags().StringVar(&contentType, "content-type", "", "MIME type of the clip (default: derived from extension)")
	renderCmd.Flags().StringVar(&title, "title", composition.DefaultTitle, "title text")
	renderCmd.Flags().IntVar(&width, "width", 0, "override composition width")
	renderCmd.Flags().IntVar(&height, "height", 0, "override composition height")
	renderCmd.Flags().IntVar(&duration, "duration", 0, "override duration in frames")
	renderCmd.Flags().IntVar(&fps, "fps", 0, "override frames per second")

	statusCmd := &cobra.Command{
		Use:   "status <renderId>",
		Short: "Show one progress observation for a render",
		Args:  cobra.ExactArgs(1),
		RunE:  runStatus,
	}

	cleanupCmd := &cobra.Command{
		Use:   "cleanup <bucket> <key>",
		Short: "Delete a temporary uploaded object",
		Args:  cobra.ExactArgs(2),
		RunE:  runCleanup,
	}

	root.AddCommand(renderCmd, statusCmd, cleanupCmd)

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

func runRender(cmd *cobra.Command, _ []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	log := logger.New(logger.Config{
		Level:       envOr("LOG_LEVEL", "warn"),
		Format:      "text",
		ServiceName: "reelctl",
	})

	api := renderapi.NewClient(apiBaseURL)
	machine := orchestrator.New(orchestrator.Deps{
		Uploader: uploader.New(api),
		Renderer: api,
		Cleaner:  orchestrator.NewReconciler(api, log),
		Log:      log,
	})

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()
	go func() { _ = machine.Run(runCtx) }()

	if filePath != "" {
		in, err := clipInput(filePath, contentType, width, height)
		if err != nil {
			return err
		}
		defer in.Body.(*os.File).Close()
		fmt.Printf("uploading %s (%s, %d bytes)\n", filePath, in.ContentType, in.Size)
		if err := machine.SelectFile(ctx, in); err != nil {
			return err
		}
	}

	if err := machine.TriggerRender(ctx, buildRequest()); err != nil {
		return err
	}

	return follow(ctx, machine, cancel)
}

// follow prints status transitions until the render settles. Cleanup of an
// uploaded clip is handed off by the machine itself; we only give it a moment
// to fire before exiting.
func follow(ctx context.Context, machine *orchestrator.Machine, cancel context.CancelFunc) error {
	lastShown := -1
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case s := <-machine.Updates():
			switch s.Display {
			case orchestrator.DisplayUploading:
				if lastShown != 0 {
					fmt.Println("uploading...")
					lastShown = 0
				}
			case orchestrator.DisplayRendering:
				pct := int(s.Progress * 100)
				if pct != lastShown {
					fmt.Printf("rendering... %d%%\n", pct)
					lastShown = pct
				}
			case orchestrator.DisplayDone:
				fmt.Printf("done: %s (%d bytes)\n", s.OutputURL, s.OutputSize)
				time.Sleep(500 * time.Millisecond) // let cleanup fire
				cancel()
				return nil
			case orchestrator.DisplayError:
				time.Sleep(500 * time.Millisecond)
				cancel()
				return fmt.Errorf("render failed: %s", s.Message)
			}
		}
	}
}

func runStatus(cmd *cobra.Command, args []string) error {
	api := renderapi.NewClient(apiBaseURL)
	res, err := api.Progress(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	switch {
	case res.Done():
		fmt.Printf("done: %s (%d bytes)\n", res.URL, res.Size)
	case res.Failed():
		fmt.Printf("failed: %s\n", res.Message)
	default:
		pct := 0
		if res.Progress != nil {
			pct = int(*res.Progress * 100)
		}
		fmt.Printf("%s: %d%%\n", res.Status, pct)
	}
	return nil
}

func runCleanup(cmd *cobra.Command, args []string) error {
	api := renderapi.NewClient(apiBaseURL)
	ref := models.AssetReference{Bucket: args[0], Key: args[1]}
	if err := api.Delete(cmd.Context(), ref); err != nil {
		return err
	}
	fmt.Println("deleted", args[0]+"/"+args[1])
	return nil
}

func clipInput(path, mimeType string, w, h int) (uploader.Input, error) {
	f, err := os.Open(path)
	if err != nil {
		return uploader.Input{}, err
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return uploader.Input{}, err
	}

	if mimeType == "" {
		mimeType = mime.TypeByExtension(filepath.Ext(path))
		if mimeType == "" {
			mimeType = "video/mp4"
		}
	}
	if w <= 0 {
		w = composition.DefaultWidth
	}
	if h <= 0 {
		h = composition.DefaultHeight
	}

	return uploader.Input{
		FileName:    filepath.Base(path),
		ContentType: mimeType,
		Width:       w,
		Height:      h,
		Body:        f,
		Size:        info.Size(),
	}, nil
}

func buildRequest() composition.RenderRequest {
	props := composition.Defaults()
	props.Title = title
	if width > 0 {
		v := width
		props.Width = &v
	}
	if height > 0 {
		v := height
		props.Height = &v
	}
	if duration > 0 {
		v := duration
		props.DurationInFrames = &v
	}
	if fps > 0 {
		v := fps
		props.FPS = &v
	}
	return composition.RenderRequest{ID: composition.Name, InputProps: props}
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
