package main

import (
	"context"
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/yaoapp/kun/log"

	"github.com/wwsheng009/tuirun/app"
	"github.com/wwsheng009/tuirun/backend"
	"github.com/wwsheng009/tuirun/config"
	"github.com/wwsheng009/tuirun/theme"
	"github.com/wwsheng009/tuirun/vnode"
)

var runFrames int

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run a small demo program through the frame scheduler",
	Long:  "Runs a counter demo for a fixed number of frames, printing one diagnostic line per frame instead of painting a real terminal.",
	RunE:  runDemo,
}

func init() {
	runCmd.Flags().IntVar(&runFrames, "frames", 5, "number of frames to run before exiting")
}

type demoState struct{ n int }

func demoView(s interface{}) vnode.Node {
	ds := s.(demoState)
	return vnode.Node{Kind: vnode.Column, Children: []vnode.Node{
		{Kind: vnode.Text, Text: "tuirun demo"},
		{Kind: vnode.Button, Props: vnode.Props{"label": fmt.Sprintf("tick %d", ds.n), "key": "tick"}},
	}}
}

func runDemo(cmd *cobra.Command, args []string) error {
	cfg := config.Load()
	if err := config.Validate(&cfg); err != nil {
		return err
	}

	b := newStdoutBackend()
	if err := backend.CheckABI(b.GetABI()); err != nil {
		return err
	}

	a := app.New(demoState{}, demoView, app.Config{
		MaxFramesInFlight: cfg.MaxFramesInFlight,
		UseV2Cursor:       cfg.UseV2Cursor,
		Theme:             theme.Dark,
	})
	a.AttachBackend(b)

	ctx := context.Background()
	caps, err := b.GetCaps(ctx)
	if err != nil {
		return err
	}
	a.SetViewport(caps.Width, caps.Height)

	for i := 0; i < runFrames; i++ {
		a.Dispatch(func(prev interface{}) interface{} {
			ds := prev.(demoState)
			return demoState{n: ds.n + 1}
		})
		if _, err := a.RunFrame(ctx); err != nil {
			log.Error("tuirun run: frame %d failed: %v", i, err)
			return err
		}
	}

	fmt.Println(color.YellowString("demo finished after %d frames", runFrames))
	return nil
}
