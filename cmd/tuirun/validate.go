package main

import (
	"fmt"

	"github.com/blang/semver"
	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/wwsheng009/tuirun/backend"
	"github.com/wwsheng009/tuirun/config"
)

var (
	validateRoot              string
	validateBackendABI        string
	validateDrawlistVersion   int
	validateEventBatchVersion int
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Validate engine configuration and an optional backend ABI advertisement",
	RunE:  runValidate,
}

func init() {
	validateCmd.Flags().StringVar(&validateRoot, "root", "", "application root to load .env/tuirun.yaml from")
	validateCmd.Flags().StringVar(&validateBackendABI, "backend-abi", "", "backend engineAbi to check, e.g. 1.2.0")
	validateCmd.Flags().IntVar(&validateDrawlistVersion, "backend-drawlist-version", backend.DrawlistVersion, "backend drawlistVersion to check")
	validateCmd.Flags().IntVar(&validateEventBatchVersion, "backend-event-batch-version", backend.EventBatchVersion, "backend eventBatchVersion to check")
}

func runValidate(cmd *cobra.Command, args []string) error {
	cfg := config.LoadWithRoot(validateRoot)
	if err := config.Validate(&cfg); err != nil {
		fmt.Printf("%s config invalid: %v\n", color.RedString("FAIL"), err)
		return err
	}
	fmt.Printf("%s config valid\n", color.GreenString("PASS"))
	fmt.Printf("  maxFramesInFlight: %d\n", cfg.MaxFramesInFlight)
	fmt.Printf("  maxEventBytes:     %d\n", cfg.MaxEventBytes)
	fmt.Printf("  fpsCap:            %d\n", cfg.FPSCap)
	fmt.Printf("  executionMode:     %s\n", cfg.ExecutionMode)

	if validateBackendABI == "" {
		return nil
	}

	abiVersion, err := semver.Parse(validateBackendABI)
	if err != nil {
		return fmt.Errorf("parse --backend-abi: %w", err)
	}

	info := backend.ABIInfo{
		EngineABI:         abiVersion,
		DrawlistVersion:   validateDrawlistVersion,
		EventBatchVersion: validateEventBatchVersion,
	}
	if err := backend.CheckABI(info); err != nil {
		fmt.Printf("%s backend ABI: %v\n", color.RedString("FAIL"), err)
		return err
	}
	fmt.Printf("%s backend ABI %s compatible with runtime %s\n", color.GreenString("PASS"), abiVersion, backend.EngineABI)
	return nil
}
