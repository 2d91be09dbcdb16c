// Command cmoc6809 drives the element store, rewrite engine, and writer
// against a simple line-oriented assembly source, the way cmd/z80opt
// drives its superoptimizer search: a cobra root command with a handful
// of subcommands, each a thin wrapper around one pkg/* entry point.
package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/sarrazip/cmoc6809/pkg/asm"
	"github.com/sarrazip/cmoc6809/pkg/frontend"
	"github.com/sarrazip/cmoc6809/pkg/rewrite"
	"github.com/sarrazip/cmoc6809/pkg/session"
	"github.com/spf13/cobra"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "cmoc6809",
		Short: "6809 assembly element store, peephole rewriter, and writer",
	}

	var output string
	var enableStage2 bool
	var target string
	var functionID string

	compileCmd := &cobra.Command{
		Use:   "compile [source]",
		Short: "Parse a function body, optimize it, and emit final assembly",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, sess, err := loadAndOptimize(args[0], functionID, target, enableStage2)
			if err != nil {
				return err
			}
			store.EmitEnd()

			out := os.Stdout
			if output != "" {
				f, err := os.Create(output)
				if err != nil {
					return err
				}
				defer f.Close()
				out = f
			}
			if err := store.Write(out); err != nil {
				return fmt.Errorf("writing assembly: %w", err)
			}
			if sess.ErrorCount() > 0 {
				return fmt.Errorf("%d error(s) during compilation", sess.ErrorCount())
			}
			return nil
		},
	}
	compileCmd.Flags().StringVarP(&output, "output", "o", "", "output file (default: stdout)")
	compileCmd.Flags().BoolVar(&enableStage2, "stage2", false, "enable stage-2 rewrite rules")
	compileCmd.Flags().StringVar(&target, "target", "coco-disk-basic", "target machine: coco-disk-basic, os9, vectrex")
	compileCmd.Flags().StringVar(&functionID, "function", "main", "identifier for the parsed function")

	dumpCmd := &cobra.Command{
		Use:   "dump-elements [source]",
		Short: "Parse a function body and print its elements as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := os.Open(args[0])
			if err != nil {
				return err
			}
			defer f.Close()

			store := asm.NewStore()
			if err := frontend.Read(f, store, functionID); err != nil {
				return err
			}
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(store.Elements())
		},
	}
	dumpCmd.Flags().StringVar(&functionID, "function", "main", "identifier for the parsed function")

	optimizeCmd := &cobra.Command{
		Use:   "optimize [source]",
		Short: "Parse, run the rewrite engine to a fixed point, and report what fired",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, sess, err := loadAndOptimizeVerbose(args[0], functionID, target, enableStage2)
			if err != nil {
				return err
			}
			if sess.ErrorCount() > 0 {
				return fmt.Errorf("%d error(s) during compilation", sess.ErrorCount())
			}
			return nil
		},
	}
	optimizeCmd.Flags().BoolVar(&enableStage2, "stage2", false, "enable stage-2 rewrite rules")
	optimizeCmd.Flags().StringVar(&target, "target", "coco-disk-basic", "target machine: coco-disk-basic, os9, vectrex")
	optimizeCmd.Flags().StringVar(&functionID, "function", "main", "identifier for the parsed function")

	rootCmd.AddCommand(compileCmd, dumpCmd, optimizeCmd)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "cmoc6809:", err)
		os.Exit(1)
	}
}

func parseTarget(name string) session.Target {
	switch name {
	case "os9":
		return session.TargetOS9
	case "vectrex":
		return session.TargetVectrex
	default:
		return session.TargetDiskBasic
	}
}

func loadAndOptimize(path, functionID, target string, stage2 bool) (*asm.Store, *session.Session, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	defer f.Close()

	store := asm.NewStore()
	if err := frontend.Read(f, store, functionID); err != nil {
		return nil, nil, err
	}

	sess := session.New(parseTarget(target))
	sess.EnableStage2 = stage2
	rewrite.NewEngine().Run(store, sess)
	return store, sess, nil
}

func loadAndOptimizeVerbose(path, functionID, target string, stage2 bool) (*asm.Store, *session.Session, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	defer f.Close()

	store := asm.NewStore()
	if err := frontend.Read(f, store, functionID); err != nil {
		return nil, nil, err
	}

	sess := session.New(parseTarget(target))
	sess.EnableStage2 = stage2
	fmt.Printf("cmoc6809: optimizing %q for target %s (stage2=%v)\n", path, sess.Target, stage2)

	engine := rewrite.NewEngine()
	engine.Report = rewrite.NewReport()
	stats := engine.Run(store, sess)

	fmt.Printf("  passes: %d\n", stats.Passes)
	for name, count := range stats.RulesFired {
		fmt.Printf("  %-45s fired %d time(s)\n", name, count)
	}
	fmt.Printf("  estimated bytes saved: %d (%d firing(s))\n", engine.Report.TotalBytesSaved(), engine.Report.Len())
	return store, sess, nil
}
