package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/jward/unexport"
	"github.com/jward/unexport/internal/config"
)

var runCmd = &cobra.Command{
	Use:   "run JOB",
	Short: "Run a batch job file",
	Long:  "Transforms every [[target]] of a TOML job file, in parallel unless the job sets parallel = false.",
	Args:  cobra.ExactArgs(1),
	RunE:  runJob,
}

func runJob(cmd *cobra.Command, args []string) error {
	start := time.Now()

	job, err := config.Load(args[0])
	if err != nil {
		return outputError(cmd, "run", err)
	}

	jobs := make([]unexport.Job, len(job.Targets))
	for i, t := range job.Targets {
		var lang unexport.Language
		if t.Language != "" {
			l, ok := unexport.ParseLanguage(t.Language)
			if !ok {
				return outputError(cmd, "run", fmt.Errorf("target %s: unknown language %q", t.Path, t.Language))
			}
			lang = l
		}
		jobs[i] = unexport.Job{
			Path:     t.Path,
			Language: lang,
			Remove:   t.Remove,
			Policy:   t.Policy,
			Out:      t.Out,
		}
	}

	opts := []unexport.Option{
		unexport.WithLogger(logger),
		unexport.WithParallel(job.Parallel),
		unexport.WithWorkers(job.Workers),
		unexport.WithCollapseImports(job.CollapseImports),
	}
	if job.Cache != "" {
		opts = append(opts, unexport.WithCache(job.Cache))
	}
	if job.PolicyDir != "" {
		opts = append(opts, unexport.WithPolicyDir(job.PolicyDir))
	}
	engine, err := unexport.New(opts...)
	if err != nil {
		return outputError(cmd, "run", fmt.Errorf("creating engine: %w", err))
	}
	defer engine.Close()

	results, procErr := engine.ProcessFiles(cmd.Context(), jobs)
	files := make([]CLIFile, len(results))
	cached := 0
	for i, r := range results {
		files[i] = toCLIFile(r)
		if r.Cached {
			cached++
		}
	}

	logger.Info().
		Int("files", len(files)).
		Int("cached", cached).
		Dur("elapsed", time.Since(start)).
		Msg("job finished")

	if flagFormat == "text" {
		formatFilesText(cmd.OutOrStdout(), files)
		return procErr
	}
	result := CLIResult{Command: "run", Results: files}
	if procErr != nil {
		result.Error = procErr.Error()
		errorHandled = true
	}
	if err := outputResult(cmd, result); err != nil {
		return err
	}
	return procErr
}
