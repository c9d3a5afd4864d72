package main

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/BaSui01/agentsandbox/agent/execution"
	"github.com/BaSui01/agentsandbox/agent/guardrails"
)

// errGuardViolation 让 main 以退出码 1 结束而不重复打印错误
var errGuardViolation = errors.New("guard violation")

func newCheckCmd(opts *rootOptions) *cobra.Command {
	var lang string

	cmd := &cobra.Command{
		Use:   "check [file]",
		Short: "Screen code for dangerous commands and live secrets without running it",
		Long: `Reads a markdown reply or, with --lang, a raw source file and runs only the
dangerous command guard and the live secret scan over every code block.
Exits 1 on the first violation.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return opts.check(cmd, args, lang)
		},
	}
	cmd.Flags().StringVar(&lang, "lang", "", "Treat the input as raw code in this language instead of markdown")
	return cmd
}

func (o *rootOptions) check(cmd *cobra.Command, args []string, lang string) error {
	cfg, err := o.loadConfig(cmd)
	if err != nil {
		return err
	}
	input, err := o.readInput(args)
	if err != nil {
		return err
	}

	logger := initLogger(cfg.Log)
	defer func() { _ = logger.Sync() }()

	var blocks []execution.CodeBlock
	if lang != "" {
		blocks = []execution.CodeBlock{{Language: execution.Language(lang), Code: input}}
	} else {
		blocks = execution.ExtractCodeBlocks(input)
	}

	guard := guardrails.SanitizerForLevel(guardrails.RestrictionLevel(cfg.Sandbox.RestrictionLevel), logger, nil)
	secrets := guardrails.NewOutputGuard(&guardrails.OutputGuardConfig{
		Names:    cfg.Sandbox.SecretNames,
		Priority: 10,
	}, logger)
	platform := execution.CurrentPlatform()

	for i, block := range blocks {
		tag, _ := execution.GuardLanguage(string(block.Language), platform)
		chain := guardrails.NewChain(guardrails.StageInput,
			guardrails.NewLanguageValidator(guard, tag, 0),
			secrets,
		)
		res, err := chain.Validate(cmd.Context(), block.Code)
		if err != nil {
			return err
		}
		if !res.Valid {
			for _, ve := range res.Errors {
				fmt.Fprintf(o.out, "block %d (%s): %s\n", i+1, block.Language, ve)
			}
			return errGuardViolation
		}
	}

	fmt.Fprintf(o.out, "OK: %d block(s) passed\n", len(blocks))
	return nil
}
