// Command extract prints the purchase intent found in a chat message.
//
//	extract --lang fr "je cherche un vélo pour 300 euros"
//	echo "I want a camera, budget 500 usd" | extract -p
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/pflag"

	"github.com/ector/backend/internal/domain"
	"github.com/ector/backend/internal/infrastructure/annotator"
	"github.com/ector/backend/internal/lexicon"
	"github.com/ector/backend/internal/logger"
	"github.com/ector/backend/internal/usecase"
)

func main() {
	if err := run(os.Args[1:], os.Stdin, os.Stdout); err != nil {
		fmt.Fprintln(os.Stderr, "extract:", err)
		os.Exit(1)
	}
}

func run(args []string, stdin io.Reader, stdout io.Writer) error {
	flags := pflag.NewFlagSet("extract", pflag.ContinueOnError)
	lang := flags.StringP("lang", "l", lexicon.English, "message language (en or fr)")
	pretty := flags.BoolP("pretty", "p", false, "indent the JSON output")
	lexiconDir := flags.String("lexicon-dir", "", "directory with <lang>.yaml lexicon overrides")
	policy := flags.String("budget-policy", string(domain.BudgetLastWins), "last_wins or first_wins")
	debug := flags.Bool("debug", false, "log normalization steps to stderr")
	if err := flags.Parse(args); err != nil {
		return err
	}

	text := strings.Join(flags.Args(), " ")
	if text == "" {
		data, err := io.ReadAll(stdin)
		if err != nil {
			return fmt.Errorf("read stdin: %w", err)
		}
		text = string(data)
	}

	lexicons, err := lexicon.Load(*lexiconDir)
	if err != nil {
		return err
	}

	log := logger.NewNoOpLogger()
	if *debug {
		log, err = logger.NewStructured("debug", "console")
		if err != nil {
			return err
		}
	}

	service := usecase.NewExtractionService(
		annotator.NewRuleAnnotator(lexicons),
		lexicons,
		nil,
		log,
		usecase.ExtractionServiceConfig{
			DefaultLanguage:    *lang,
			BudgetPolicy:       domain.BudgetPolicy(*policy),
			EnableDebugLogging: *debug,
		},
	)

	result, err := service.Extract(context.Background(), text, *lang)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(stdout)
	enc.SetEscapeHTML(false)
	if *pretty {
		enc.SetIndent("", "  ")
	}
	return enc.Encode(result)
}
