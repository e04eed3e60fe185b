package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/alecthomas/kong"
	"github.com/charmbracelet/glamour"

	"github.com/lojasmm/askbot/internal/bot"
	"github.com/lojasmm/askbot/internal/config"
	"github.com/lojasmm/askbot/internal/logging"
	"github.com/lojasmm/askbot/internal/markup"
	"github.com/lojasmm/askbot/internal/qa"
)

type cmdServe struct{}

type cmdAsk struct {
	Render   bool     `short:"r" help:"Render the answer as terminal markdown."`
	Raw      bool     `help:"Print the raw API response instead of the formatted answer."`
	Question []string `arg:"" help:"Question to ask."`
}

type cli struct {
	EnvFile string   `name:"env-file" default:".env" help:"Optional dotenv file loaded before reading the environment."`
	Serve   cmdServe `cmd:"" help:"Run the Telegram bot and the admin HTTP server."`
	Ask     cmdAsk   `cmd:"" help:"Ask the API one question and print the reply as the bot would send it."`
}

// CliConfig holds the process hooks the CLI runs with.
type CliConfig struct {
	Name        string
	Description string
	Exit        func(int)
	Stdout      io.Writer
	Stderr      io.Writer
	// Context is cancelled to stop serve. Defaults to a signal-bound context.
	Context context.Context
}

func NewCliConfig() *CliConfig {
	return &CliConfig{
		Name:        "askbot",
		Description: "Telegram front end for a question-answering API.",
		Exit:        os.Exit,
		Stdout:      os.Stdout,
		Stderr:      os.Stderr,
	}
}

// Run parses args and executes the selected subcommand.
func Run(args []string, config *CliConfig) error {
	var c cli
	parser, err := kong.New(&c,
		kong.Name(config.Name),
		kong.Description(config.Description),
		kong.Exit(config.Exit),
		kong.Writers(config.Stdout, config.Stderr),
	)
	if err != nil {
		return err
	}
	kctx, err := parser.Parse(args)
	if err != nil {
		return err
	}

	switch kctx.Command() {
	case "serve":
		return serve(config, c.EnvFile)
	case "ask <question>":
		return ask(config, c.EnvFile, c.Ask)
	default:
		return fmt.Errorf("unknown command %q", kctx.Command())
	}
}

func ask(config *CliConfig, envFile string, cmd cmdAsk) error {
	cfg, err := loadConfig(envFile, config.Stderr)
	if err != nil {
		return err
	}
	client := newQAClient(cfg)

	ctx := config.Context
	if ctx == nil {
		ctx = context.Background()
	}
	resp, askErr := client.Ask(ctx, strings.Join(cmd.Question, " "), nil)

	if cmd.Raw {
		if askErr != nil {
			return askErr
		}
		_, err := fmt.Fprintln(config.Stdout, resp.Raw)
		return err
	}

	reply := bot.Compose(resp, askErr, cfg.MaxSourceTitles)
	if cmd.Render {
		r, err := glamour.NewTermRenderer(glamour.WithAutoStyle(), glamour.WithWordWrap(100))
		if err != nil {
			return fmt.Errorf("creating renderer: %w", err)
		}
		out, err := r.Render(reply.Text)
		if err != nil {
			return fmt.Errorf("rendering answer: %w", err)
		}
		_, err = fmt.Fprint(config.Stdout, out)
		return err
	}

	for i, seg := range markup.Chunk(reply.Text, cfg.MessageLimit) {
		if i > 0 {
			fmt.Fprintln(config.Stdout, "---")
		}
		fmt.Fprintln(config.Stdout, seg)
	}
	return askErr
}

func loadConfig(envFile string, logs io.Writer) (*config.Config, error) {
	cfg, err := config.Load(envFile)
	if err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	logging.InitWriter(logs, cfg.LogLevel, cfg.LogFormat)
	return cfg, nil
}

func newQAClient(cfg *config.Config) *qa.Client {
	return qa.NewClient(qa.Options{
		URL:      cfg.APIURL,
		APIKey:   cfg.APIKey,
		Token:    cfg.APIToken,
		Language: cfg.APILanguage,
		Timeout:  cfg.APITimeout,
	})
}
