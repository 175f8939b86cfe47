package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/dropDatabas3/userpanel/internal/observability/logger"
	"github.com/dropDatabas3/userpanel/internal/tracker"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

// cli guarda las opciones globales y arma trackers contra el panel.
type cli struct {
	PanelURL  string
	Token     string
	OutFormat string // "json" | "text"
	Timeout   time.Duration
	Verbose   bool

	out io.Writer
}

func (c *cli) transport() *tracker.FormTransport {
	return tracker.NewFormTransport(c.PanelURL, c.Token, c.Timeout)
}

func (c *cli) logger() *zap.Logger {
	if !c.Verbose {
		return zap.NewNop()
	}
	return logger.New(logger.Config{Env: "dev", Level: "debug", ServiceName: "usersctl"})
}

// printState imprime el estado final del tracker y devuelve error si la acción falló.
func (c *cli) printState(s tracker.State, navigated string) error {
	if c.OutFormat == "json" {
		v := map[string]any{"status": s.Status, "message": s.Message}
		if navigated != "" {
			v["navigate"] = navigated
		}
		p, _ := json.MarshalIndent(v, "", "  ")
		fmt.Fprintln(c.out, string(p))
	} else {
		fmt.Fprintf(c.out, "%s: %s\n", s.Status, s.Message)
		if navigated != "" {
			fmt.Fprintf(c.out, "-> %s\n", navigated)
		}
	}
	if s.Status == tracker.StatusError {
		return errors.New(s.Message)
	}
	return nil
}

// run dispara la acción y espera a que el tracker vuelva a idle.
func (c *cli) run(ctx context.Context, t *tracker.Tracker, submit func(context.Context) (bool, error), navigated *string) error {
	ctx, cancel := context.WithTimeout(ctx, c.Timeout+5*time.Second)
	defer cancel()

	if _, err := submit(ctx); err != nil {
		return err
	}
	if err := t.Wait(ctx); err != nil {
		return err
	}
	return c.printState(t.State(), *navigated)
}

func envOr(k, def string) string {
	if v := strings.TrimSpace(os.Getenv(k)); v != "" {
		return v
	}
	return def
}

func newRootCmd(out io.Writer) *cobra.Command {
	c := &cli{
		PanelURL:  envOr("USERSCTL_PANEL_URL", "http://localhost:8080"),
		Token:     envOr("USERSCTL_TOKEN", ""),
		OutFormat: envOr("USERSCTL_OUT", "text"),
		Timeout:   30 * time.Second,
		out:       out,
	}

	root := &cobra.Command{
		Use:           "usersctl",
		Short:         "CLI de gestión de usuarios del tenant (vía el panel)",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if c.Token == "" {
				return fmt.Errorf("falta token de sesión (flag --token o env USERSCTL_TOKEN)")
			}
			if c.OutFormat != "json" && c.OutFormat != "text" {
				return fmt.Errorf("--out debe ser json|text, got %q", c.OutFormat)
			}
			return nil
		},
	}
	root.SetOut(out)

	root.PersistentFlags().StringVar(&c.PanelURL, "panel-url", c.PanelURL, "URL base del panel (env USERSCTL_PANEL_URL)")
	root.PersistentFlags().StringVar(&c.Token, "token", c.Token, "Token de sesión del operador (env USERSCTL_TOKEN)")
	root.PersistentFlags().StringVar(&c.OutFormat, "out", c.OutFormat, "Formato de salida: json|text")
	root.PersistentFlags().DurationVar(&c.Timeout, "timeout", c.Timeout, "Timeout por request")
	root.PersistentFlags().BoolVarP(&c.Verbose, "verbose", "v", false, "Loguea las transiciones del tracker")

	root.AddCommand(
		newCreateCmd(c),
		newUpdateCmd(c),
		newDeactivateCmd(c),
		newDeleteCmd(c),
	)
	return root
}
