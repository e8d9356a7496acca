// Command planner schedules workout plans on the calendar from a terminal. It
// talks to the workout tracker API and plays the calendar view: plans are
// dragged onto days through the same drag controller and sync session a
// graphical front end uses.
package main

import (
	"alcyxob/workout-tracker/internal/calendar"
	"alcyxob/workout-tracker/internal/client"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	log "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/multierr"
)

const defaultServer = "http://localhost:8080"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

type app struct {
	v          *viper.Viper
	configPath string
}

func newRootCmd() *cobra.Command {
	a := &app{v: viper.New()}

	root := &cobra.Command{
		Use:          "planner",
		Short:        "Schedule workout plans on your training calendar",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.loadConfig(cmd)
		},
	}

	flags := root.PersistentFlags()
	flags.String("server", defaultServer, "API base URL")
	flags.String("token", "", "access token (default: the one saved by login)")
	flags.String("config", "", "config file (default $HOME/.planner.yaml)")
	flags.BoolP("verbose", "v", false, "log sync activity")
	_ = a.v.BindPFlag("server", flags.Lookup("server"))
	_ = a.v.BindPFlag("token", flags.Lookup("token"))

	root.AddCommand(
		a.loginCmd(),
		a.showCmd(),
		a.planCmd(),
		a.dragCmd(),
		a.unscheduleCmd(),
		a.watchCmd(),
		a.restCmd(),
	)
	return root
}

// loadConfig reads the saved server and token. Flags and PLANNER_* env vars
// take precedence over the file.
func (a *app) loadConfig(cmd *cobra.Command) error {
	verbose, _ := cmd.Flags().GetBool("verbose")
	if verbose {
		log.SetLevel(log.DebugLevel)
	} else {
		log.SetLevel(log.WarnLevel)
	}

	path, _ := cmd.Flags().GetString("config")
	if path == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return fmt.Errorf("locate home directory: %w", err)
		}
		path = filepath.Join(home, ".planner.yaml")
	}
	a.configPath = path

	a.v.SetConfigFile(path)
	a.v.SetEnvPrefix("planner")
	a.v.AutomaticEnv()
	if _, err := os.Stat(path); err == nil {
		if err := a.v.ReadInConfig(); err != nil {
			return fmt.Errorf("read %s: %w", path, err)
		}
	}
	return nil
}

func (a *app) saveConfig() error {
	if err := a.v.WriteConfigAs(a.configPath); err != nil {
		return fmt.Errorf("write %s: %w", a.configPath, err)
	}
	return os.Chmod(a.configPath, 0o600)
}

func (a *app) client() *client.Client {
	return client.New(a.v.GetString("server"), client.WithToken(a.v.GetString("token")))
}

func (a *app) requireToken() error {
	if a.v.GetString("token") == "" {
		return errors.New("not logged in: run planner login first")
	}
	return nil
}

// withSession runs fn against a live calendar session and waits for its writes
// to be persisted. A failed write is returned as the error.
func (a *app) withSession(ctx context.Context, fn func(*calendar.Session) error) error {
	if err := a.requireToken(); err != nil {
		return err
	}
	sess, err := calendar.NewSession(ctx, a.client())
	if err != nil {
		return err
	}
	runErr := fn(sess)
	sess.Close()

	for notice := range sess.Notices() {
		runErr = multierr.Append(runErr, notice)
	}
	return runErr
}
