package cli

import (
	"errors"
	"os"

	"sgu-cli/internal/config"
	"sgu-cli/internal/format"

	"github.com/spf13/cobra"
)

func newConfigCmd(app *App) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Show or initialise the configuration file",
	}
	cmd.AddCommand(newConfigShowCmd(app))
	cmd.AddCommand(newConfigInitCmd(app))
	return cmd
}

type configView struct {
	Path     string `json:"path"`
	Exists   bool   `json:"exists"`
	Host     string `json:"host"`
	Port     int    `json:"port"`
	BasePath string `json:"basePath"`
	BaseURL  string `json:"baseURL"`
	Timeout  string `json:"timeout"`
	LogFile  string `json:"logFile,omitempty"`
	Debug    bool   `json:"debug"`
}

func newConfigView(path string, c config.Config) configView {
	_, err := os.Stat(path)
	return configView{
		Path:     path,
		Exists:   err == nil,
		Host:     c.Host,
		Port:     c.Port,
		BasePath: c.BasePath,
		BaseURL:  c.BaseURL(),
		Timeout:  c.Timeout.String(),
		LogFile:  c.LogFile,
		Debug:    c.Debug,
	}
}

func newConfigShowCmd(app *App) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Show the effective configuration (file + env + flags)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return writeOut(cmd, app, format.Envelope{Data: newConfigView(app.ConfigPath, app.cfg)})
		},
	}
}

func newConfigInitCmd(app *App) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "init",
		Short: "Write the effective configuration to the config file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := os.Stat(app.ConfigPath); err == nil && !force {
				return writeErr(cmd, errors.New("config file exists: "+app.ConfigPath+" (use --force to overwrite)"))
			}
			if err := config.Save(app.ConfigPath, app.cfg); err != nil {
				return writeErr(cmd, err)
			}
			return writeOut(cmd, app, format.Envelope{Data: newConfigView(app.ConfigPath, app.cfg)})
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "Overwrite an existing file")
	return cmd
}
