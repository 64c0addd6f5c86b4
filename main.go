package main

import (
	"fmt"
	"os"

	cl "github.com/homy/homyadmin/client"
	"github.com/homy/homyadmin/config"
	st "github.com/homy/homyadmin/kv/cmd"
	sr "github.com/homy/homyadmin/server"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// configPath finds --config ahead of the real parse, since the file provides the
// defaults of every other flag.
func configPath(args []string) string {
	fs := pflag.NewFlagSet("config", pflag.ContinueOnError)
	fs.ParseErrorsWhitelist.UnknownFlags = true
	fs.Usage = func() {}
	path := fs.String("config", os.Getenv("HOMY_CONFIG"), "")
	fs.BoolP("help", "h", false, "")
	_ = fs.Parse(args)
	return *path
}

func main() {
	path := configPath(os.Args[1:])
	cfg, err := config.Load(path)
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	rootCmd := &cobra.Command{
		Use:           "homyadmin",
		Short:         "Admin console for the Homy home-chef marketplace",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	rootCmd.PersistentFlags().String("config", path, "config file, default <state-dir>/config.yaml (env HOMY_CONFIG)")
	cfg.BindFlags(rootCmd.PersistentFlags())

	rootCmd.AddCommand(sr.Command(&cfg))
	rootCmd.AddCommand(st.Command(&cfg))
	cl.RegisterCommands(rootCmd, &cfg)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
