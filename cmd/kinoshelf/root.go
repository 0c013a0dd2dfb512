package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"github.com/varoOP/kinoshelf/internal/app"
	"github.com/varoOP/kinoshelf/internal/config"
)

var (
	version = "dev"
	commit  = ""
	date    = ""
	cfgFile string
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "kinoshelf",
	Short: "Browse the top films catalog and keep local favorites",
	Long: `Kinoshelf syncs the top films listing of the Kinopoisk unofficial API,
keeps favorite movies in a local sqlite database and caches poster images on disk.`,
	Version:       version,
	SilenceUsage:  true,
	SilenceErrors: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		stop()
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)
	config.SetDefaults(viper.GetViper())

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&cfgFile, "config", "", "config file (default is ./config.yaml or $HOME/.kinoshelf.yaml)")
	flags.String("root-path", ".", "directory holding the database, catalog snapshot, credentials and image cache")
	flags.String("api-base-url", config.DefaultAPIBaseURL, "catalog API base URL")
	flags.Int("concurrency", config.DefaultConcurrency, "max catalog page requests in flight")
	flags.Int("max-pages", 0, "max catalog pages to fetch (0 = all)")
	flags.Duration("request-timeout", config.DefaultRequestTimeout, "catalog request timeout")
	flags.String("log-level", "info", "log level (trace, debug, info, warn, error)")

	viper.BindPFlag("root_path", flags.Lookup("root-path"))
	viper.BindPFlag("api_base_url", flags.Lookup("api-base-url"))
	viper.BindPFlag("concurrency", flags.Lookup("concurrency"))
	viper.BindPFlag("max_pages", flags.Lookup("max-pages"))
	viper.BindPFlag("request_timeout", flags.Lookup("request-timeout"))
	viper.BindPFlag("log_level", flags.Lookup("log-level"))
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else {
		home, err := os.UserHomeDir()
		if err == nil {
			viper.AddConfigPath(home)
		}
		viper.AddConfigPath(".")
		viper.SetConfigType("yaml")
		viper.SetConfigName("config")
	}

	viper.SetEnvPrefix("KINOSHELF")
	viper.AutomaticEnv()

	if err := viper.ReadInConfig(); err == nil {
		fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	} else if cfgFile == "" {
		viper.SetConfigName(".kinoshelf")
		if err := viper.ReadInConfig(); err == nil {
			fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
		}
	}
}

// withApp initializes the application, runs fn and releases the database
func withApp(fn func(a *app.App) error) error {
	application, err := app.NewApp()
	if err != nil {
		return fmt.Errorf("failed to initialize application: %w", err)
	}
	defer application.Close()

	return fn(application)
}

func parseID(arg string) (int, error) {
	id, err := strconv.Atoi(arg)
	if err != nil || id < 1 {
		return 0, fmt.Errorf("invalid movie id %q", arg)
	}
	return id, nil
}
