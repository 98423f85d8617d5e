package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"

	"github.com/reloquent/kvpview/internal/config"
)

var (
	cfgFile  string
	logLevel string
	timeout  time.Duration
	dbViper  = config.NewDatabaseViper()
	version  = "dev"
)

var rootCmd = &cobra.Command{
	Use:   "kvpview",
	Short: "kvpview: KVP view generator for rankings dashboards",
	Long: `kvpview unpivots a wide rankings view into a key-value-pair view for one year
and folds that yearly view into a multi-year UNION ALL view.

Running without a subcommand runs the whole job (same as "kvpview run").`,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runJob,
}

func Execute() {
	rootCmd.Version = version

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, errorStyle.Render("Error: "+err.Error()))
		stop()
		os.Exit(1)
	}
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVar(&cfgFile, "config", "", "job config file (default: ./"+config.DefaultPath+")")
	pf.StringVar(&logLevel, "log-level", "", "log level (debug, info, warn, error); overrides logging.level")
	pf.DurationVar(&timeout, "timeout", 0, "abort database work after this long (0 = no limit)")

	pf.String("pg-host", "", "database host (env PG_Host, default localhost)")
	pf.Int("pg-port", 0, "database port (env PG_Port, default 5432)")
	pf.String("pg-user", "", "database user (env PG_User)")
	pf.String("pg-db", "", "database name (env PG_DB)")
	pf.String("pg-sslmode", "", "sslmode (env PG_SSLMode, default prefer)")

	for key, flag := range map[string]string{
		config.KeyHost:    "pg-host",
		config.KeyPort:    "pg-port",
		config.KeyUser:    "pg-user",
		config.KeyName:    "pg-db",
		config.KeySSLMode: "pg-sslmode",
	} {
		if err := dbViper.BindPFlag(key, pf.Lookup(flag)); err != nil {
			panic(err)
		}
	}

	rootCmd.Flags().BoolVar(&dryRun, "dry-run", false, "print the DDL instead of executing it")
}
