package cmd

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/IHGGM-Aachen/primertool/config"
	"github.com/IHGGM-Aachen/primertool/internal/primertool"
	"github.com/IHGGM-Aachen/primertool/internal/server"
)

// serveCmd runs the HTTP API the web frontend talks to
var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the primer design HTTP API",
	Long: `Run the primer design HTTP API used by the web frontend.

One designer is wired per supported assembly (hg19, hg38); requests
select theirs via the "assembly" field. POST /api/v1/primers accepts
variant, exon, gene and position queries and returns the order table
as JSON.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		conf, err := config.New()
		if err != nil {
			return err
		}

		designers := make(map[primertool.Assembly]server.Designer)
		for _, assembly := range []primertool.Assembly{primertool.Hg19, primertool.Hg38} {
			gen, done, err := generator(string(assembly))
			if err != nil {
				return err
			}
			defer done()
			designers[assembly] = gen
		}

		srv := &http.Server{
			Addr:              conf.Server.Addr,
			Handler:           server.New(designers, conf.Server.Initials, logger).Handler(),
			ReadHeaderTimeout: 10 * time.Second,
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		errc := make(chan error, 1)
		go func() {
			logger.Info("listening", zap.String("addr", srv.Addr))
			errc <- srv.ListenAndServe()
		}()

		select {
		case err := <-errc:
			return err
		case <-ctx.Done():
			logger.Info("shutting down")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, context.DeadlineExceeded) {
				return err
			}
			return nil
		}
	},
}

func init() {
	serveCmd.Flags().String("addr", ":8501", "listen address")
	viper.BindPFlag("server.addr", serveCmd.Flags().Lookup("addr"))

	rootCmd.AddCommand(serveCmd)
}
