package commands

import (
	"fmt"
	"io"
	"log/slog"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/54b3r/docrag/internal/logging"
	"github.com/54b3r/docrag/internal/pipeline"
	"github.com/54b3r/docrag/internal/provider"
	"github.com/54b3r/docrag/internal/server"
)

// NewServeCmd constructs the `docrag serve` command, which exposes ingest,
// ask, and search over HTTP.
func NewServeCmd(opts *rootOptions) *cobra.Command {
	var (
		host string
		port int
	)

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the HTTP API server",
		Long: `Start the docrag HTTP API. Endpoints:

  POST /api/ingest   {"path": "..."}
  POST /api/ask      {"question": "..."}
  GET  /api/search   ?q=...&k=4
  GET  /api/health
  GET  /api/ready
  GET  /metrics

Set DOCRAG_API_KEY to require a Bearer token on /api/ingest, /api/ask and
/api/search. /api/ingest only reads files under server.ingest_root
(DOCRAG_INGEST_ROOT), which defaults to the working directory.

Examples:
  docrag serve
  docrag serve --host 0.0.0.0 --port 9090 --backend qdrant`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			log := logging.FromContext(ctx)
			cfg := opts.cfg
			if !cmd.Flags().Changed("host") {
				host = cfg.Server.Host
			}
			if !cmd.Flags().Changed("port") {
				port = cfg.Server.Port
			}

			reg := prometheus.NewRegistry()
			reg.MustRegister(
				collectors.NewGoCollector(),
				collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
			)

			c, err := build(ctx, cfg, buildOptions{
				answer:  true,
				out:     io.Discard,
				metrics: pipeline.NewMetrics(reg),
			})
			if err != nil {
				return fmt.Errorf("serve: %w", err)
			}
			defer c.Close()

			pingers := []server.Pinger{server.NewStorePinger(c.store)}
			if c.provider != nil {
				if mp := server.NewModelPinger(provider.NewHealthChecker(c.provider), string(c.provider.Backend)); mp != nil {
					pingers = append(pingers, mp)
				}
			}

			srv, err := server.New(c.pipeline, &server.Config{
				Host:            host,
				Port:            port,
				Logger:          log,
				Pingers:         pingers,
				RateLimit:       cfg.Server.RateLimit,
				RateBurst:       cfg.Server.RateBurst,
				APIKey:          cfg.Server.APIKey,
				IngestRoot:      cfg.Server.IngestRoot,
				MetricsRegistry: reg,
				MetricsGatherer: reg,
			})
			if err != nil {
				return fmt.Errorf("serve: %w", err)
			}

			log.Info("docrag server starting",
				slog.String("addr", fmt.Sprintf("http://%s:%d", host, port)),
				slog.String("backend", c.pipeline.Backend()),
			)
			return srv.Start(ctx)
		},
	}

	cmd.Flags().StringVar(&host, "host", "127.0.0.1", "Address to bind (default: server.host from config)")
	cmd.Flags().IntVar(&port, "port", 8080, "Port to listen on (default: server.port from config)")

	return cmd
}
