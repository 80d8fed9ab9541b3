package cli

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"

	"mira.app/federation/common/id"
	"mira.app/federation/common/logger"
	"mira.app/federation/core/config"
	"mira.app/federation/internal/mirror"
	"mira.app/federation/internal/model"
	"mira.app/federation/internal/service"
	"mira.app/federation/internal/store"
)

func QueueCmd() *cobra.Command {
	var (
		readOnly bool
		asJSON   bool
	)
	cmd := &cobra.Command{
		Use:   "queue",
		Short: "Rebuild the patch review queue against the configured store",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			if ctx == nil {
				ctx = context.Background()
			}

			cfg, err := config.Load(config.ServiceTypeCLI)
			if err != nil {
				return err
			}
			logger.Setup(cfg)
			if err := id.Init(3); err != nil {
				return err
			}

			queue, closeFn, err := openQueue(ctx, cfg)
			if err != nil {
				return err
			}
			defer closeFn()

			var snap *model.QueueSnapshot
			if readOnly {
				snap, err = queue.Snapshot(ctx)
			} else {
				snap, err = queue.Rebuild(ctx)
			}
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if asJSON {
				return writeJSON(out, snap)
			}
			fmt.Fprintln(out, renderQueue(snap))
			return nil
		},
	}
	cmd.Flags().BoolVar(&readOnly, "read", false, "Print the stored snapshot instead of rebuilding")
	cmd.Flags().BoolVar(&asJSON, "json", false, "Print the snapshot as JSON")
	return cmd
}

func openQueue(ctx context.Context, cfg config.Config) (service.QueueService, func(), error) {
	var rdb *redis.Client
	if cfg.Store.Backend == config.StoreBackendRedis {
		opts, err := redis.ParseURL(cfg.Redis.URL)
		if err != nil {
			return nil, nil, fmt.Errorf("parsing redis url: %w", err)
		}
		rdb = redis.NewClient(opts)
		if err := rdb.Ping(ctx).Err(); err != nil {
			_ = rdb.Close()
			return nil, nil, fmt.Errorf("connecting to redis: %w", err)
		}
	}

	var client redis.UniversalClient
	if rdb != nil {
		client = rdb
	}
	kv, closeStore, err := store.Open(ctx, cfg, client)
	if err != nil {
		if rdb != nil {
			_ = rdb.Close()
		}
		return nil, nil, err
	}
	slog.DebugContext(ctx, "store opened", "backend", cfg.Store.Backend)

	services := service.NewServices(kv, nil, nil, mirror.NewAnalyzer(), cfg.Store)
	return services.Queue(), func() {
		closeStore()
		if rdb != nil {
			_ = rdb.Close()
		}
	}, nil
}

func renderQueue(snap *model.QueueSnapshot) string {
	header := titleStyle.Render("Patch review queue") + mutedStyle.Render(fmt.Sprintf("  %d item(s), updated %s", snap.Total, snap.UpdatedAt.Format("2006-01-02 15:04:05")))
	if len(snap.Items) == 0 {
		return panelStyle.Render(header)
	}

	rows := [][]string{{"TS", "TARGET", "SIZE", "KEY"}}
	for _, item := range snap.Items {
		size := "-"
		if item.Size != nil {
			size = strconv.FormatInt(*item.Size, 10)
		}
		rows = append(rows, []string{item.TS, item.Target, size, item.Key})
	}
	return panelStyle.Render(header + "\n\n" + strings.TrimRight(renderTable(rows), "\n"))
}
