package cmd

import (
	"context"
	"fmt"
	"log"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"github.com/spigell/linkedin-coach/internal/checkpoint"
	"github.com/spigell/linkedin-coach/internal/logger"
)

var threadsCmd = &cobra.Command{
	Use:   "threads",
	Short: "Manage stored conversation threads",
}

var threadsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored threads, most recent first",
	Run: func(cmd *cobra.Command, _ []string) {
		limit, _ := cmd.Flags().GetInt("limit")
		withStore(func(ctx context.Context, store *checkpoint.Store, logger *zap.Logger) {
			threads, err := store.List(ctx, limit)
			if err != nil {
				logger.Fatal("listing threads", zap.Error(err))
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
			fmt.Fprintln(w, "THREAD\tPROFILE\tMESSAGES\tUPDATED")
			for _, t := range threads {
				fmt.Fprintf(w, "%s\t%s\t%d\t%s\n", t.ID, t.ProfileURL, t.MessageCount, t.UpdatedAt.Local().Format(time.DateTime))
			}
			w.Flush()
		})
	},
}

var threadsDeleteCmd = &cobra.Command{
	Use:   "delete <thread-id>...",
	Short: "Delete stored threads",
	Args:  cobra.MinimumNArgs(1),
	Run: func(_ *cobra.Command, args []string) {
		withStore(func(ctx context.Context, store *checkpoint.Store, logger *zap.Logger) {
			for _, id := range args {
				if err := store.Delete(ctx, id); err != nil {
					logger.Fatal("deleting thread", zap.String("thread_id", id), zap.Error(err))
				}
				logger.Info("thread deleted", zap.String("thread_id", id))
			}
		})
	},
}

func init() {
	rootCmd.AddCommand(threadsCmd)
	threadsCmd.AddCommand(threadsListCmd, threadsDeleteCmd)

	threadsListCmd.Flags().IntP("limit", "n", 0, "maximum number of threads to show (default is max-threads)")
}

func withStore(fn func(ctx context.Context, store *checkpoint.Store, logger *zap.Logger)) {
	logger, err := logger.New(viper.GetBool("json"), viper.GetBool("debug"))
	if err != nil {
		log.Fatalf("creating a logger: %s", err)
	}

	config, err := getConfig()
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}

	store, err := checkpoint.Open(config.Database, config.MaxThreads)
	if err != nil {
		logger.Fatal("opening thread store", zap.Error(err))
	}
	defer store.Close()

	fn(context.Background(), store, logger)
}
