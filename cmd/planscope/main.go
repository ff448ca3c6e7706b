package main

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"planscope/internal/config"
	"planscope/internal/domain"
	"planscope/internal/export"
	"planscope/internal/logging"
	"planscope/internal/remote"
	"planscope/internal/session"
	"planscope/internal/view"
)

type queryFlags struct {
	mode         string
	codes        string
	channels     []string
	statuses     []string
	stopStrategy string

	specialOnly bool
	search      string
	sortKey     string
	desc        bool
	page        int
	pageSize    int
	showAll     bool

	xlsxPath string
}

func main() {
	root := &cobra.Command{
		Use:          "planscope",
		Short:        "Query the insurance plan catalog and reconcile sale statuses",
		SilenceUsage: true,
	}
	root.AddCommand(newQueryCmd())

	if err := root.Execute(); err != nil {
		os.Exit(1)
	}
}

func newQueryCmd() *cobra.Command {
	var f queryFlags

	cmd := &cobra.Command{
		Use:   "query",
		Short: "Run one batched catalog query and print the projected page as TSV",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQuery(cmd, f)
		},
	}

	cmd.Flags().StringVar(&f.mode, "mode", string(domain.ModeAll), "query mode: all | plan_codes | channels | stopped_channels")
	cmd.Flags().StringVar(&f.codes, "codes", "", "plan codes for plan_codes mode (comma/space separated)")
	cmd.Flags().StringSliceVar(&f.channels, "channels", nil, "channel codes for channel modes")
	cmd.Flags().StringSliceVar(&f.statuses, "status", nil, "status filter: in_sale | stopped | pending | abnormal")
	cmd.Flags().StringVar(&f.stopStrategy, "stop-strategy", "", "stopped_channels strategy: all_minus_active | open_end_filter")
	cmd.Flags().BoolVar(&f.specialOnly, "special-only", false, "keep only rows whose main and channel statuses disagree")
	cmd.Flags().StringVar(&f.search, "search", "", "case-insensitive free-text filter")
	cmd.Flags().StringVar(&f.sortKey, "sort", view.SortSeq, "sort key: seq | planCode | name | currency | saleStart | saleEnd | status")
	cmd.Flags().BoolVar(&f.desc, "desc", false, "sort descending")
	cmd.Flags().IntVar(&f.page, "page", 1, "page number")
	cmd.Flags().IntVar(&f.pageSize, "page-size", 50, "rows per page")
	cmd.Flags().BoolVar(&f.showAll, "all", false, "single page with every filtered row")
	cmd.Flags().StringVar(&f.xlsxPath, "export-xlsx", "", "also write the page as an xlsx workbook")

	return cmd
}

func runQuery(cmd *cobra.Command, f queryFlags) error {
	cfg := config.Load()

	logger, err := logging.New(cfg.Env)
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	if err := remote.CheckToken(cfg.APIToken, time.Now()); err != nil {
		return err
	}

	client := remote.NewClient(cfg.APIBaseURL, cfg.APIToken, cfg.RequestTimeout, logger)

	ctrl, err := session.NewController(cfg, logger, client, session.Callbacks{
		OnProgress: func(percent float64, label string) {
			fmt.Fprintf(cmd.ErrOrStderr(), "\r%s %3.0f%%", label, percent)
			if percent >= 100 {
				fmt.Fprintln(cmd.ErrOrStderr())
			}
		},
	})
	if err != nil {
		return err
	}

	criteria := domain.QueryCriteria{
		Mode:             domain.QueryMode(f.mode),
		FreeText:         f.codes,
		ChannelSelection: f.channels,
		StopStrategy:     domain.StopStrategy(f.stopStrategy),
	}
	for _, s := range f.statuses {
		status := domain.Status(strings.TrimSpace(s))
		if !status.Valid() {
			return fmt.Errorf("unknown status %q", s)
		}
		criteria.StatusSelection = append(criteria.StatusSelection, status)
	}
	if len(criteria.ChannelSelection) == 0 &&
		(criteria.Mode == domain.ModeChannels || criteria.Mode == domain.ModeStoppedChannels) {
		criteria.ChannelSelection = domain.KnownChannels
	}

	st, err := ctrl.Run(cmd.Context(), criteria)
	if err != nil {
		return err
	}

	res := ctrl.Project(view.Options{
		SpecialOnly:   f.specialOnly,
		StatusFilter:  criteria.StatusSelection,
		SearchText:    f.search,
		SortKey:       f.sortKey,
		SortAscending: !f.desc,
		PageNumber:    f.page,
		PageSize:      f.pageSize,
		ShowAll:       f.showAll,
	})

	fmt.Fprintln(cmd.OutOrStdout(), export.TSV(res.PageRows))
	fmt.Fprintf(cmd.ErrOrStderr(), "page %d/%d, %d rows match, %d fetched\n",
		res.PageNumber, res.TotalPages, res.TotalFilteredCount, len(st.Rows))

	if f.xlsxPath != "" {
		wb, err := export.Workbook(res.PageRows)
		if err != nil {
			return err
		}
		if err := wb.SaveAs(f.xlsxPath); err != nil {
			return err
		}
		logger.Info("workbook written", zap.String("path", f.xlsxPath))
	}

	return nil
}
