package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	qc "github.com/unkn0wn-root/querycache"
	"github.com/unkn0wn-root/querycache/api"
	"github.com/unkn0wn-root/querycache/internal/config"
	"github.com/unkn0wn-root/querycache/queries"
)

var errGated = errors.New("query is disabled until an id is given")

func main() {
	var cfgFile string
	var a *app

	rootCmd := &cobra.Command{
		Use:           "querycache",
		Short:         "Cached reads against the care-management REST API",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(cfgFile)
			if err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			a, err = newApp(cmd.Context(), cfg)
			return err
		},
	}
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (env QC_* wins)")

	q := func() *queries.Queries { return a.q }
	rootCmd.AddCommand(
		meCmd(q),
		auditsCmd(q),
		clientsCmd(q, false),
		clientsCmd(q, true),
		idCmd("client <id>", "Show one client", func(ctx context.Context, id string) *qc.Query[api.Response[api.FullClient]] {
			return q().Client(ctx, id)
		}),
		patientsCmd(q),
		idCmd("patient <id>", "Show one patient", func(ctx context.Context, id string) *qc.Query[api.Response[api.Patient]] {
			return q().Patient(ctx, id)
		}),
		idCmd("provider <id>", "Show one provider", func(ctx context.Context, id string) *qc.Query[api.Response[api.Provider]] {
			return q().Provider(ctx, id)
		}),
		idCmd("program <id>", "Show one program", func(ctx context.Context, id string) *qc.Query[api.Response[api.Program]] {
			return q().Program(ctx, id)
		}),
		idCmd("vitals <program-id>", "List vitals tracked under a program", func(ctx context.Context, id string) *qc.Query[api.Response[[]api.Vital]] {
			return q().VitalItems(ctx, id)
		}),
		idCmd("postal-codes <zip>", "Look up a zip code", func(ctx context.Context, zip string) *qc.Query[api.Response[[]api.PostalCode]] {
			return q().PostalCodes(ctx, zip)
		}),
		simpleCmd("states", "List state codes", func(ctx context.Context) *qc.Query[api.Response[[]string]] {
			return q().States(ctx)
		}),
		simpleCmd("states-list", "List states with names", func(ctx context.Context) *qc.Query[api.Response[[]api.State]] {
			return q().StatesList(ctx)
		}),
		simpleCmd("conditions", "List program health conditions", func(ctx context.Context) *qc.Query[api.PageResponse[api.Condition]] {
			return q().HealthConditions(ctx)
		}),
		partnersCmd(q),
		createAuditCmd(q),
	)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	err := rootCmd.ExecuteContext(ctx)
	if a != nil {
		cctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		a.close(cctx)
		cancel()
	}
	if err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		stop()
		os.Exit(1)
	}
}

// show runs one query to completion and prints its data.
func show[T any](cmd *cobra.Command, run func(ctx context.Context) *qc.Query[T]) error {
	ctx := cmd.Context()
	q := run(ctx)
	defer q.Close()

	res := q.Wait(ctx)
	switch {
	case res.Err != nil:
		return res.Err
	case res.Status == qc.StatusIdle:
		return errGated
	case ctx.Err() != nil:
		return ctx.Err()
	}
	return printJSON(cmd.OutOrStdout(), res.Data)
}

func printJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func addPageFlags(cmd *cobra.Command, p *api.PageParams) {
	cmd.Flags().IntVar(&p.Page, "page", 1, "page number")
	cmd.Flags().IntVar(&p.Limit, "limit", 0, "page size (server default when 0)")
	cmd.Flags().StringVar(&p.Sort, "sort", "", "sort field")
	cmd.Flags().StringVar(&p.Search, "search", "", "free-text search")
}

func simpleCmd[T any](use, short string, run func(ctx context.Context) *qc.Query[T]) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return show(cmd, run)
		},
	}
}

func idCmd[T any](use, short string, run func(ctx context.Context, id string) *qc.Query[T]) *cobra.Command {
	return &cobra.Command{
		Use:   use,
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return show(cmd, func(ctx context.Context) *qc.Query[T] { return run(ctx, args[0]) })
		},
	}
}

func meCmd(q func() *queries.Queries) *cobra.Command {
	return simpleCmd("me", "Show the signed-in provider", func(ctx context.Context) *qc.Query[api.Response[api.Provider]] {
		return q().Me(ctx)
	})
}

func auditsCmd(q func() *queries.Queries) *cobra.Command {
	var p api.AuditsParams
	cmd := simpleCmd("audits", "List audit records", func(ctx context.Context) *qc.Query[api.PageResponse[api.Audit]] {
		return q().Audits(ctx, p)
	})
	addPageFlags(cmd, &p.PageParams)
	cmd.Flags().StringVar(&p.Action, "action", "", "filter by action")
	cmd.Flags().StringVar(&p.ActorID, "actor", "", "filter by actor id")
	cmd.Flags().StringVar(&p.ResourceID, "resource", "", "filter by resource id")
	return cmd
}

func clientsCmd(q func() *queries.Queries, all bool) *cobra.Command {
	var p api.ClientsParams
	use, short := "clients", "List clients"
	if all {
		use, short = "all-clients", "List clients across every program"
	}
	cmd := simpleCmd(use, short, func(ctx context.Context) *qc.Query[api.PageResponse[api.Client]] {
		if all {
			return q().AllClients(ctx, p)
		}
		return q().Clients(ctx, p)
	})
	addPageFlags(cmd, &p.PageParams)
	cmd.Flags().StringVar(&p.Status, "status", "", "filter by status")
	cmd.Flags().StringVar(&p.ProgramID, "program", "", "filter by program id")
	cmd.Flags().StringVar(&p.State, "state", "", "filter by state code")
	return cmd
}

func patientsCmd(q func() *queries.Queries) *cobra.Command {
	var p api.PatientsParams
	cmd := simpleCmd("patients", "List patients", func(ctx context.Context) *qc.Query[api.PageResponse[api.Patient]] {
		return q().Patients(ctx, p)
	})
	addPageFlags(cmd, &p.PageParams)
	cmd.Flags().StringVar(&p.ProviderID, "provider", "", "filter by provider id")
	cmd.Flags().StringVar(&p.Status, "status", "", "filter by status")
	return cmd
}

func partnersCmd(q func() *queries.Queries) *cobra.Command {
	var p api.PartnersParams
	cmd := simpleCmd("partners", "List program partners", func(ctx context.Context) *qc.Query[api.PageResponse[api.Partner]] {
		return q().Partners(ctx, p)
	})
	addPageFlags(cmd, &p.PageParams)
	cmd.Flags().StringVar(&p.ProgramID, "program", "", "filter by program id")
	cmd.Flags().StringVar(&p.Type, "type", "", "filter by partner type")
	return cmd
}

func createAuditCmd(q func() *queries.Queries) *cobra.Command {
	var in api.Audit
	cmd := &cobra.Command{
		Use:   "create-audit",
		Short: "Record an audit entry",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if in.Action == "" {
				return errors.New("--action is required")
			}
			m := q().CreateAudit(qc.MutationOptions[api.Audit, api.Response[api.Audit]]{
				Invalidates: []string{api.EndpointAudits.String()},
			})
			out, err := m.Mutate(cmd.Context(), in)
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), out)
		},
	}
	cmd.Flags().StringVar(&in.Action, "action", "", "audited action, e.g. view")
	cmd.Flags().StringVar(&in.Resource, "resource", "", "resource type, e.g. client")
	cmd.Flags().StringVar(&in.ResourceID, "resource-id", "", "resource id")
	cmd.Flags().StringVar(&in.ActorID, "actor", "", "actor id")
	return cmd
}
