package client

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/homy/homyadmin/api"
	"github.com/homy/homyadmin/config"
	"github.com/homy/homyadmin/homy"
	"github.com/homy/homyadmin/kv"
	"github.com/homy/homyadmin/session"
	"github.com/spf13/cobra"
	"sigs.k8s.io/yaml"
)

var (
	file     string
	output   string
	email    string
	password string
	mealDate string
	list     listOptions
)

// env is what every command talks through: the API client over the stored session.
type env struct {
	api   *homy.Client
	sess  *session.Session
	close func()
}

func open(ctx context.Context, cfg *config.Config) (*env, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	store, err := kv.NewPebble(filepath.Join(cfg.StateDir, "state"))
	if err != nil {
		return nil, fmt.Errorf("open state: %w", err)
	}
	sess, err := session.Open(ctx, store)
	if err != nil {
		store.Close()
		return nil, err
	}
	client := homy.New(cfg.APIURL, sess, homy.WithTimeout(cfg.Timeout.D()), homy.WithLogger(cfg.Logger()))
	return &env{api: client, sess: sess, close: func() { store.Close() }}, nil
}

// withEnv adapts a command body that needs the API to cobra's RunE.
func withEnv(cfg *config.Config, loggedIn bool, fn func(ctx context.Context, e *env, cmd *cobra.Command, args []string) error) func(*cobra.Command, []string) error {
	return func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		if ctx == nil {
			ctx = context.Background()
		}
		e, err := open(ctx, cfg)
		if err != nil {
			return err
		}
		defer e.close()

		if loggedIn {
			if _, err := e.sess.Token(ctx); err != nil {
				return fmt.Errorf("%w, run login first", err)
			}
		}
		err = fn(ctx, e, cmd, args)
		if homy.IsUnauthorized(err) {
			return fmt.Errorf("%w (session expired? run login again)", err)
		}
		return err
	}
}

func RegisterCommands(root *cobra.Command, cfg *config.Config) {
	loginCmd := &cobra.Command{
		Use:   "login",
		Short: "Log in as an admin and keep the session",
		Args:  cobra.NoArgs,
		RunE: withEnv(cfg, false, func(ctx context.Context, e *env, cmd *cobra.Command, args []string) error {
			pw := password
			if pw == "" {
				pw = os.Getenv("HOMY_PASSWORD")
			}
			if pw == "" {
				fmt.Fprint(cmd.ErrOrStderr(), "password: ")
				line, err := bufio.NewReader(cmd.InOrStdin()).ReadString('\n')
				if err != nil && !errors.Is(err, io.EOF) {
					return err
				}
				pw = strings.TrimSpace(line)
			}
			if err := e.api.Login(ctx, email, pw); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "logged in as", email)
			return nil
		}),
	}
	loginCmd.Flags().StringVar(&email, "email", "", "admin email")
	loginCmd.Flags().StringVar(&password, "password", "", "admin password, read from HOMY_PASSWORD or stdin when empty")
	loginCmd.MarkFlagRequired("email")

	logoutCmd := &cobra.Command{
		Use:   "logout",
		Short: "Forget the stored session",
		Args:  cobra.NoArgs,
		RunE: withEnv(cfg, false, func(ctx context.Context, e *env, cmd *cobra.Command, args []string) error {
			return e.api.Logout(ctx)
		}),
	}

	dashboardCmd := &cobra.Command{
		Use:   "dashboard",
		Short: "Show marketplace totals",
		Args:  cobra.NoArgs,
		RunE: withEnv(cfg, true, func(ctx context.Context, e *env, cmd *cobra.Command, args []string) error {
			stats, err := e.api.Dashboard(ctx)
			if err != nil {
				return err
			}
			return writeOut(cmd.OutOrStdout(), output, stats, func(w io.Writer) error {
				return renderTable(w, []string{"users", "orders", "chefs", "revenue"}, [][]string{{
					fmt.Sprint(stats.TotalUsers),
					fmt.Sprint(stats.TotalOrders),
					fmt.Sprint(stats.TotalChefs),
					fmt.Sprintf("%.2f", stats.TotalRevenue),
				}})
			})
		}),
	}

	listCmd := &cobra.Command{
		Use:       "list [view]",
		Aliases:   []string{"ls"},
		Short:     "List a table view with search, sort and paging",
		Args:      cobra.ExactArgs(1),
		ValidArgs: viewNames(),
		RunE: withEnv(cfg, true, func(ctx context.Context, e *env, cmd *cobra.Command, args []string) error {
			opts := list
			if opts.size == 0 {
				opts.size = cfg.PageSize
			}
			l, err := runList(ctx, e.api, args[0], opts)
			if err != nil {
				return err
			}
			return writeOut(cmd.OutOrStdout(), output, l.view, func(w io.Writer) error {
				if err := renderTable(w, l.columns, l.rows); err != nil {
					return err
				}
				_, err := fmt.Fprintln(w, l.footer())
				return err
			})
		}),
	}
	listCmd.Flags().StringVarP(&list.query, "query", "q", "", "case-insensitive search text")
	listCmd.Flags().StringVarP(&list.sort, "sort", "s", "", "field to sort by, field:desc for descending")
	listCmd.Flags().BoolVar(&list.desc, "desc", false, "sort descending")
	listCmd.Flags().IntVarP(&list.page, "page", "p", 1, "1-based page")
	listCmd.Flags().IntVar(&list.size, "size", 0, "rows per page")

	assignCmd := &cobra.Command{
		Use:   "assign-chef [order-id] [chef-id]",
		Short: "Assign a chef to a confirmed order",
		Args:  cobra.ExactArgs(2),
		RunE: withEnv(cfg, true, func(ctx context.Context, e *env, cmd *cobra.Command, args []string) error {
			return e.api.AssignChef(ctx, args[0], args[1])
		}),
	}

	planCmd := &cobra.Command{
		Use:   "plan",
		Short: "Manage subscription plans",
	}
	planPutCmd := &cobra.Command{
		Use:     "put",
		Aliases: []string{"apply"},
		Short:   "Create or update plans from a YAML/JSON file",
		Args:    cobra.NoArgs,
		RunE: withEnv(cfg, true, func(ctx context.Context, e *env, cmd *cobra.Command, args []string) error {
			return putPlans(ctx, e.api, cmd.OutOrStdout(), file)
		}),
	}
	planPutCmd.Flags().StringVarP(&file, "file", "f", "", "Path to JSON/YAML file, - for stdin")
	planPutCmd.MarkFlagRequired("file")

	planEditCmd := &cobra.Command{
		Use:   "edit [plan-id]",
		Short: "Edit a plan in $EDITOR",
		Args:  cobra.ExactArgs(1),
		RunE: withEnv(cfg, true, func(ctx context.Context, e *env, cmd *cobra.Command, args []string) error {
			return editPlan(ctx, e.api, cmd, args[0])
		}),
	}
	planCmd.AddCommand(planPutCmd, planEditCmd)

	ticketCmd := &cobra.Command{
		Use:   "ticket",
		Short: "Work on chef support tickets",
	}
	ticketCmd.AddCommand(&cobra.Command{
		Use:   "status [ticket-id] [status]",
		Short: "Set a ticket's status",
		Args:  cobra.ExactArgs(2),
		RunE: withEnv(cfg, true, func(ctx context.Context, e *env, cmd *cobra.Command, args []string) error {
			return e.api.UpdateTicketStatus(ctx, args[0], args[1])
		}),
	})

	queryCmd := &cobra.Command{
		Use:   "query",
		Short: "Work on customer queries",
	}
	queryCmd.AddCommand(&cobra.Command{
		Use:   "respond [query-id] [comment...]",
		Short: "Mark a query responded with a comment",
		Args:  cobra.MinimumNArgs(2),
		RunE: withEnv(cfg, true, func(ctx context.Context, e *env, cmd *cobra.Command, args []string) error {
			return e.api.RespondQuery(ctx, args[0], strings.Join(args[1:], " "))
		}),
	})

	mealsCmd := &cobra.Command{
		Use:   "meals [user-id]",
		Short: "Show a customer's meals for a day",
		Args:  cobra.ExactArgs(1),
		RunE: withEnv(cfg, true, func(ctx context.Context, e *env, cmd *cobra.Command, args []string) error {
			day := time.Now()
			if mealDate != "" {
				var err error
				if day, err = time.Parse(time.DateOnly, mealDate); err != nil {
					return fmt.Errorf("--date must be YYYY-MM-DD: %w", err)
				}
			}
			meals, err := e.api.MealSchedule(ctx, args[0], day)
			if err != nil {
				return err
			}
			return writeOut(cmd.OutOrStdout(), output, meals, func(w io.Writer) error {
				return renderTable(w, []string{"date", "breakfast", "lunch", "dinner"},
					[][]string{{day.Format(time.DateOnly), meals.Breakfast, meals.Lunch, meals.Dinner}})
			})
		}),
	}
	mealsCmd.Flags().StringVar(&mealDate, "date", "", "day as YYYY-MM-DD, today when empty")

	for _, c := range []*cobra.Command{dashboardCmd, listCmd, mealsCmd} {
		c.Flags().StringVarP(&output, "output", "o", "table", "table, yaml or json")
	}

	root.AddCommand(loginCmd, logoutCmd, dashboardCmd, listCmd, assignCmd, planCmd, ticketCmd, queryCmd, mealsCmd)
}

func parseFile(file string, stdin io.Reader) ([]api.Plan, error) {
	var data []byte
	var err error

	if file == "-" {
		data, err = io.ReadAll(stdin)
	} else {
		data, err = os.ReadFile(file)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	docs := strings.Split(string(data), "---\n")
	var plans []api.Plan

	for _, doc := range docs {
		if strings.TrimSpace(doc) == "" {
			continue
		}

		var p api.Plan
		if err := yaml.UnmarshalStrict([]byte(doc), &p); err != nil {
			return nil, fmt.Errorf("failed to parse document: %w", err)
		}

		plans = append(plans, p)
	}

	return plans, nil
}

func putPlans(ctx context.Context, client *homy.Client, out io.Writer, file string) error {
	plans, err := parseFile(file, os.Stdin)
	if err != nil {
		return err
	}

	for _, p := range plans {
		if err := client.PutPlan(ctx, p); err != nil {
			return fmt.Errorf("plan %q: %w", p.Type, err)
		}
		verb := "updated"
		if p.ID == "" {
			verb = "created"
		}
		fmt.Fprintf(out, "plan %s %s\n", p.Type, verb)
	}
	return nil
}

func editPlan(ctx context.Context, client *homy.Client, cmd *cobra.Command, id string) error {
	plans, err := client.ListPlans(ctx)
	if err != nil {
		return err
	}
	var plan *api.Plan
	for i := range plans {
		if plans[i].ID == id {
			plan = &plans[i]
			break
		}
	}
	if plan == nil {
		return fmt.Errorf("plan %s not found", id)
	}

	tmpfile, err := os.CreateTemp("", "homy-plan-*.yaml")
	if err != nil {
		return err
	}
	defer os.Remove(tmpfile.Name())

	enc, err := yaml.Marshal(plan)
	if err != nil {
		return err
	}
	tmpfile.Write(enc)
	tmpfile.Close()

	originalInfo, err := os.Stat(tmpfile.Name())
	if err != nil {
		return err
	}

	editor := os.Getenv("EDITOR")
	if editor == "" {
		editor = "vim"
	}
	cmd2 := exec.Command(editor, tmpfile.Name())
	cmd2.Stdin = os.Stdin
	cmd2.Stdout = os.Stdout
	cmd2.Stderr = os.Stderr
	if err := cmd2.Run(); err != nil {
		return err
	}

	newInfo, err := os.Stat(tmpfile.Name())
	if err != nil {
		return err
	}

	if newInfo.ModTime() == originalInfo.ModTime() {
		fmt.Fprintln(cmd.OutOrStdout(), "Edit cancelled, no changes made")
		return nil
	}

	return putPlans(ctx, client, cmd.OutOrStdout(), tmpfile.Name())
}
