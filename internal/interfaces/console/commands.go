package console

import (
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	accessapp "github.com/society/backend/internal/application/access"
	"github.com/society/backend/internal/domain/access"
	"github.com/society/backend/internal/domain/billing"
	"github.com/society/backend/internal/domain/shared"
	"github.com/society/backend/internal/domain/shared/valueobject"
	"github.com/society/backend/internal/infrastructure/config"
	"github.com/society/backend/internal/infrastructure/remote"
	"github.com/society/backend/internal/interfaces/http/dto"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"golang.org/x/text/language"
)

// Environment variables read as flag defaults
const (
	EnvToken    = "SOCIETY_TOKEN"
	EnvUsername = "SOCIETY_USERNAME"
	EnvPassword = "SOCIETY_PASSWORD"
)

type app struct {
	cfg    *config.Config
	out    io.Writer
	logger *zap.Logger

	baseURL  string
	token    string
	username string
	password string
	noColor  bool
	timeout  time.Duration

	client   *remote.Client
	session  *Session
	renderer *Renderer
}

// NewRootCommand builds the console command tree
func NewRootCommand(cfg *config.Config, out io.Writer, logger *zap.Logger) *cobra.Command {
	if logger == nil {
		logger = zap.NewNop()
	}
	a := &app{cfg: cfg, out: out, logger: logger}

	root := &cobra.Command{
		Use:           "society-console",
		Short:         "Operator console for the society billing API",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			a.connect()
			return nil
		},
	}
	root.SetOut(out)

	flags := root.PersistentFlags()
	flags.StringVar(&a.baseURL, "api", cfg.Remote.BaseURL, "Base URL of the console API")
	flags.StringVar(&a.token, "token", os.Getenv(EnvToken), "Access token (env "+EnvToken+")")
	flags.StringVarP(&a.username, "user", "u", os.Getenv(EnvUsername), "Username to sign in with when no token is given (env "+EnvUsername+")")
	flags.StringVar(&a.password, "password", os.Getenv(EnvPassword), "Password (env "+EnvPassword+")")
	flags.DurationVar(&a.timeout, "timeout", cfg.Remote.Timeout, "Per-request timeout")
	flags.BoolVar(&a.noColor, "no-color", false, "Disable colored output")

	root.AddCommand(
		a.loginCmd(),
		a.permissionsCmd(),
		a.checkCmd(),
		a.scheduleCmd(),
		a.reportCmd(),
	)
	return root
}

func (a *app) connect() {
	rc := a.cfg.Remote
	rc.BaseURL = a.baseURL
	rc.Timeout = a.timeout
	a.client = remote.NewClient(rc, remote.WithToken(a.token), remote.WithLogger(a.logger))

	guard := accessapp.NewGuard(policyFromConfig(a.cfg.Permission), a.logger)
	a.session = NewSession(a.client, guard, valueobject.Currency(a.cfg.Billing.Currency), a.logger)
	a.renderer = NewRenderer(a.out, language.English, !a.noColor)
}

// signIn logs in with the configured credentials when no token was given
func (a *app) signIn(cmd *cobra.Command) error {
	if a.token != "" {
		return nil
	}
	if a.username == "" {
		return &remote.Error{Kind: remote.KindUnauthenticated, Code: "NO_CREDENTIALS", Message: "no token or username given"}
	}
	_, err := a.session.Login(cmd.Context(), a.username, a.password)
	return err
}

func (a *app) loginCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "login",
		Short: "Sign in and print an access token",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if a.username == "" {
				return errors.New("--user is required")
			}
			resp, err := a.session.Login(cmd.Context(), a.username, a.password)
			if err != nil {
				return err
			}
			fmt.Fprintf(a.out, "Signed in as %s\n", resp.User.Username)
			fmt.Fprintf(a.out, "export %s=%s\n", EnvToken, resp.Token.AccessToken)
			return a.renderer.Permissions(resp.Permissions)
		},
	}
}

func (a *app) permissionsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "permissions",
		Short: "Print the resolved permission map",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.signIn(cmd); err != nil {
				return err
			}
			m, err := a.session.Permissions(cmd.Context())
			if err != nil {
				return err
			}
			return a.renderer.Permissions(m)
		},
	}
}

func (a *app) checkCmd() *cobra.Command {
	var (
		resource string
		watch    time.Duration
	)
	cmd := &cobra.Command{
		Use:   "check <capability>",
		Short: "Evaluate the guard for a capability",
		Long:  "Evaluate the guard for a capability. Exits 3 when access is denied.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, ok := access.ParseCapability(args[0])
			if !ok {
				return shared.NewValidationError(shared.FieldError{Field: "capability", Message: "unknown capability " + args[0]})
			}
			req := access.Require(c)
			if resource != "" {
				req = req.On(resource)
			}
			if err := a.signIn(cmd); err != nil {
				return err
			}

			if watch > 0 {
				return a.session.Watch(cmd.Context(), req, watch, func(d access.Decision) {
					a.renderer.Decision(req, d)
				})
			}

			d, err := a.session.Check(cmd.Context(), req)
			if err != nil {
				a.logger.Debug("Permission resolution failed", zap.Error(err))
			}
			a.renderer.Decision(req, d)
			return accessapp.Enforce(d)
		},
	}
	cmd.Flags().StringVar(&resource, "resource", "", "Resource id for list-valued capabilities")
	cmd.Flags().DurationVar(&watch, "watch", 0, "Re-resolve at this interval and print every decision")
	return cmd
}

func (a *app) scheduleCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "schedule",
		Short: "Show or change the maintenance cost schedule",
	}

	show := &cobra.Command{
		Use:   "show",
		Short: "Print both schedule variants",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.signIn(cmd); err != nil {
				return err
			}
			list, err := a.session.Schedules(cmd.Context())
			if err != nil {
				return err
			}
			return a.renderer.Schedules(list)
		},
	}

	fixed := &cobra.Command{
		Use:   "fixed <apartment-type-id>=<amount>...",
		Short: "Store a fixed table and make it active",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			rates, err := parseRates(args)
			if err != nil {
				return err
			}
			if err := a.signIn(cmd); err != nil {
				return err
			}
			saved, err := a.session.SaveFixedTable(cmd.Context(), rates)
			if err != nil {
				return err
			}
			return a.renderer.Schedules([]dto.ScheduleResponse{*saved})
		},
	}

	var unitName, unitValue string
	unit := &cobra.Command{
		Use:   "unit",
		Short: "Store a unit rate and make it active",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.signIn(cmd); err != nil {
				return err
			}
			saved, err := a.session.SaveUnitRate(cmd.Context(), unitName, unitValue)
			if err != nil {
				return err
			}
			return a.renderer.Schedules([]dto.ScheduleResponse{*saved})
		},
	}
	unit.Flags().StringVar(&unitName, "name", "", "Unit name, e.g. sqft")
	unit.Flags().StringVar(&unitValue, "value", "", "Amount per unit")

	set := &cobra.Command{
		Use:   "set",
		Short: "Store a schedule variant and make it active",
	}
	set.AddCommand(fixed, unit)
	cmd.AddCommand(show, set)
	return cmd
}

func (a *app) reportCmd() *cobra.Command {
	var category string
	cmd := &cobra.Command{
		Use:   "report <start> <end>",
		Short: "Aggregate the bills of a window (dates are YYYY-MM-DD, inclusive)",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			q, err := parseReportQuery(args[0], args[1], category)
			if err != nil {
				return err
			}
			if err := a.signIn(cmd); err != nil {
				return err
			}
			rep, err := a.session.Report(cmd.Context(), q)
			if err != nil {
				return err
			}
			return a.renderer.Report(rep)
		},
	}
	cmd.Flags().StringVarP(&category, "type", "t", string(billing.CategoryAll), "maintenance, special or all")
	return cmd
}

func parseRates(args []string) ([]dto.FixedRateData, error) {
	verr := shared.NewValidationError()
	rates := make([]dto.FixedRateData, 0, len(args))
	for _, arg := range args {
		id, value, ok := strings.Cut(arg, "=")
		typeID, err := uuid.Parse(id)
		if !ok || err != nil || value == "" {
			verr.Add("unit_data", "expected <apartment-type-id>=<amount>, got "+arg)
			continue
		}
		rates = append(rates, dto.FixedRateData{ApartmentType: typeID, UnitValue: value})
	}
	if err := verr.OrNil(); err != nil {
		return nil, err
	}
	return rates, nil
}

func parseReportQuery(start, end, category string) (ReportQuery, error) {
	verr := shared.NewValidationError()
	from, err := time.Parse(time.DateOnly, start)
	if err != nil {
		verr.Add("start", "start must be a date in YYYY-MM-DD format")
	}
	to, err := time.Parse(time.DateOnly, end)
	if err != nil {
		verr.Add("end", "end must be a date in YYYY-MM-DD format")
	}
	cat, err := billing.ParseCategory(category)
	if err != nil {
		verr.Add("type", "type must be maintenance, special or all")
	}
	if err := verr.OrNil(); err != nil {
		return ReportQuery{}, err
	}
	if to.Before(from) {
		return ReportQuery{}, shared.NewValidationError(shared.FieldError{Field: "end", Message: "end must not be before start"})
	}
	return ReportQuery{From: from, To: to, Category: cat}, nil
}

func policyFromConfig(cfg config.PermissionConfig) access.FallbackPolicy {
	p := access.DefaultFallbackPolicy()
	if cfg.ResidentMarker != "" {
		p.ResidentMarker = access.Capability(cfg.ResidentMarker)
	}
	if cfg.StaffMarker != "" {
		p.StaffMarker = access.Capability(cfg.StaffMarker)
	}
	if cfg.ResidentTarget != "" {
		p.ResidentTarget = access.Target(cfg.ResidentTarget)
	}
	if cfg.StaffTarget != "" {
		p.StaffTarget = access.Target(cfg.StaffTarget)
	}
	if cfg.DeniedTarget != "" {
		p.UnauthorizedTarget = access.Target(cfg.DeniedTarget)
	}
	return p
}
